package mapdata

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"VoxelStream/shared/util"
)

type recorder struct {
	mu      sync.Mutex
	changed map[*Chunk]int
	edited  map[*Chunk]int
}

func newRecorder() *recorder {
	return &recorder{changed: map[*Chunk]int{}, edited: map[*Chunk]int{}}
}

func (r *recorder) BlocksChanged(c *Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed[c]++
}

func (r *recorder) BlocksEdited(c *Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edited[c]++
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = map[*Chunk]int{}
	r.edited = map[*Chunk]int{}
}

func solidChunk(coord util.Position3, n int32, l Listener) *Chunk {
	c := NewChunk(coord, n, l)
	blocks := make([]Block, n*n*n)
	for i := range blocks {
		blocks[i] = BlockDirt
	}
	c.Fill(blocks)
	c.Set(HasBlocks)
	return c
}

func TestGetBlockBeforePopulate(t *testing.T) {
	c := NewChunk(util.NewPosition3(0, 0, 0), 4, nil)
	if got := c.GetBlock(1, 2, 3); got != BlockEmpty {
		t.Errorf("GetBlock in range = %v, want empty", got)
	}
	if got := c.GetBlock(-1, 0, 0); got != BlockUndefined {
		t.Errorf("GetBlock without neighbor = %v, want undefined", got)
	}
	if got := c.GetBlock(0, 9, 0); got != BlockUndefined {
		t.Errorf("GetBlock far out = %v, want undefined", got)
	}
	if err := c.SetBlock(0, 0, 0, BlockDirt); !errors.Is(err, ErrNotPopulated) {
		t.Errorf("SetBlock before populate = %v, want ErrNotPopulated", err)
	}
}

func TestGetBlockCrossesIntoNeighbor(t *testing.T) {
	a := solidChunk(util.NewPosition3(0, 0, 0), 4, nil)
	b := NewChunk(util.NewPosition3(1, 0, 0), 4, nil)
	blocks := make([]Block, 64)
	blocks[0+4*(2+4*3)] = BlockRock // (0,2,3) em b
	b.Fill(blocks)

	if !a.LinkNeighbor(util.FacePosX, b) {
		t.Fatal("LinkNeighbor = false")
	}
	if got := a.GetBlock(4, 2, 3); got != BlockRock {
		t.Errorf("a.GetBlock(4,2,3) = %v, want rock", got)
	}
	if got := a.GetBlock(5, 0, 0); got != BlockEmpty {
		t.Errorf("a.GetBlock(5,0,0) = %v, want empty", got)
	}
	if got := b.GetBlock(-1, 1, 1); got != BlockDirt {
		t.Errorf("b.GetBlock(-1,1,1) = %v, want dirt", got)
	}
	// Dois eixos fora: +x resolve em b, depois +y não tem vizinho.
	if got := a.GetBlock(4, 4, 0); got != BlockUndefined {
		t.Errorf("a.GetBlock(4,4,0) = %v, want undefined", got)
	}
}

func TestSetBlockOnSharedBoundary(t *testing.T) {
	rec := newRecorder()
	a := solidChunk(util.NewPosition3(0, 0, 0), 4, rec)
	b := solidChunk(util.NewPosition3(1, 0, 0), 4, rec)
	a.LinkNeighbor(util.FacePosX, b)
	rec.reset()

	revA, revB := a.Revision(), b.Revision()
	if err := a.SetBlock(3, 1, 2, BlockEmpty); err != nil {
		t.Fatal(err)
	}

	if rec.changed[a] != 1 || rec.changed[b] != 1 {
		t.Errorf("changed a=%d b=%d, want 1 each", rec.changed[a], rec.changed[b])
	}
	if rec.edited[a] != 1 || rec.edited[b] != 0 {
		t.Errorf("edited a=%d b=%d, want 1/0", rec.edited[a], rec.edited[b])
	}
	if a.Revision() <= revA || b.Revision() <= revB {
		t.Error("revisions did not advance")
	}
	if got := b.GetBlock(-1, 1, 2); got != BlockEmpty {
		t.Errorf("b sees %v across the boundary, want empty", got)
	}

	rec.reset()
	a.SetBlock(1, 1, 1, BlockRock)
	if rec.changed[b] != 0 || rec.changed[a] != 1 {
		t.Errorf("interior edit notified a=%d b=%d, want 1/0", rec.changed[a], rec.changed[b])
	}
}

func TestSetBlockValidation(t *testing.T) {
	c := solidChunk(util.NewPosition3(0, 0, 0), 4, nil)
	tests := []struct {
		x, y, z int
		b       Block
		want    error
	}{
		{0, 0, 0, BlockEmpty, nil},
		{4, 0, 0, BlockEmpty, ErrOutOfRange},
		{0, -1, 0, BlockEmpty, ErrOutOfRange},
		{1, 1, 1, BlockUndefined, ErrInvalidBlock},
	}
	for _, tt := range tests {
		err := c.SetBlock(tt.x, tt.y, tt.z, tt.b)
		if !errors.Is(err, tt.want) {
			t.Errorf("SetBlock(%d,%d,%d,%v) = %v, want %v", tt.x, tt.y, tt.z, tt.b, err, tt.want)
		}
	}
}

func TestNeighborSymmetry(t *testing.T) {
	const span = 3
	grid := map[util.Position3]*Chunk{}
	for x := int32(0); x < span; x++ {
		for y := int32(0); y < span; y++ {
			for z := int32(0); z < span; z++ {
				p := util.NewPosition3(x, y, z)
				grid[p] = NewChunk(p, 2, nil)
			}
		}
	}

	check := func(step int) {
		t.Helper()
		for p, c := range grid {
			if !c.CheckSymmetry() {
				t.Fatalf("step %d: symmetry broken at %v", step, p)
			}
		}
	}

	r := rand.New(rand.NewSource(7))
	coords := make([]util.Position3, 0, len(grid))
	for p := range grid {
		coords = append(coords, p)
	}
	for step := 0; step < 500; step++ {
		c := grid[coords[r.Intn(len(coords))]]
		if r.Intn(5) == 0 {
			for _, other := range c.UnlinkAll() {
				if other.Neighbor(util.FacePosX) == c || other.Neighbor(util.FaceNegX) == c {
					t.Fatalf("step %d: %v still points to unlinked %v", step, other, c)
				}
			}
			if c.LinkedCount() != 0 {
				t.Fatalf("step %d: LinkedCount = %d after UnlinkAll", step, c.LinkedCount())
			}
		} else {
			f := util.Faces[r.Intn(util.FaceCount)]
			if other, ok := grid[c.Coord().Add(f.Offset())]; ok {
				c.LinkNeighbor(f, other)
				c.LinkNeighbor(f, other) // idempotente
			}
		}
		check(step)
	}
}

func TestLinkNotifiesBothSides(t *testing.T) {
	rec := newRecorder()
	a := NewChunk(util.NewPosition3(0, 0, 0), 2, rec)
	b := NewChunk(util.NewPosition3(0, 0, -1), 2, rec)

	if !a.LinkNeighbor(util.FaceNegZ, b) {
		t.Fatal("LinkNeighbor = false")
	}
	if rec.changed[a] != 1 || rec.changed[b] != 1 {
		t.Errorf("changed a=%d b=%d, want 1 each", rec.changed[a], rec.changed[b])
	}
	if a.LinkNeighbor(util.FaceNegZ, b) {
		t.Error("second link = true")
	}
	if rec.changed[a] != 1 {
		t.Error("idempotent link notified again")
	}
	if b.Neighbor(util.FacePosZ) != a {
		t.Error("back slot not set")
	}
}

func TestPopulate(t *testing.T) {
	coord := util.NewPosition3(2, -1, 0)
	gen := Generator{Density: DefaultSine(), Frequency: 1}

	c := NewChunk(coord, 8, nil)
	fromStore, err := c.Populate(nil, gen)
	if err != nil || fromStore {
		t.Fatalf("Populate(nil) = %v, %v", fromStore, err)
	}
	generated := c.CopyBlocks()

	store := NewMemoryStore()
	saved := make([]Block, 512)
	saved[17] = BlockRock
	store.Save(coord, saved)

	c2 := NewChunk(coord, 8, nil)
	fromStore, err = c2.Populate(store.Load, gen)
	if err != nil || !fromStore {
		t.Fatalf("Populate(store) = %v, %v", fromStore, err)
	}
	if c2.GetBlock(1, 2, 0) != BlockRock {
		t.Error("loaded chunk lost its data")
	}

	failing := func(util.Position3, int) ([]Block, bool, error) {
		return nil, false, errors.New("disco sumiu")
	}
	c3 := NewChunk(coord, 8, nil)
	if fromStore, err := c3.Populate(failing, gen); err != nil || fromStore {
		t.Fatalf("Populate(failing) = %v, %v", fromStore, err)
	}
	got := c3.CopyBlocks()
	for i := range generated {
		if got[i] != generated[i] {
			t.Fatalf("fallback generation differs at %d", i)
		}
	}
}

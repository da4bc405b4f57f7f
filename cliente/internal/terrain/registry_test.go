package terrain

import (
	"errors"
	"sync"
	"testing"
	"time"

	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeView struct {
	pos, fwd mgl32.Vec3
}

func (v *fakeView) Position() mgl32.Vec3 { return v.pos }
func (v *fakeView) Forward() mgl32.Vec3  { return v.fwd }

type fakeRenderer struct {
	mu       sync.Mutex
	installs map[util.Position3]int
	last     map[util.Position3]meshing.GeometryData
	visible  map[util.Position3]bool
	released map[util.Position3]int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		installs: map[util.Position3]int{},
		last:     map[util.Position3]meshing.GeometryData{},
		visible:  map[util.Position3]bool{},
		released: map[util.Position3]int{},
	}
}

func (f *fakeRenderer) Install(coord util.Position3, _ mgl32.Vec3, geo meshing.GeometryData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs[coord]++
	f.last[coord] = geo
}

func (f *fakeRenderer) SetVisible(coord util.Position3, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[coord] = visible
}

func (f *fakeRenderer) Release(coord util.Position3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released[coord]++
	delete(f.visible, coord)
}

func (f *fakeRenderer) installCount(coord util.Position3) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installs[coord]
}

// fakeCollider reaproveita o renderer falso: mesma forma de chamadas.
type fakeCollider struct{ *fakeRenderer }

func (f fakeCollider) SetEnabled(coord util.Position3, enabled bool) { f.SetVisible(coord, enabled) }

func testOptions() Options {
	return Options{
		ChunkSize:        4,
		DisplayDistance:  10,
		DisableDistance:  14,
		DestroyDistance:  20,
		BlockWorkers:     1,
		MeshWorkers:      1,
		CollisionWorkers: 1,
		Generator:        mapdata.Generator{Density: mapdata.DefaultSine(), Frequency: 1},
	}
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, *fakeRenderer, fakeCollider, *fakeView) {
	t.Helper()
	ren := newFakeRenderer()
	col := fakeCollider{newFakeRenderer()}
	view := &fakeView{fwd: mgl32.Vec3{0, 0, -1}}
	r := New(opts, nil, ren, col, view)
	t.Cleanup(r.Close)
	return r, ren, col, view
}

// loadNow registra e popula o chunk na hora, sem workers.
func loadNow(t *testing.T, r *Registry, coord util.Position3) *mapdata.Chunk {
	t.Helper()
	c, _ := r.ensure(coord)
	if err := r.populateStage(c); err != nil {
		t.Fatal(err)
	}
	r.sched.Blocks.Dequeue(c)
	r.sched.Main.DrainAll()
	if !c.Has(mapdata.HasBlocks) {
		t.Fatalf("%v sem HasBlocks depois de popular", c)
	}
	return c
}

func clearQueue(q interface {
	Snapshot() []*mapdata.Chunk
	Dequeue(*mapdata.Chunk) int
}) {
	for _, c := range q.Snapshot() {
		q.Dequeue(c)
	}
}

func TestPopulateLinksExistingNeighbors(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, testOptions())
	a := loadNow(t, r, util.NewPosition3(0, 0, 0))
	b := loadNow(t, r, util.NewPosition3(1, 0, 0))
	far := loadNow(t, r, util.NewPosition3(5, 0, 0))

	if a.Neighbor(util.FacePosX) != b || b.Neighbor(util.FaceNegX) != a {
		t.Errorf("adjacent chunks not linked symmetrically")
	}
	if far.LinkedCount() != 0 {
		t.Errorf("isolated chunk has %d links, want 0", far.LinkedCount())
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (populate must not create neighbors)", r.Len())
	}
}

func TestBoundaryEditEnqueuesBothOnce(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, testOptions())
	a := loadNow(t, r, util.NewPosition3(0, 0, 0))
	b := loadNow(t, r, util.NewPosition3(1, 0, 0))
	r.activate(r.entry(a.Coord()))
	r.activate(r.entry(b.Coord()))
	clearQueue(r.sched.Mesh)
	clearQueue(r.sched.Collision)

	// x = 3 é a última coluna de a, encostada em b.
	if err := r.SetBlock(util.NewPosition3(3, 1, 1), mapdata.BlockEmpty); err != nil {
		t.Fatal(err)
	}
	// Repetir a edição não duplica nada.
	if err := r.SetBlock(util.NewPosition3(3, 1, 1), mapdata.BlockEmpty); err != nil {
		t.Fatal(err)
	}

	for name, q := range map[string]interface{ Snapshot() []*mapdata.Chunk }{
		"mesh": r.sched.Mesh, "collision": r.sched.Collision,
	} {
		got := q.Snapshot()
		if len(got) != 2 {
			t.Fatalf("%s queue = %v, want exactly [a b]", name, got)
		}
		seen := map[*mapdata.Chunk]int{}
		for _, c := range got {
			seen[c]++
		}
		if seen[a] != 1 || seen[b] != 1 {
			t.Errorf("%s queue counts a=%d b=%d, want 1 each", name, seen[a], seen[b])
		}
	}
}

func TestInteriorEditEnqueuesOnlyOwner(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, testOptions())
	a := loadNow(t, r, util.NewPosition3(0, 0, 0))
	b := loadNow(t, r, util.NewPosition3(1, 0, 0))
	r.activate(r.entry(a.Coord()))
	r.activate(r.entry(b.Coord()))
	clearQueue(r.sched.Mesh)

	if err := r.SetBlock(util.NewPosition3(1, 1, 1), mapdata.BlockDirt); err != nil {
		t.Fatal(err)
	}
	if got := r.sched.Mesh.Snapshot(); len(got) != 1 || got[0] != a {
		t.Errorf("mesh queue = %v, want [a]", got)
	}
}

func TestSetBlockUnknownChunk(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, testOptions())
	err := r.SetBlock(util.NewPosition3(100, 0, 0), mapdata.BlockDirt)
	if !errors.Is(err, ErrChunkNotLoaded) {
		t.Errorf("SetBlock(unloaded) = %v, want ErrChunkNotLoaded", err)
	}
	if got := r.Block(util.NewPosition3(100, 0, 0)); got != mapdata.BlockUndefined {
		t.Errorf("Block(unloaded) = %v, want undefined", got)
	}
	if r.Len() != 0 {
		t.Errorf("Block lookup created %d chunks", r.Len())
	}
}

func TestThresholdsDoNotOscillate(t *testing.T) {
	r, _, _, view := newTestRegistry(t, testOptions())
	c := loadNow(t, r, util.NewPosition3(0, 0, 0))
	center := c.Center()

	at := func(d float32) { view.pos = center.Add(mgl32.Vec3{d, 0, 0}) }
	tickN := func(n int) {
		for i := 0; i < n; i++ {
			r.Tick()
		}
	}

	tests := []struct {
		dist   float32
		active bool
	}{
		{10, false}, // exatamente no display: continua inativo
		{9.5, true},
		{12, true},
		{14, true}, // exatamente no disable: continua ativo
		{14.5, false},
		{12, false}, // entre display e disable: não volta
		{10, false},
		{9, true},
	}
	for _, tt := range tests {
		at(tt.dist)
		tickN(5)
		if got := c.Has(mapdata.IsActive); got != tt.active {
			t.Errorf("distance %v: active = %v, want %v", tt.dist, got, tt.active)
		}
	}
	if c.Destroyed() {
		t.Error("chunk destroyed inside destroy distance")
	}
}

func TestDeactivateAndDestroyCancelWork(t *testing.T) {
	r, ren, _, view := newTestRegistry(t, testOptions())
	a := loadNow(t, r, util.NewPosition3(0, 0, 0))
	b := loadNow(t, r, util.NewPosition3(1, 0, 0))
	view.pos = a.Center()
	r.Tick()
	if !a.Has(mapdata.IsActive) {
		t.Fatal("chunk under the viewpoint not activated")
	}
	if !r.sched.Mesh.Contains(a) || !r.sched.Collision.Contains(a) {
		t.Fatal("activated chunk with a neighbor has no geometry work pending")
	}

	// Instala uma malha para verificar a liberação.
	r.meshReady(a, a.Revision(), util.AllFaces, meshing.GeometryData{})
	if !a.Has(mapdata.HasMesh) {
		t.Fatal("meshReady did not set HasMesh")
	}

	view.pos = a.Center().Add(mgl32.Vec3{16, 0, 0}) // além do disable, aquém do destroy
	r.Tick()
	if a.Has(mapdata.IsActive) || a.Has(mapdata.HasMesh) {
		t.Errorf("flags after deactivation = %v", a.Flags())
	}
	if r.sched.Mesh.Contains(a) || r.sched.Collision.Contains(a) {
		t.Error("deactivated chunk still pending geometry work")
	}
	if ren.released[a.Coord()] == 0 {
		t.Error("renderer resources not released on deactivation")
	}
	// a já está inativo e passa do destroy; b ainda está ativo neste tick.
	view.pos = a.Center().Add(mgl32.Vec3{40, 0, 0})
	r.Tick()
	if !a.Destroyed() || r.Chunk(a.Coord()) != nil {
		t.Fatal("chunk beyond destroy distance still registered")
	}
	if b.Destroyed() {
		t.Fatal("active neighbor destroyed in the same tick")
	}
	if b.Neighbor(util.FaceNegX) != nil || !b.CheckSymmetry() {
		t.Error("surviving neighbor still points at destroyed chunk")
	}
	if r.sched.Blocks.Contains(a) || r.sched.Mesh.Contains(a) {
		t.Error("destroyed chunk still queued")
	}
}

func TestStaleMeshDropped(t *testing.T) {
	r, ren, _, _ := newTestRegistry(t, testOptions())
	a := loadNow(t, r, util.NewPosition3(0, 0, 0))
	r.activate(r.entry(a.Coord()))

	newer := meshing.GeometryData{Indices: []uint32{0, 1, 2}}
	older := meshing.GeometryData{Indices: []uint32{0, 1, 2, 0, 2, 3}}
	r.meshReady(a, 5, util.AllFaces, newer)
	r.meshReady(a, 3, util.AllFaces, older)

	if got := ren.installCount(a.Coord()); got != 1 {
		t.Errorf("installs = %d, want 1", got)
	}
	if got := ren.last[a.Coord()]; len(got.Indices) != 3 {
		t.Errorf("installed geometry has %d indices, want the newer one (3)", len(got.Indices))
	}
}

func TestPopulateFromStoreAndSaveEdits(t *testing.T) {
	store := mapdata.NewMemoryStore()
	coord := util.NewPosition3(2, -1, 0)
	saved := make([]mapdata.Block, 64)
	for i := range saved {
		saved[i] = mapdata.Block(i % 3)
	}
	if err := store.Save(coord, saved); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Store = store
	r, _, _, _ := newTestRegistry(t, opts)
	c := loadNow(t, r, coord)

	got := c.CopyBlocks()
	for i := range saved {
		if got[i] != saved[i] {
			t.Fatalf("block %d = %v, want %v from store", i, got[i], saved[i])
		}
	}

	world := coord.Scale(4).Add(util.NewPosition3(1, 2, 3))
	if err := r.SetBlock(world, mapdata.BlockRock); err != nil {
		t.Fatal(err)
	}
	r.sched.IO.Flush()

	back, ok, err := store.Load(coord, 4)
	if err != nil || !ok {
		t.Fatalf("Load after edit = %v, %v", ok, err)
	}
	if back[1+4*(2+4*3)] != mapdata.BlockRock {
		t.Error("edit not persisted")
	}
	if r.Block(world) != mapdata.BlockRock {
		t.Errorf("Block(%v) = %v, want rock", world, r.Block(world))
	}
}

func TestLoadPrefersQueuedSave(t *testing.T) {
	store := mapdata.NewMemoryStore()
	opts := testOptions()
	opts.Store = store
	r, _, _, _ := newTestRegistry(t, opts)
	coord := util.NewPosition3(0, 0, 0)
	loadNow(t, r, coord)

	// Segura a fila de I/O: o save da edição fica atrás desta tarefa.
	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })
	defer release()
	r.sched.IO.Enqueue(func() error { <-gate; return nil }, false)

	world := util.NewPosition3(1, 1, 1)
	if err := r.SetBlock(world, mapdata.BlockRock); err != nil {
		t.Fatal(err)
	}
	if got := r.Stats().PendingSaves; got != 1 {
		t.Fatalf("PendingSaves = %d, want 1", got)
	}

	type result struct {
		blocks []mapdata.Block
		ok     bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		blocks, ok, err := r.load(coord, 4)
		done <- result{blocks, ok, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		release()
		t.Fatal("load waited behind the queued save")
	}
	if res.err != nil || !res.ok {
		t.Fatalf("load = %v, %v, want the queued snapshot", res.ok, res.err)
	}
	if got := res.blocks[1+4*(1+4*1)]; got != mapdata.BlockRock {
		t.Errorf("block (1,1,1) = %v, want rock from the queued save", got)
	}

	release()
	r.sched.IO.Flush()
	if got := r.Stats().PendingSaves; got != 0 {
		t.Errorf("PendingSaves after flush = %d, want 0", got)
	}
	back, ok, err := store.Load(coord, 4)
	if err != nil || !ok || back[1+4*(1+4*1)] != mapdata.BlockRock {
		t.Errorf("store after flush: ok %v, err %v", ok, err)
	}
}

func TestRecreatedChunkKeepsQueuedEdit(t *testing.T) {
	store := mapdata.NewMemoryStore()
	opts := testOptions()
	opts.Store = store
	r, _, _, view := newTestRegistry(t, opts)
	coord := util.NewPosition3(0, 0, 0)
	loadNow(t, r, coord)

	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })
	defer release()
	r.sched.IO.Enqueue(func() error { <-gate; return nil }, false)

	// O sólido mais alto da coluna (2, *, 2) vira vazio; o gerador nunca produz isso.
	world := util.NewPosition3(2, 0, 2)
	if err := r.SetBlock(world, mapdata.BlockEmpty); err != nil {
		t.Fatal(err)
	}

	view.pos = mgl32.Vec3{1000, 0, 0}
	r.Tick()
	if r.Chunk(coord) != nil {
		t.Fatalf("%v still registered far away", coord)
	}

	view.pos = mgl32.Vec3{}
	r.Tick()
	c := r.Chunk(coord)
	if c == nil {
		t.Fatalf("%v not recreated", coord)
	}
	done := make(chan error, 1)
	go func() { done <- r.populateStage(c) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		release()
		t.Fatal("populate waited behind the queued save")
	}
	r.sched.Main.DrainAll()
	if !c.Has(mapdata.HasBlocks) {
		t.Fatalf("%v not populated", c)
	}
	if got := r.Block(world); got != mapdata.BlockEmpty {
		t.Errorf("Block(%v) after recreate = %v, want the edited empty block", world, got)
	}
}

func TestPriorityPrefersCloseAndAhead(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, testOptions())
	r.viewPos, r.viewFwd = mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}

	ahead := mapdata.NewChunk(util.NewPosition3(2, -1, -1), 4, nil)
	behind := mapdata.NewChunk(util.NewPosition3(-3, -1, -1), 4, nil)
	farAhead := mapdata.NewChunk(util.NewPosition3(6, -1, -1), 4, nil)

	if !(r.priority(ahead) > r.priority(behind)) {
		t.Errorf("priority(ahead) = %v <= priority(behind) = %v", r.priority(ahead), r.priority(behind))
	}
	if !(r.priority(ahead) > r.priority(farAhead)) {
		t.Errorf("priority(ahead) = %v <= priority(far) = %v", r.priority(ahead), r.priority(farAhead))
	}
}

func TestFacingFaces(t *testing.T) {
	origin := mgl32.Vec3{0, 0, 0}
	tests := []struct {
		eye  mgl32.Vec3
		want util.FaceSet
	}{
		{mgl32.Vec3{2, 2, 2}, util.AllFaces},
		{mgl32.Vec3{10, 2, 2}, util.AllFaces &^ (1 << util.FaceNegX)},
		{mgl32.Vec3{-5, 2, 2}, util.AllFaces &^ (1 << util.FacePosX)},
		{mgl32.Vec3{2, 9, -3}, util.NoFaces.With(util.FacePosX).With(util.FaceNegX).With(util.FacePosY).With(util.FaceNegZ)},
	}
	for _, tt := range tests {
		if got := facingFaces(origin, 4, tt.eye); got != tt.want {
			t.Errorf("facingFaces(%v) = %06b, want %06b", tt.eye, got, tt.want)
		}
	}
}

func TestStreamingWithWorkers(t *testing.T) {
	opts := testOptions()
	opts.ChunkSize = 8
	opts.DisplayDistance, opts.DisableDistance, opts.DestroyDistance = 20, 28, 40
	opts.BlockWorkers, opts.MeshWorkers = 2, 2

	r, ren, col, view := newTestRegistry(t, opts)
	view.pos = mgl32.Vec3{4, 4, 4}
	r.Start()

	home := util.NewPosition3(0, 0, 0)
	deadline := time.Now().Add(10 * time.Second)
	for ren.installCount(home) == 0 || col.installCount(home) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no geometry for the viewpoint chunk; stats %v", r.Stats())
		}
		r.Tick()
		time.Sleep(2 * time.Millisecond)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for coord, c := range r.chunks {
		if !c.CheckSymmetry() {
			t.Errorf("neighbor symmetry broken at %v", coord)
		}
	}
}

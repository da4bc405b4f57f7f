package physics

import (
	"testing"

	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// openVolume é um volume cercado de vazio.
type openVolume struct {
	n      int
	blocks []mapdata.Block
}

func (v openVolume) Size() int                   { return v.n }
func (v openVolume) CopyBlocks() []mapdata.Block { return append([]mapdata.Block(nil), v.blocks...) }
func (v openVolume) GetBlock(x, y, z int) mapdata.Block {
	if x < 0 || y < 0 || z < 0 || x >= v.n || y >= v.n || z >= v.n {
		return mapdata.BlockEmpty
	}
	return v.blocks[x+v.n*(y+v.n*z)]
}

func installCube(t *testing.T, c *Collider, coord util.Position3, origin mgl32.Vec3) {
	t.Helper()
	geo, err := meshing.BuildCollision(openVolume{n: 1, blocks: []mapdata.Block{mapdata.BlockRock}})
	if err != nil {
		t.Fatal(err)
	}
	c.Install(coord, origin, geo)
}

func TestRaycastHitsTopFace(t *testing.T) {
	c := NewCollider()
	coord := util.NewPosition3(5, 0, 0)
	installCube(t, c, coord, mgl32.Vec3{5, 0, 0})

	if _, ok := c.Raycast(mgl32.Vec3{5.3, 5, 0.6}, mgl32.Vec3{0, -1, 0}, 100); ok {
		t.Fatal("disabled mesh was hit")
	}
	c.SetEnabled(coord, true)

	tests := []struct {
		from, dir      mgl32.Vec3
		normal         mgl32.Vec3
		block, adjacent util.Position3
		dist           float32
	}{
		{mgl32.Vec3{5.3, 5, 0.6}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 1, 0}, util.NewPosition3(5, 0, 0), util.NewPosition3(5, 1, 0), 4},
		{mgl32.Vec3{0, 0.3, 0.6}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}, util.NewPosition3(5, 0, 0), util.NewPosition3(4, 0, 0), 5},
		{mgl32.Vec3{5.3, 0.6, -3}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, -1}, util.NewPosition3(5, 0, 0), util.NewPosition3(5, 0, -1), 3},
	}
	for _, tt := range tests {
		hit, ok := c.Raycast(tt.from, tt.dir, 100)
		if !ok {
			t.Errorf("Raycast(%v, %v) missed", tt.from, tt.dir)
			continue
		}
		if !hit.Normal.ApproxEqualThreshold(tt.normal, 1e-5) {
			t.Errorf("Raycast(%v) normal = %v, want %v", tt.from, hit.Normal, tt.normal)
		}
		if hit.Block() != tt.block || hit.Adjacent() != tt.adjacent {
			t.Errorf("Raycast(%v) block %v adjacent %v, want %v %v", tt.from, hit.Block(), hit.Adjacent(), tt.block, tt.adjacent)
		}
		if d := hit.Distance - tt.dist; d > 1e-4 || d < -1e-4 {
			t.Errorf("Raycast(%v) distance = %v, want %v", tt.from, hit.Distance, tt.dist)
		}
		if hit.Coord != coord {
			t.Errorf("Raycast(%v) coord = %v, want %v", tt.from, hit.Coord, coord)
		}
	}

	if _, ok := c.Raycast(mgl32.Vec3{5.3, 5, 0.6}, mgl32.Vec3{0, 1, 0}, 100); ok {
		t.Error("ray pointing away hit the cube")
	}
	if _, ok := c.Raycast(mgl32.Vec3{5.3, 5, 0.6}, mgl32.Vec3{0, -1, 0}, 3); ok {
		t.Error("hit beyond maxDist")
	}
}

func TestRaycastPicksClosest(t *testing.T) {
	c := NewCollider()
	near, far := util.NewPosition3(0, 0, 0), util.NewPosition3(0, 0, 3)
	installCube(t, c, near, mgl32.Vec3{0, 0, 0})
	installCube(t, c, far, mgl32.Vec3{0, 0, 3})
	c.SetEnabled(near, true)
	c.SetEnabled(far, true)

	hit, ok := c.Raycast(mgl32.Vec3{0.3, 0.6, 10}, mgl32.Vec3{0, 0, -1}, 100)
	if !ok || hit.Coord != far {
		t.Errorf("Raycast = %+v, %v, want hit on %v", hit, ok, far)
	}
	if c.Triangles() != 24 {
		t.Errorf("Triangles() = %d, want 24", c.Triangles())
	}

	c.Release(far)
	hit, ok = c.Raycast(mgl32.Vec3{0.3, 0.6, 10}, mgl32.Vec3{0, 0, -1}, 100)
	if !ok || hit.Coord != near {
		t.Errorf("after release Raycast = %+v, %v, want hit on %v", hit, ok, near)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestReinstallKeepsEnabled(t *testing.T) {
	c := NewCollider()
	coord := util.NewPosition3(0, 0, 0)
	installCube(t, c, coord, mgl32.Vec3{})
	c.SetEnabled(coord, true)
	installCube(t, c, coord, mgl32.Vec3{})
	if _, ok := c.Raycast(mgl32.Vec3{0.3, 3, 0.6}, mgl32.Vec3{0, -1, 0}, 10); !ok {
		t.Error("reinstalled mesh lost its enabled state")
	}
}

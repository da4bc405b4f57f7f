// Package physics guarda as malhas de colisão dos chunks e responde a
// consultas de raio contra elas.
package physics

import (
	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/util"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
)

const epsilon = 1e-6

type chunkMesh struct {
	tris     [][3]mgl32.Vec3 // em coordenadas de mundo
	min, max mgl32.Vec3
	enabled  bool
}

// Hit descreve a interseção mais próxima de um raio.
type Hit struct {
	Coord    util.Position3 // chunk atingido
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
}

// Block retorna o voxel atingido (atrás da face).
func (h Hit) Block() util.Position3 {
	return util.FromVec3(h.Point.Sub(h.Normal.Mul(0.5)))
}

// Adjacent retorna o voxel vazio na frente da face atingida.
func (h Hit) Adjacent() util.Position3 {
	return util.FromVec3(h.Point.Add(h.Normal.Mul(0.5)))
}

// Collider implementa terrain.Collider.
type Collider struct {
	mu     deadlock.RWMutex
	meshes map[util.Position3]*chunkMesh
}

// NewCollider cria um collider vazio.
func NewCollider() *Collider {
	return &Collider{meshes: make(map[util.Position3]*chunkMesh)}
}

// Install substitui a malha do chunk. Começa desativada até SetEnabled.
func (c *Collider) Install(coord util.Position3, origin mgl32.Vec3, geo meshing.GeometryData) {
	m := &chunkMesh{}
	if len(geo.Indices) > 0 {
		inf := math32.Inf(1)
		m.min = mgl32.Vec3{inf, inf, inf}
		m.max = m.min.Mul(-1)
	}
	vert := func(i uint32) mgl32.Vec3 {
		v := mgl32.Vec3{geo.Vertices[i*3], geo.Vertices[i*3+1], geo.Vertices[i*3+2]}.Add(origin)
		for a := 0; a < 3; a++ {
			m.min[a] = min(m.min[a], v[a])
			m.max[a] = max(m.max[a], v[a])
		}
		return v
	}
	for t := 0; t+2 < len(geo.Indices); t += 3 {
		m.tris = append(m.tris, [3]mgl32.Vec3{vert(geo.Indices[t]), vert(geo.Indices[t+1]), vert(geo.Indices[t+2])})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.meshes[coord]; ok {
		m.enabled = old.enabled
	}
	c.meshes[coord] = m
}

// SetEnabled liga ou desliga a malha do chunk nas consultas.
func (c *Collider) SetEnabled(coord util.Position3, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.meshes[coord]; ok {
		m.enabled = enabled
	}
}

// Release descarta a malha do chunk.
func (c *Collider) Release(coord util.Position3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.meshes, coord)
}

// Len retorna quantas malhas estão instaladas.
func (c *Collider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.meshes)
}

// Triangles retorna o total de triângulos das malhas ativas.
func (c *Collider) Triangles() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.meshes {
		if m.enabled {
			n += len(m.tris)
		}
	}
	return n
}

// Raycast procura a interseção mais próxima entre from e from + dir*maxDist.
func (c *Collider) Raycast(from, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	if dir.Len() == 0 {
		return Hit{}, false
	}
	dir = dir.Normalize()

	c.mu.RLock()
	defer c.mu.RUnlock()

	best := Hit{Distance: maxDist}
	found := false
	for coord, m := range c.meshes {
		if !m.enabled || len(m.tris) == 0 {
			continue
		}
		if !rayBox(from, dir, m.min, m.max, best.Distance) {
			continue
		}
		for _, tri := range m.tris {
			d, ok := rayTriangle(from, dir, tri)
			if !ok || d > best.Distance {
				continue
			}
			normal := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])).Normalize()
			best = Hit{Coord: coord, Point: from.Add(dir.Mul(d)), Normal: normal, Distance: d}
			found = true
		}
	}
	return best, found
}

// rayTriangle é o teste de Möller–Trumbore. Só conta faces voltadas para o raio.
func rayTriangle(from, dir mgl32.Vec3, tri [3]mgl32.Vec3) (float32, bool) {
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det < epsilon {
		return 0, false
	}
	inv := 1 / det
	s := from.Sub(tri[0])
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// rayBox é o teste de slabs contra a caixa [lo, hi].
func rayBox(from, dir, lo, hi mgl32.Vec3, maxDist float32) bool {
	tmin, tmax := float32(0), maxDist
	for a := 0; a < 3; a++ {
		if math32.Abs(dir[a]) < epsilon {
			if from[a] < lo[a] || from[a] > hi[a] {
				return false
			}
			continue
		}
		inv := 1 / dir[a]
		t0, t1 := (lo[a]-from[a])*inv, (hi[a]-from[a])*inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin, tmax = max(tmin, t0), min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

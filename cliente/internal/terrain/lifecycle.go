package terrain

import (
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/pkg/assert"
	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Tick avança o registro um passo: amostra o observador, reordena as filas,
// drena os callbacks da thread principal e reavalia a faixa de distância de
// cada chunk. Nunca bloqueia.
func (r *Registry) Tick() {
	if r.view != nil {
		r.viewPos, r.viewFwd = r.view.Position(), r.view.Forward()
	}
	r.sample.Store(&viewSample{pos: r.viewPos, fwd: r.viewFwd})

	r.ensure(util.ChunkOf(util.FromVec3(r.viewPos), r.opts.ChunkSize))

	r.sched.Blocks.Reprioritize()
	r.sched.Mesh.Reprioritize()
	r.sched.Collision.Reprioritize()

	r.sched.Main.DrainAll()
	r.sched.Colliders.DrainOne()

	r.evaluateInactive()
	r.evaluateActive()

	if r.opts.CullHiddenFaces {
		r.refreshFaceHints()
	}
}

func (r *Registry) distSq(c *mapdata.Chunk) float32 {
	return c.Center().Sub(r.viewPos).LenSqr()
}

func (r *Registry) evaluateInactive() {
	display2 := r.opts.DisplayDistance * r.opts.DisplayDistance
	destroy2 := r.opts.DestroyDistance * r.opts.DestroyDistance

	for el := r.inactive.Front(); el != nil; {
		next := el.Next()
		e := el.Value
		d2 := r.distSq(e.chunk)
		switch {
		case d2 > destroy2:
			r.destroy(e)
		case d2 < display2 && e.chunk.Has(mapdata.HasBlocks):
			r.activate(e)
		}
		el = next
	}
}

func (r *Registry) evaluateActive() {
	disable2 := r.opts.DisableDistance * r.opts.DisableDistance

	for el := r.active.Front(); el != nil; {
		next := el.Next()
		if r.distSq(el.Value.chunk) > disable2 {
			r.deactivate(el.Value)
		}
		el = next
	}
}

// activate marca o chunk como ativo, cria os vizinhos que faltam e pede a
// geometria se já houver algum vizinho ligado.
func (r *Registry) activate(e *entry) {
	c := e.chunk
	coord := c.Coord()
	c.Set(mapdata.IsActive)
	r.inactive.Delete(coord)
	r.active.Set(coord, e)

	r.linkExisting(c)
	if !c.AllLinked() {
		for _, f := range util.Faces {
			if c.Neighbor(f) == nil {
				r.ensure(coord.Add(f.Offset()))
			}
		}
	}
	if c.LinkedCount() > 0 {
		r.enqueueGeometry(c)
	}
	r.log.Debugf("[Registry] %v ativado (%d vizinhos)", c, c.LinkedCount())
}

// deactivate libera os recursos de GPU e de física, mas mantém o chunk.
func (r *Registry) deactivate(e *entry) {
	c := e.chunk
	coord := c.Coord()
	c.Clear(mapdata.IsActive)
	r.cancel(c)
	r.releaseGeometry(e)
	r.active.Delete(coord)
	r.inactive.Set(coord, e)
	r.log.Debugf("[Registry] %v desativado", c)
}

// destroy desliga o chunk dos vizinhos e o remove do registro.
func (r *Registry) destroy(e *entry) {
	c := e.chunk
	if !assert.IsTrue(c.MarkDestroyed(), "%v destruído duas vezes", c) {
		return
	}
	coord := c.Coord()
	r.cancel(c)
	r.releaseGeometry(e)
	former := c.UnlinkAll()
	c.Clear(mapdata.IsActive)

	r.mu.Lock()
	delete(r.chunks, coord)
	r.mu.Unlock()
	r.active.Delete(coord)
	r.inactive.Delete(coord)

	// A face voltada para o chunk removido deixa de ser resolvida.
	for _, other := range former {
		other.NotifyBlocksChanged()
	}
	r.log.Debugf("[Registry] %v destruído", c)
}

func (r *Registry) releaseGeometry(e *entry) {
	coord := e.chunk.Coord()
	if e.chunk.Has(mapdata.HasMesh) || e.meshRev != 0 {
		r.renderer.Release(coord)
	}
	if e.chunk.Has(mapdata.HasCollisionMesh) || e.colRev != 0 {
		r.collider.Release(coord)
	}
	e.chunk.Clear(mapdata.HasMesh | mapdata.HasCollisionMesh)
	e.meshRev, e.colRev, e.faces = 0, 0, util.NoFaces
}

// linkExisting liga o chunk aos vizinhos registrados que já têm blocos.
// Ligar um par já ligado não faz nada.
func (r *Registry) linkExisting(c *mapdata.Chunk) {
	if !c.Has(mapdata.HasBlocks) {
		return
	}
	for _, f := range util.Faces {
		if c.Neighbor(f) != nil {
			continue
		}
		other := r.Chunk(c.Coord().Add(f.Offset()))
		if other == nil || other.Destroyed() || !other.Has(mapdata.HasBlocks) {
			continue
		}
		c.LinkNeighbor(f, other)
	}
}

// refreshFaceHints pede nova malha para chunks ativos cujo conjunto de faces
// visíveis mudou desde a última instalação.
func (r *Registry) refreshFaceHints() {
	n := float32(r.opts.ChunkSize)
	for el := r.active.Front(); el != nil; el = el.Next() {
		e := el.Value
		if !e.chunk.Has(mapdata.HasMesh) {
			continue
		}
		if hint := facingFaces(e.chunk.Origin().Vec3(), n, r.viewPos); hint != e.faces {
			r.sched.Mesh.Enqueue(e.chunk)
		}
	}
}

// facingFaces retorna as faces que um observador em eye pode ver em algum
// plano do chunk com canto origin e lado n.
func facingFaces(origin mgl32.Vec3, n float32, eye mgl32.Vec3) util.FaceSet {
	set := util.NoFaces
	for _, f := range util.Faces {
		a := f.Axis()
		if f.Positive() {
			if eye[a] > origin[a] {
				set = set.With(f)
			}
		} else if eye[a] < origin[a]+n {
			set = set.With(f)
		}
	}
	return set
}

package terrain

import (
	"fmt"

	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"
)

// populateStage roda num worker de blocos: carrega ou gera e devolve o
// resultado para a thread de controle.
func (r *Registry) populateStage(c *mapdata.Chunk) error {
	if c.Destroyed() {
		return nil
	}
	var load mapdata.LoadFunc
	if r.opts.Store != nil {
		load = r.load
	}
	fromStore, err := c.Populate(load, r.opts.Generator)
	if err != nil {
		return fmt.Errorf("popular %v: %w", c, err)
	}
	r.sched.Main.Post(func() { r.blocksReady(c, fromStore) })
	return nil
}

func (r *Registry) blocksReady(c *mapdata.Chunk, fromStore bool) {
	if c.Destroyed() {
		return
	}
	c.Set(mapdata.HasBlocks)
	r.linkExisting(c)
	if fromStore {
		r.log.Debugf("[Registry] %v carregado do armazenamento", c)
	}
}

// load passa a leitura pela fila de I/O como urgente e espera. Um save ainda
// na fila tem precedência sobre o conteúdo do store.
func (r *Registry) load(coord util.Position3, size int) ([]mapdata.Block, bool, error) {
	if blocks, ok := r.pendingSnapshot(coord); ok {
		return blocks, true, nil
	}

	var (
		blocks []mapdata.Block
		ok     bool
		lerr   error
	)
	err := r.sched.IO.Call(func() error {
		blocks, ok, lerr = r.opts.Store.Load(coord, size)
		return nil
	}, true)
	if err != nil {
		return nil, false, err
	}
	return blocks, ok, lerr
}

// save agenda a gravação de um snapshot dos blocos. Uma falha é repetida uma vez.
func (r *Registry) save(c *mapdata.Chunk) {
	store := r.opts.Store
	if store == nil {
		return
	}
	blocks := c.CopyBlocks()
	if blocks == nil {
		return
	}
	coord := c.Coord()
	p := &pendingSave{blocks: blocks}
	r.saveMu.Lock()
	r.pendingSaves[coord] = p
	r.saveMu.Unlock()

	r.sched.IO.Enqueue(func() error {
		err := store.Save(coord, blocks)
		if err != nil {
			r.log.Warnf("[Persistence] Falha ao salvar chunk %v, tentando de novo: %v", coord, err)
			err = store.Save(coord, blocks)
		}
		if err != nil {
			// O snapshot fica pendente: o chunk recriado ainda enxerga a edição.
			return fmt.Errorf("salvar chunk %v: %w", coord, err)
		}
		r.saveMu.Lock()
		if r.pendingSaves[coord] == p {
			delete(r.pendingSaves, coord)
		}
		r.saveMu.Unlock()
		return nil
	}, false)
}

// pendingSnapshot retorna uma cópia do último snapshot ainda não gravado.
func (r *Registry) pendingSnapshot(coord util.Position3) ([]mapdata.Block, bool) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	p, ok := r.pendingSaves[coord]
	if !ok {
		return nil, false
	}
	return append([]mapdata.Block(nil), p.blocks...), true
}

func (r *Registry) pendingSaveCount() int {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	return len(r.pendingSaves)
}

// meshStage roda num worker de malha.
func (r *Registry) meshStage(c *mapdata.Chunk) error {
	if c.Destroyed() || !c.Has(mapdata.IsActive) || c.LinkedCount() == 0 {
		return nil
	}
	faces := util.AllFaces
	if r.opts.CullHiddenFaces {
		if s := r.sample.Load(); s != nil {
			faces = facingFaces(c.Origin().Vec3(), float32(c.Size()), s.pos)
		}
	}

	rev := c.Revision()
	geo, err := meshing.BuildRender(c, faces)
	if err != nil {
		return fmt.Errorf("malha de %v: %w", c, err)
	}
	r.sched.Main.Post(func() { r.meshReady(c, rev, faces, geo) })
	return nil
}

func (r *Registry) meshReady(c *mapdata.Chunk, rev uint64, faces util.FaceSet, geo meshing.GeometryData) {
	e := r.entry(c.Coord())
	if e == nil || e.chunk != c || c.Destroyed() || !c.Has(mapdata.IsActive) {
		return
	}
	if rev < e.meshRev {
		r.log.Debugf("[Registry] Malha antiga de %v descartada (rev %d < %d)", c, rev, e.meshRev)
		return
	}
	r.renderer.Install(c.Coord(), c.Origin().Vec3(), geo)
	r.renderer.SetVisible(c.Coord(), true)
	e.meshRev, e.faces = rev, faces
	c.Set(mapdata.HasMesh)
}

// collisionStage roda num worker de colisão. A instalação sai pela fila
// Colliders, um chunk por tick.
func (r *Registry) collisionStage(c *mapdata.Chunk) error {
	if c.Destroyed() || !c.Has(mapdata.IsActive) || c.LinkedCount() == 0 {
		return nil
	}
	rev := c.Revision()
	geo, err := meshing.BuildCollision(c)
	if err != nil {
		return fmt.Errorf("colisão de %v: %w", c, err)
	}
	r.sched.Colliders.Post(func() { r.collisionReady(c, rev, geo) })
	return nil
}

func (r *Registry) collisionReady(c *mapdata.Chunk, rev uint64, geo meshing.GeometryData) {
	e := r.entry(c.Coord())
	if e == nil || e.chunk != c || c.Destroyed() || !c.Has(mapdata.IsActive) {
		return
	}
	if rev < e.colRev {
		return
	}
	r.collider.Install(c.Coord(), c.Origin().Vec3(), geo)
	r.collider.SetEnabled(c.Coord(), true)
	e.colRev = rev
	c.Set(mapdata.HasCollisionMesh)
}

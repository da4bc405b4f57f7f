// Package terrain mantém o registro de chunks do mundo e dirige o ciclo de
// vida de cada um (blocos, malha, colisão, ativação) a partir da distância
// até o observador.
package terrain

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/pkg/tasks"
	"VoxelStream/shared/util"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// ErrChunkNotLoaded é retornado por SetBlock quando o chunk não está registrado.
var ErrChunkNotLoaded = errors.New("terrain: chunk não carregado")

// Schedulers são as filas que o registro usa. Criadas por quem monta o
// registro e paradas por Registry.Close.
type Schedulers struct {
	Blocks    *tasks.PriorityQueue[*mapdata.Chunk]
	Mesh      *tasks.PriorityQueue[*mapdata.Chunk]
	Collision *tasks.PriorityQueue[*mapdata.Chunk]
	// IO serializa load/save no store; loads entram como urgentes.
	IO *tasks.TaskQueue
	// Main é drenada inteira a cada tick; Colliders, um item por tick.
	Main      *tasks.MainQueue
	Colliders *tasks.MainQueue
}

// NewSchedulers cria as filas paradas (a de I/O já roda).
func NewSchedulers() *Schedulers {
	return &Schedulers{
		Blocks:    tasks.NewPriorityQueue[*mapdata.Chunk]("blocos", nil),
		Mesh:      tasks.NewPriorityQueue[*mapdata.Chunk]("malha", nil),
		Collision: tasks.NewPriorityQueue[*mapdata.Chunk]("colisao", nil),
		IO:        tasks.NewTaskQueue("persistencia"),
		Main:      tasks.NewMainQueue("principal"),
		Colliders: tasks.NewMainQueue("colisores"),
	}
}

// entry é o estado do registro para um chunk. Só a thread de controle mexe.
type entry struct {
	chunk   *mapdata.Chunk
	meshRev uint64 // revisão da malha instalada
	colRev  uint64
	faces   util.FaceSet // faces da malha instalada
}

type viewSample struct {
	pos, fwd mgl32.Vec3
}

// Registry é dono dos chunks. Tick, Stats e as transições rodam na thread de
// controle; Chunk, Block e SetBlock podem ser chamados de qualquer goroutine.
type Registry struct {
	opts     Options
	sched    *Schedulers
	renderer Renderer
	collider Collider
	view     Viewpoint
	log      *logrus.Entry

	mu     deadlock.RWMutex
	chunks map[util.Position3]*mapdata.Chunk

	active   *orderedmap.OrderedMap[util.Position3, *entry]
	inactive *orderedmap.OrderedMap[util.Position3, *entry]

	// Amostra do observador no tick atual. sample é a cópia lida pelos workers.
	viewPos, viewFwd mgl32.Vec3
	sample           atomic.Pointer[viewSample]

	// Último snapshot de cada chunk cujo save ainda não chegou ao store.
	// load consulta aqui antes do store.
	saveMu       deadlock.Mutex
	pendingSaves map[util.Position3]*pendingSave

	startOnce sync.Once
	closeOnce sync.Once
}

type pendingSave struct {
	blocks []mapdata.Block
}

// New cria o registro. sched nil cria filas novas; renderer e collider nil
// viram implementações vazias.
func New(opts Options, sched *Schedulers, renderer Renderer, collider Collider, view Viewpoint) *Registry {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 16
	}
	if sched == nil {
		sched = NewSchedulers()
	}
	if renderer == nil {
		renderer = nopRenderer{}
	}
	if collider == nil {
		collider = nopCollider{}
	}
	r := &Registry{
		opts:     opts,
		sched:    sched,
		renderer: renderer,
		collider: collider,
		view:     view,
		log:      logrus.WithField("componente", "registry"),
		chunks:   make(map[util.Position3]*mapdata.Chunk),
		active:   orderedmap.NewOrderedMap[util.Position3, *entry](),
		inactive: orderedmap.NewOrderedMap[util.Position3, *entry](),

		pendingSaves: make(map[util.Position3]*pendingSave),
	}
	sched.Blocks.SetPriority(r.priority)
	sched.Mesh.SetPriority(r.priority)
	sched.Collision.SetPriority(r.priority)
	return r
}

// Start inicia os workers das três filas de prioridade.
func (r *Registry) Start() {
	r.startOnce.Do(func() {
		r.sched.Blocks.Start(r.opts.BlockWorkers, r.populateStage)
		r.sched.Mesh.Start(r.opts.MeshWorkers, r.meshStage)
		r.sched.Collision.Start(r.opts.CollisionWorkers, r.collisionStage)
		r.log.Infof("[Registry] Workers iniciados (blocos %d, malha %d, colisão %d)",
			r.opts.BlockWorkers, r.opts.MeshWorkers, r.opts.CollisionWorkers)
	})
}

// Close para os workers e espera os saves pendentes. O store continua aberto.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.sched.Blocks.Stop()
		r.sched.Mesh.Stop()
		r.sched.Collision.Stop()
		r.sched.IO.Flush()
		r.sched.IO.Stop()
		r.log.Infof("[Registry] Encerrado com %d chunks registrados", r.Len())
	})
}

// ChunkSize retorna N.
func (r *Registry) ChunkSize() int32 { return r.opts.ChunkSize }

// Chunk retorna o chunk registrado em coord, ou nil. Nunca cria.
func (r *Registry) Chunk(coord util.Position3) *mapdata.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunks[coord]
}

// Len retorna o número de chunks registrados.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Block retorna o bloco na posição de mundo. Chunks não registrados dão BlockUndefined.
func (r *Registry) Block(world util.Position3) mapdata.Block {
	c := r.Chunk(util.ChunkOf(world, r.opts.ChunkSize))
	if c == nil {
		return mapdata.BlockUndefined
	}
	local := util.LocalOf(world, r.opts.ChunkSize)
	return c.GetBlock(int(local.X), int(local.Y), int(local.Z))
}

// SetBlock altera o bloco na posição de mundo pelo chunk dono.
func (r *Registry) SetBlock(world util.Position3, b mapdata.Block) error {
	coord := util.ChunkOf(world, r.opts.ChunkSize)
	c := r.Chunk(coord)
	if c == nil {
		return fmt.Errorf("%w: %v", ErrChunkNotLoaded, coord)
	}
	local := util.LocalOf(world, r.opts.ChunkSize)
	return c.SetBlock(int(local.X), int(local.Y), int(local.Z), b)
}

// ensure retorna o chunk em coord, criando, registrando e enfileirando a
// geração se ainda não existir.
func (r *Registry) ensure(coord util.Position3) (*mapdata.Chunk, bool) {
	r.mu.Lock()
	if c, ok := r.chunks[coord]; ok {
		r.mu.Unlock()
		return c, false
	}
	c := mapdata.NewChunk(coord, r.opts.ChunkSize, r)
	r.chunks[coord] = c
	r.mu.Unlock()

	r.inactive.Set(coord, &entry{chunk: c})
	r.sched.Blocks.Enqueue(c)
	return c, true
}

func (r *Registry) entry(coord util.Position3) *entry {
	if e, ok := r.active.Get(coord); ok {
		return e
	}
	if e, ok := r.inactive.Get(coord); ok {
		return e
	}
	return nil
}

// BlocksChanged pede nova malha e nova colisão para chunks ativos.
func (r *Registry) BlocksChanged(c *mapdata.Chunk) {
	if c.Destroyed() || !c.Has(mapdata.IsActive) {
		return
	}
	r.sched.Mesh.Enqueue(c)
	r.sched.Collision.Enqueue(c)
}

// BlocksEdited agenda a persistência do chunk editado.
func (r *Registry) BlocksEdited(c *mapdata.Chunk) {
	r.save(c)
}

func (r *Registry) enqueueGeometry(c *mapdata.Chunk) {
	r.sched.Mesh.Enqueue(c)
	r.sched.Collision.Enqueue(c)
}

// cancel retira o chunk de todas as filas de prioridade.
func (r *Registry) cancel(c *mapdata.Chunk) {
	r.sched.Blocks.Dequeue(c)
	r.sched.Mesh.Dequeue(c)
	r.sched.Collision.Dequeue(c)
}

// priority favorece chunks próximos e à frente do observador.
func (r *Registry) priority(c *mapdata.Chunk) float32 {
	toCenter := c.Center().Sub(r.viewPos)
	d2 := toCenter.LenSqr()
	var align float32
	if d2 > 0 {
		align = r.viewFwd.Dot(toCenter.Normalize())
	}
	return (align + 2) / max(d2, 1)
}

// Stats é uma fotografia do registro e das filas.
type Stats struct {
	Chunks           int
	Active           int
	Inactive         int
	PendingBlocks    int
	PendingMesh      int
	PendingCollision int
	PendingIO        int
	PendingMain      int
	PendingColliders int
	PendingSaves     int
}

func (s Stats) String() string {
	return fmt.Sprintf("chunks=%d ativos=%d inativos=%d fila[blocos=%d malha=%d colisão=%d io=%d main=%d colisores=%d] saves=%d",
		s.Chunks, s.Active, s.Inactive, s.PendingBlocks, s.PendingMesh, s.PendingCollision,
		s.PendingIO, s.PendingMain, s.PendingColliders, s.PendingSaves)
}

// Stats deve ser chamado na thread de controle.
func (r *Registry) Stats() Stats {
	return Stats{
		Chunks:           r.Len(),
		Active:           r.active.Len(),
		Inactive:         r.inactive.Len(),
		PendingBlocks:    r.sched.Blocks.Len(),
		PendingMesh:      r.sched.Mesh.Len(),
		PendingCollision: r.sched.Collision.Len(),
		PendingIO:        r.sched.IO.Len(),
		PendingMain:      r.sched.Main.Len(),
		PendingColliders: r.sched.Colliders.Len(),
		PendingSaves:     r.pendingSaveCount(),
	}
}

package mapdata

import (
	"errors"
	"fmt"
	"sync/atomic"

	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
)

var (
	ErrNotPopulated = errors.New("mapdata: chunk sem blocos")
	ErrOutOfRange   = errors.New("mapdata: posição fora do chunk")
	ErrInvalidBlock = errors.New("mapdata: tipo de bloco inválido")
	ErrSizeMismatch = errors.New("mapdata: tamanho do array de blocos incorreto")
)

// Flags são os bits de estado de um chunk. Vários podem estar ativos ao mesmo tempo.
type Flags uint32

const (
	HasBlocks Flags = 1 << iota
	HasMesh
	HasCollisionMesh
	IsActive
)

func (f Flags) String() string {
	names := []string{"HasBlocks", "HasMesh", "HasCollisionMesh", "IsActive"}
	out := ""
	for i, n := range names {
		if f&(1<<i) != 0 {
			if out != "" {
				out += "|"
			}
			out += n
		}
	}
	if out == "" {
		return "0"
	}
	return out
}

// Listener recebe as notificações de um chunk. Implementado pelo registro do mundo.
type Listener interface {
	// BlocksChanged é chamado quando a superfície visível do chunk pode ter mudado.
	BlocksChanged(c *Chunk)
	// BlocksEdited é chamado depois de SetBlock, para persistir o chunk.
	BlocksEdited(c *Chunk)
}

// Chunk é um cubo N×N×N de blocos, indexado x + N*(y + N*z).
type Chunk struct {
	coord    util.Position3
	size     int32
	center   mgl32.Vec3
	listener Listener

	mu     deadlock.RWMutex
	blocks []Block // nil até ser populado

	nmu       deadlock.RWMutex
	neighbors [util.FaceCount]*Chunk

	flags     atomic.Uint32
	revision  atomic.Uint64
	destroyed atomic.Bool
}

// NewChunk cria um chunk vazio (todas as flags limpas) na coordenada de chunk coord.
func NewChunk(coord util.Position3, size int32, listener Listener) *Chunk {
	origin := coord.Scale(size).Vec3()
	half := float32(size) / 2
	return &Chunk{
		coord:    coord,
		size:     size,
		center:   origin.Add(mgl32.Vec3{half, half, half}),
		listener: listener,
	}
}

// Coord retorna a coordenada do chunk.
func (c *Chunk) Coord() util.Position3 { return c.coord }

// Size retorna N.
func (c *Chunk) Size() int { return int(c.size) }

// Center retorna o centro do chunk em coordenadas de mundo.
func (c *Chunk) Center() mgl32.Vec3 { return c.center }

// Origin retorna o voxel de mundo do canto (0,0,0) do chunk.
func (c *Chunk) Origin() util.Position3 { return c.coord.Scale(c.size) }

func (c *Chunk) String() string {
	return fmt.Sprintf("chunk%v", c.coord)
}

// Flags retorna o estado atual.
func (c *Chunk) Flags() Flags { return Flags(c.flags.Load()) }

// Has verifica se todas as flags f estão ativas.
func (c *Chunk) Has(f Flags) bool { return Flags(c.flags.Load())&f == f }

// Set ativa flags. Só a thread de controle altera flags.
func (c *Chunk) Set(f Flags) { c.flags.Or(uint32(f)) }

// Clear desativa flags.
func (c *Chunk) Clear(f Flags) { c.flags.And(^uint32(f)) }

// Revision é incrementada a cada mudança de blocos ou de vizinhança.
func (c *Chunk) Revision() uint64 { return c.revision.Load() }

// Destroyed indica se o chunk já saiu do registro.
func (c *Chunk) Destroyed() bool { return c.destroyed.Load() }

// MarkDestroyed marca o chunk como destruído. Retorna false se já estava.
func (c *Chunk) MarkDestroyed() bool { return c.destroyed.CompareAndSwap(false, true) }

func (c *Chunk) index(x, y, z int) int {
	n := int(c.size)
	return x + n*(y+n*z)
}

func (c *Chunk) inRange(x, y, z int) bool {
	n := int(c.size)
	return x >= 0 && y >= 0 && z >= 0 && x < n && y < n && z < n
}

// GetBlock retorna o bloco na posição local. Fora dos limites a consulta segue
// para o vizinho com a coordenada ajustada; sem vizinho retorna BlockUndefined.
// Dentro dos limites, antes de popular, retorna BlockEmpty.
func (c *Chunk) GetBlock(x, y, z int) Block {
	if c.inRange(x, y, z) {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.blocks == nil {
			return BlockEmpty
		}
		return c.blocks[c.index(x, y, z)]
	}

	n := int(c.size)
	var face util.Face
	switch {
	case x < 0:
		face, x = util.FaceNegX, x+n
	case x >= n:
		face, x = util.FacePosX, x-n
	case y < 0:
		face, y = util.FaceNegY, y+n
	case y >= n:
		face, y = util.FacePosY, y-n
	case z < 0:
		face, z = util.FaceNegZ, z+n
	default:
		face, z = util.FacePosZ, z-n
	}

	other := c.Neighbor(face)
	if other == nil {
		return BlockUndefined
	}
	return other.GetBlock(x, y, z)
}

// SetBlock grava um bloco, pede nova malha para o chunk e para os vizinhos
// de borda afetados, e por fim pede a persistência.
func (c *Chunk) SetBlock(x, y, z int, b Block) error {
	if !c.inRange(x, y, z) {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrOutOfRange, x, y, z)
	}
	if !b.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidBlock, b)
	}
	if !c.Has(HasBlocks) {
		return ErrNotPopulated
	}

	c.mu.Lock()
	if c.blocks == nil {
		c.mu.Unlock()
		return ErrNotPopulated
	}
	c.blocks[c.index(x, y, z)] = b
	c.mu.Unlock()

	c.NotifyBlocksChanged()

	last := int(c.size) - 1
	pos := [3]int{x, y, z}
	for axis, v := range pos {
		var face util.Face
		switch v {
		case 0:
			face = util.Face(axis*2 + 1) // lado negativo
		case last:
			face = util.Face(axis * 2)
		default:
			continue
		}
		if other := c.Neighbor(face); other != nil {
			other.NotifyBlocksChanged()
		}
		if last == 0 {
			// N == 1: a posição toca os dois lados do eixo.
			if other := c.Neighbor(face.Opposite()); other != nil {
				other.NotifyBlocksChanged()
			}
		}
	}

	if c.listener != nil {
		c.listener.BlocksEdited(c)
	}
	return nil
}

// NotifyBlocksChanged avisa que a superfície deste chunk pode ter mudado.
func (c *Chunk) NotifyBlocksChanged() {
	c.revision.Add(1)
	if c.listener != nil {
		c.listener.BlocksChanged(c)
	}
}

// Fill instala um array de blocos completo (resultado de load ou geração).
// O array passa a pertencer ao chunk.
func (c *Chunk) Fill(blocks []Block) error {
	n := int(c.size)
	if len(blocks) != n*n*n {
		return fmt.Errorf("%w: %d, esperado %d", ErrSizeMismatch, len(blocks), n*n*n)
	}
	c.mu.Lock()
	c.blocks = blocks
	c.mu.Unlock()
	c.revision.Add(1)
	return nil
}

// CopyBlocks retorna uma cópia dos blocos, ou nil se ainda não populado.
func (c *Chunk) CopyBlocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.blocks == nil {
		return nil
	}
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Populate carrega os blocos pelo load (se houver) ou gera com gen.
// Falhas de leitura contam como cache miss. Retorna true se veio do armazenamento.
// HasBlocks fica a cargo de quem chama, na thread de controle.
func (c *Chunk) Populate(load LoadFunc, gen Generator) (fromStore bool, err error) {
	if load != nil {
		blocks, ok, lerr := load(c.coord, int(c.size))
		if lerr == nil && ok {
			if lerr = c.Fill(blocks); lerr == nil {
				return true, nil
			}
		}
		if lerr != nil {
			logStoreMiss(c.coord, lerr)
		}
	}
	return false, c.Fill(gen.Generate(c.coord, c.size))
}

// LoadFunc lê o array de blocos de um chunk. ok = false indica ausência.
type LoadFunc func(coord util.Position3, size int) (blocks []Block, ok bool, err error)

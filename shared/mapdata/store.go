package mapdata

import (
	"fmt"

	"VoxelStream/shared/util"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// ChunkStore guarda o array de blocos de um chunk (um byte por voxel),
// comprimido de forma opaca. Load com ok = false é um cache miss.
type ChunkStore interface {
	Save(coord util.Position3, blocks []Block) error
	Load(coord util.Position3, size int) (blocks []Block, ok bool, err error)
	Close() error
}

// OpenStore abre o backend pelo nome: "sqlite", "files", "memory" ou "none".
// "none" retorna nil (só geração procedural).
func OpenStore(kind, dir, worldName string) (ChunkStore, error) {
	switch kind {
	case "sqlite":
		s, err := OpenSQLiteStore(dir, worldName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "files":
		s, err := NewFileStore(dir, worldName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("mapdata: backend de armazenamento desconhecido %q", kind)
}

func logStoreMiss(coord util.Position3, err error) {
	logrus.Warnf("[Persistence] Falha ao ler chunk %v, gerando proceduralmente: %v", coord, err)
}

type memoryEntry struct {
	data   []byte
	digest uint64
}

// MemoryStore mantém os chunks comprimidos em memória.
type MemoryStore struct {
	mu     deadlock.RWMutex
	chunks map[util.Position3]memoryEntry
}

// NewMemoryStore cria um store vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[util.Position3]memoryEntry)}
}

func (s *MemoryStore) Save(coord util.Position3, blocks []Block) error {
	data, digest, err := EncodeBlocks(blocks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[coord] = memoryEntry{data: data, digest: digest}
	return nil
}

func (s *MemoryStore) Load(coord util.Position3, size int) ([]Block, bool, error) {
	s.mu.RLock()
	e, ok := s.chunks[coord]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	blocks, err := DecodeBlocks(e.data, size, e.digest)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

// Len retorna quantos chunks estão salvos.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *MemoryStore) Close() error { return nil }

package mapdata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"VoxelStream/shared/pkg/protowire"
	"VoxelStream/shared/util"
)

// Campos do registro de chunk em disco.
const (
	fieldX      = 1
	fieldY      = 2
	fieldZ      = 3
	fieldSize   = 4
	fieldBlocks = 5
	fieldDigest = 6
)

// FileStore grava um arquivo por chunk (dir/mundo/x_y_z.chunk) contendo um
// registro protowire com as coordenadas, N, os blocos comprimidos e o digest.
type FileStore struct {
	dir string
}

// NewFileStore cria o diretório do mundo se necessário.
func NewFileStore(dir, worldName string) (*FileStore, error) {
	path := filepath.Join(dir, worldName)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: path}, nil
}

func (s *FileStore) path(coord util.Position3) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%d_%d.chunk", coord.X, coord.Y, coord.Z))
}

// Save grava o registro num arquivo temporário e renomeia por cima do anterior.
func (s *FileStore) Save(coord util.Position3, blocks []Block) error {
	data, digest, err := EncodeBlocks(blocks)
	if err != nil {
		return err
	}

	e := protowire.NewEncoder(len(data) + 32)
	e.EncodeSint(fieldX, int64(coord.X))
	e.EncodeSint(fieldY, int64(coord.Y))
	e.EncodeSint(fieldZ, int64(coord.Z))
	e.EncodeUvarint(fieldSize, uint64(cubeRoot(len(blocks))))
	e.EncodeBytes(fieldBlocks, data)
	e.EncodeFixed64(fieldDigest, digest)

	final := s.path(coord)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, e.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// Load lê o arquivo do chunk. Arquivo ausente é cache miss.
func (s *FileStore) Load(coord util.Position3, size int) ([]Block, bool, error) {
	raw, err := os.ReadFile(s.path(coord))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var (
		got       util.Position3
		savedSize uint64
		data      []byte
		digest    uint64
	)
	d := protowire.NewDecoder(raw)
	for !d.Done() {
		field, wire, err := d.ReadTag()
		if err != nil {
			return nil, false, err
		}
		var v int64
		switch field {
		case fieldX, fieldY, fieldZ:
			v, err = d.ReadSint()
			switch field {
			case fieldX:
				got.X = int32(v)
			case fieldY:
				got.Y = int32(v)
			default:
				got.Z = int32(v)
			}
		case fieldSize:
			savedSize, err = d.ReadUvarint()
		case fieldBlocks:
			data, err = d.ReadBytes()
		case fieldDigest:
			digest, err = d.ReadFixed64()
		default:
			err = d.SkipField(wire)
		}
		if err != nil {
			return nil, false, fmt.Errorf("registro de %v: %w", coord, err)
		}
	}

	if got != coord {
		return nil, false, fmt.Errorf("registro de %v contém %v", coord, got)
	}
	if int(savedSize) != size {
		return nil, false, fmt.Errorf("%w: %v salvo com N=%d", ErrSizeMismatch, coord, savedSize)
	}
	blocks, err := DecodeBlocks(data, size, digest)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

func (s *FileStore) Close() error { return nil }

package mapdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"VoxelStream/shared/util"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChunkModel representa o esquema do banco de dados para um chunk
type ChunkModel struct {
	ID        string    `gorm:"primaryKey"` // Coordenada formatada "X_Y_Z"
	X, Y, Z   int32     `gorm:"index:idx_pos"`
	Size      int32     // Aresta N do chunk
	Data      []byte    // Blocos comprimidos com zstd
	Digest    int64     // xxh3 dos blocos crus (bits reinterpretados)
	UpdatedAt time.Time // Para controle interno do GORM
}

// WorldMetadata armazena informações globais do mundo no banco
type WorldMetadata struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const CurrentFormatVersion = 3

// SQLiteStore persiste chunks numa tabela SQLite através do GORM.
type SQLiteStore struct {
	DB   *gorm.DB
	path string
}

// OpenSQLiteStore abre (ou cria) o banco de dados do mundo e roda migrações.
func OpenSQLiteStore(dir, worldName string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("%s.vs", worldName))

	// Logger silencioso: erros já são tratados e registrados aqui
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no SQLite: %w", err)
	}

	if err := db.AutoMigrate(&ChunkModel{}, &WorldMetadata{}); err != nil {
		return nil, fmt.Errorf("falha na migração do banco: %w", err)
	}

	db.Save(&WorldMetadata{Key: "FormatVersion", Value: fmt.Sprint(CurrentFormatVersion)})
	db.Save(&WorldMetadata{Key: "WorldName", Value: worldName})

	logrus.Infof("[Persistence] Banco de dados SQLite aberto: %s", dbPath)
	return &SQLiteStore{DB: db, path: dbPath}, nil
}

func chunkID(coord util.Position3) string {
	return fmt.Sprintf("%d_%d_%d", coord.X, coord.Y, coord.Z)
}

// Save grava (upsert) os blocos de um chunk.
func (s *SQLiteStore) Save(coord util.Position3, blocks []Block) error {
	data, digest, err := EncodeBlocks(blocks)
	if err != nil {
		return err
	}

	size := cubeRoot(len(blocks))
	model := ChunkModel{
		ID:     chunkID(coord),
		X:      coord.X,
		Y:      coord.Y,
		Z:      coord.Z,
		Size:   int32(size),
		Data:   data,
		Digest: int64(digest),
	}

	if err := s.DB.Save(&model).Error; err != nil {
		return fmt.Errorf("salvar chunk %s: %w", model.ID, err)
	}
	return nil
}

// Load lê um chunk. Registro inexistente é um cache miss sem erro.
func (s *SQLiteStore) Load(coord util.Position3, size int) ([]Block, bool, error) {
	var model ChunkModel
	err := s.DB.First(&model, "id = ?", chunkID(coord)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if int(model.Size) != size {
		return nil, false, fmt.Errorf("%w: chunk %s salvo com N=%d", ErrSizeMismatch, model.ID, model.Size)
	}

	blocks, err := DecodeBlocks(model.Data, size, uint64(model.Digest))
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

// Count retorna quantos chunks existem no banco.
func (s *SQLiteStore) Count() int64 {
	var count int64
	s.DB.Model(&ChunkModel{}).Count(&count)
	return count
}

// Close fecha a conexão com o banco de dados SQLite.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	logrus.Infof("[Persistence] Fechando banco de dados SQLite %s", s.path)
	return sqlDB.Close()
}

func cubeRoot(n int) int {
	r := 0
	for (r+1)*(r+1)*(r+1) <= n {
		r++
	}
	return r
}

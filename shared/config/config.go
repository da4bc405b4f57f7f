package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON []byte

// Config armazena as configurações do VoxelStream.
type Config struct {
	// Janela
	WindowWidth  int32  `json:"window_width" yaml:"window_width"`
	WindowHeight int32  `json:"window_height" yaml:"window_height"`
	WindowTitle  string `json:"window_title" yaml:"window_title"`
	Fullscreen   bool   `json:"fullscreen" yaml:"fullscreen"`
	TargetFPS    int32  `json:"target_fps" yaml:"target_fps"`

	// Chunks e streaming (distâncias em voxels, medidas até o centro do chunk)
	ChunkSize        int32   `json:"chunk_size" yaml:"chunk_size"`
	DisplayDistance  float32 `json:"display_distance" yaml:"display_distance"`
	DisableDistance  float32 `json:"disable_distance" yaml:"disable_distance"`
	DestroyDistance  float32 `json:"destroy_distance" yaml:"destroy_distance"`
	BlockWorkers     int     `json:"block_workers" yaml:"block_workers"`
	MeshWorkers      int     `json:"mesh_workers" yaml:"mesh_workers"`
	CollisionWorkers int     `json:"collision_workers" yaml:"collision_workers"`
	CullHiddenFaces  bool    `json:"cull_hidden_faces" yaml:"cull_hidden_faces"`
	TickRate         float32 `json:"tick_rate" yaml:"tick_rate"` // Ticks por segundo no modo headless

	// Terreno
	Terrain        string  `json:"terrain" yaml:"terrain"`
	Seed           uint64  `json:"seed" yaml:"seed"`
	NoiseFrequency float64 `json:"noise_frequency" yaml:"noise_frequency"`

	// Persistência
	Store     string `json:"store" yaml:"store"`
	SaveDir   string `json:"save_dir" yaml:"save_dir"`
	WorldName string `json:"world_name" yaml:"world_name"`

	// Câmera
	CameraSpeed       float32 `json:"camera_speed" yaml:"camera_speed"`
	CameraSensitivity float32 `json:"camera_sensitivity" yaml:"camera_sensitivity"`
	FOV               float32 `json:"fov" yaml:"fov"`

	// Debug
	ShowDebugInfo bool   `json:"show_debug_info" yaml:"show_debug_info"`
	WireframeMode bool   `json:"wireframe_mode" yaml:"wireframe_mode"`
	LogLevel      string `json:"log_level" yaml:"log_level"`
	StatsAddr     string `json:"stats_addr" yaml:"stats_addr"` // Vazio desliga o statsview
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "VoxelStream",
		Fullscreen:   false,
		TargetFPS:    60,

		ChunkSize:        16,
		DisplayDistance:  64,
		DisableDistance:  80,
		DestroyDistance:  112,
		BlockWorkers:     2,
		MeshWorkers:      3,
		CollisionWorkers: 1,
		CullHiddenFaces:  false,
		TickRate:         30,

		Terrain:        "sine",
		Seed:           1,
		NoiseFrequency: 1,

		Store:     "sqlite",
		SaveDir:   "saves",
		WorldName: "mundo",

		CameraSpeed:       12.0,
		CameraSensitivity: 0.3,
		FOV:               70.0,

		ShowDebugInfo: true,
		WireframeMode: false,
		LogLevel:      "info",
	}
}

// DefaultPath retorna config.json ao lado do executável.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execPath), "config.json")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if schemaErr = c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); schemaErr != nil {
			return
		}
		schema, schemaErr = c.Compile("config.schema.json")
	})
	return schema, schemaErr
}

// Load carrega as configurações de um arquivo JSON ou YAML (pela extensão).
// Se o arquivo não existir, retorna as configurações padrão.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Infof("[Config] %s não encontrado, usando padrões", path)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := Decode(data, isYAML(path), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode valida o documento contra o schema e o aplica sobre cfg.
func Decode(data []byte, asYAML bool, cfg *Config) error {
	var doc interface{}
	if asYAML {
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return err
		}
		// Normaliza tipos do YAML (int, map[string]any) para os do JSON.
		js, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		data = js
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.normalize()
	return cfg.Validate()
}

func (c *Config) normalize() {
	if c.ChunkSize == 0 {
		logrus.Warnf("[Config] chunk_size 0, usando 16")
		c.ChunkSize = 16
	}
}

// Validate verifica as relações entre campos que o schema não expressa.
func (c *Config) Validate() error {
	if !(c.DisplayDistance < c.DisableDistance && c.DisableDistance < c.DestroyDistance) {
		return fmt.Errorf("distâncias devem obedecer display < disable < destroy (%.1f, %.1f, %.1f)",
			c.DisplayDistance, c.DisableDistance, c.DestroyDistance)
	}
	if c.DisplayDistance <= float32(c.ChunkSize) {
		return fmt.Errorf("display_distance (%.1f) precisa ser maior que chunk_size (%d)",
			c.DisplayDistance, c.ChunkSize)
	}
	// Vizinhos criados na ativação ficam até um chunk além de display.
	if c.DestroyDistance <= c.DisplayDistance+float32(c.ChunkSize) {
		return fmt.Errorf("destroy_distance (%.1f) precisa ser maior que display_distance + chunk_size (%.1f)",
			c.DestroyDistance, c.DisplayDistance+float32(c.ChunkSize))
	}
	return nil
}

// Save salva as configurações no formato indicado pela extensão.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

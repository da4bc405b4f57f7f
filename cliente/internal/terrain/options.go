package terrain

import (
	"fmt"
	"runtime"

	"VoxelStream/shared/config"
	"VoxelStream/shared/mapdata"
)

// Options configura o registro. Distâncias em voxels até o centro do chunk.
type Options struct {
	ChunkSize       int32
	DisplayDistance float32
	DisableDistance float32
	DestroyDistance float32

	BlockWorkers     int
	MeshWorkers      int
	CollisionWorkers int

	// CullHiddenFaces gera a malha de render só com as faces voltadas para o observador.
	CullHiddenFaces bool

	Generator mapdata.Generator
	// Store pode ser nil: os chunks são sempre gerados.
	Store mapdata.ChunkStore
}

// OptionsFromConfig monta as opções a partir da configuração. O store fica a
// cargo de quem chama.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}

	var density mapdata.Density
	switch cfg.Terrain {
	case "sine", "":
		density = mapdata.DefaultSine()
	case "noise":
		density = mapdata.DefaultNoise(cfg.Seed)
	default:
		return Options{}, fmt.Errorf("terrain: gerador desconhecido %q", cfg.Terrain)
	}

	return Options{
		ChunkSize:        cfg.ChunkSize,
		DisplayDistance:  cfg.DisplayDistance,
		DisableDistance:  cfg.DisableDistance,
		DestroyDistance:  cfg.DestroyDistance,
		BlockWorkers:     workers(cfg.BlockWorkers),
		MeshWorkers:      workers(cfg.MeshWorkers),
		CollisionWorkers: workers(cfg.CollisionWorkers),
		CullHiddenFaces:  cfg.CullHiddenFaces,
		Generator:        mapdata.Generator{Density: density, Frequency: cfg.NoiseFrequency},
	}, nil
}

func workers(n int) int {
	if n < 1 {
		return 1
	}
	if cpus := runtime.NumCPU(); n > cpus {
		return cpus
	}
	return n
}

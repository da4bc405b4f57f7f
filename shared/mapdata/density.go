package mapdata

import (
	"math"

	"VoxelStream/shared/util"
)

// Density é a função de forma do terreno: determinística, sem estado.
// Valores positivos são sólidos.
type Density interface {
	Density(x, y, z float64) float64
}

// DensityFunc adapta uma função comum para Density.
type DensityFunc func(x, y, z float64) float64

func (f DensityFunc) Density(x, y, z float64) float64 { return f(x, y, z) }

// SineTerrain é o terreno ondulado clássico: altura = sin((x+z)/Wavelength) * Amplitude.
type SineTerrain struct {
	Amplitude  float64
	Wavelength float64
}

// DefaultSine retorna o SineTerrain padrão (amplitude 5, comprimento 20).
func DefaultSine() SineTerrain {
	return SineTerrain{Amplitude: 5, Wavelength: 20}
}

func (s SineTerrain) Density(x, y, z float64) float64 {
	return math.Sin((x+z)/s.Wavelength)*s.Amplitude - y
}

// NoiseTerrain soma oitavas de value noise 3D a um gradiente de altura.
// Abaixo de BaseHeight tende a sólido, acima tende a vazio.
type NoiseTerrain struct {
	Seed       uint64
	Octaves    int
	Amplitude  float64 // amplitude da primeira oitava, em voxels
	BaseHeight float64
	Scale      float64 // comprimento de onda da primeira oitava, em voxels
}

// DefaultNoise retorna um NoiseTerrain com parâmetros razoáveis para a semente dada.
func DefaultNoise(seed uint64) NoiseTerrain {
	return NoiseTerrain{Seed: seed, Octaves: 4, Amplitude: 12, BaseHeight: 0, Scale: 48}
}

func (n NoiseTerrain) Density(x, y, z float64) float64 {
	sum := 0.0
	amp := n.Amplitude
	freq := 1 / n.Scale
	for o := 0; o < n.Octaves; o++ {
		sum += amp * (valueNoise(x*freq, y*freq, z*freq, n.Seed+uint64(o))*2 - 1)
		amp *= 0.5
		freq *= 2
	}
	return sum + n.BaseHeight - y
}

// valueNoise interpola trilinearmente valores pseudoaleatórios em [0,1) da grade inteira.
func valueNoise(x, y, z float64, seed uint64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	tx, ty, tz := smooth(x-x0), smooth(y-y0), smooth(z-z0)
	ix, iy, iz := int32(x0), int32(y0), int32(z0)

	lattice := func(dx, dy, dz int32) float64 {
		h := util.NewPosition3(ix+dx, iy+dy, iz+dz).HashSeed(seed)
		return float64(h>>11) / (1 << 53)
	}

	c00 := lerp(lattice(0, 0, 0), lattice(1, 0, 0), tx)
	c10 := lerp(lattice(0, 1, 0), lattice(1, 1, 0), tx)
	c01 := lerp(lattice(0, 0, 1), lattice(1, 0, 1), tx)
	c11 := lerp(lattice(0, 1, 1), lattice(1, 1, 1), tx)
	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Generator preenche chunks a partir de uma Density amostrada em coordenadas
// de mundo multiplicadas por Frequency.
type Generator struct {
	Density   Density
	Frequency float64
}

// Generate calcula o array de blocos do chunk coord. O voxel sólido com vazio
// logo acima vira terra; o resto vira rocha.
func (g Generator) Generate(coord util.Position3, size int32) []Block {
	n := int(size)
	freq := g.Frequency
	if freq == 0 {
		freq = 1
	}
	origin := coord.Scale(size)
	blocks := make([]Block, n*n*n)
	column := make([]bool, n+1)

	for z := 0; z < n; z++ {
		wz := float64(int(origin.Z) + z)
		for x := 0; x < n; x++ {
			wx := float64(int(origin.X) + x)
			for y := 0; y <= n; y++ {
				wy := float64(int(origin.Y) + y)
				column[y] = g.Density.Density(wx*freq, wy*freq, wz*freq) > 0
			}
			for y := 0; y < n; y++ {
				if !column[y] {
					continue
				}
				b := BlockRock
				if !column[y+1] {
					b = BlockDirt
				}
				blocks[x+n*(y+n*z)] = b
			}
		}
	}
	return blocks
}

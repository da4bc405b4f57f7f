package util

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeebo/xxh3"
)

// Position3 é uma coordenada inteira 3D.
// Serve tanto para coordenadas de voxel no mundo quanto para coordenadas de chunk.
type Position3 struct {
	X, Y, Z int32
}

// NewPosition3 cria uma nova coordenada.
func NewPosition3(x, y, z int32) Position3 {
	return Position3{X: x, Y: y, Z: z}
}

// Add soma duas coordenadas.
func (p Position3) Add(other Position3) Position3 {
	return Position3{
		X: p.X + other.X,
		Y: p.Y + other.Y,
		Z: p.Z + other.Z,
	}
}

// Sub subtrai duas coordenadas.
func (p Position3) Sub(other Position3) Position3 {
	return Position3{
		X: p.X - other.X,
		Y: p.Y - other.Y,
		Z: p.Z - other.Z,
	}
}

// Scale multiplica todos os eixos por um escalar.
func (p Position3) Scale(s int32) Position3 {
	return Position3{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// FloorDiv divide cada eixo por n arredondando para -infinito.
// (-1).FloorDiv(16) == -1, ao contrário da divisão truncada do Go.
func (p Position3) FloorDiv(n int32) Position3 {
	return Position3{X: floorDiv(p.X, n), Y: floorDiv(p.Y, n), Z: floorDiv(p.Z, n)}
}

// FloorMod retorna o resto sempre no intervalo [0, n).
func (p Position3) FloorMod(n int32) Position3 {
	return Position3{X: floorMod(p.X, n), Y: floorMod(p.Y, n), Z: floorMod(p.Z, n)}
}

func floorDiv(a, n int32) int32 {
	q := a / n
	if (a%n != 0) && ((a < 0) != (n < 0)) {
		q--
	}
	return q
}

func floorMod(a, n int32) int32 {
	m := a % n
	if m != 0 && ((m < 0) != (n < 0)) {
		m += n
	}
	return m
}

// Equals verifica igualdade entre coordenadas.
func (p Position3) Equals(other Position3) bool {
	return p.X == other.X && p.Y == other.Y && p.Z == other.Z
}

// Less define a ordem total lexicográfica (x, depois y, depois z).
func (p Position3) Less(other Position3) bool {
	if p.X != other.X {
		return p.X < other.X
	}
	if p.Y != other.Y {
		return p.Y < other.Y
	}
	return p.Z < other.Z
}

// Hash retorna um hash estável de 64 bits da coordenada.
func (p Position3) Hash() uint64 {
	return p.HashSeed(0)
}

// HashSeed é o Hash misturado com uma semente (usado pelo ruído de terreno).
func (p Position3) HashSeed(seed uint64) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(p.X))
	binary.LittleEndian.PutUint32(buf[4:], uint32(p.Y))
	binary.LittleEndian.PutUint32(buf[8:], uint32(p.Z))
	return xxh3.HashSeed(buf[:], seed)
}

// String retorna a representação em string da coordenada.
func (p Position3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Vec3 converte para vetor float.
func (p Position3) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}

// FromVec3 retorna o voxel que contém a posição v.
func FromVec3(v mgl32.Vec3) Position3 {
	return Position3{
		X: int32(math32.Floor(v[0])),
		Y: int32(math32.Floor(v[1])),
		Z: int32(math32.Floor(v[2])),
	}
}

// ChunkOf retorna a coordenada do chunk que contém o voxel world.
func ChunkOf(world Position3, n int32) Position3 {
	return world.FloorDiv(n)
}

// LocalOf retorna a coordenada local (0..n-1) do voxel dentro do seu chunk.
func LocalOf(world Position3, n int32) Position3 {
	return world.FloorMod(n)
}

// Face é uma das seis direções alinhadas aos eixos.
// A ordem é a dos slots de vizinhos de um chunk: +x, -x, +y, -y, +z, -z.
type Face uint8

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ

	FaceCount = 6
)

var faceOffsets = [FaceCount]Position3{
	FacePosX: {X: 1},
	FaceNegX: {X: -1},
	FacePosY: {Y: 1},
	FaceNegY: {Y: -1},
	FacePosZ: {Z: 1},
	FaceNegZ: {Z: -1},
}

var faceNames = [FaceCount]string{"+x", "-x", "+y", "-y", "+z", "-z"}

// Faces lista todas as direções na ordem dos slots.
var Faces = [FaceCount]Face{FacePosX, FaceNegX, FacePosY, FaceNegY, FacePosZ, FaceNegZ}

// Offset retorna o deslocamento unitário da direção.
func (f Face) Offset() Position3 {
	return faceOffsets[f]
}

// Opposite retorna a direção oposta (+x <-> -x ...).
func (f Face) Opposite() Face {
	return f ^ 1
}

// Axis retorna o eixo da normal: 0 = x, 1 = y, 2 = z.
func (f Face) Axis() int {
	return int(f) / 2
}

// Positive indica se a normal aponta para o lado positivo do eixo.
func (f Face) Positive() bool {
	return f&1 == 0
}

// Normal retorna a normal como vetor float.
func (f Face) Normal() mgl32.Vec3 {
	return faceOffsets[f].Vec3()
}

func (f Face) String() string {
	if int(f) < FaceCount {
		return faceNames[f]
	}
	return fmt.Sprintf("Face(%d)", f)
}

// FaceSet é um bitset de direções.
type FaceSet uint8

const (
	NoFaces  FaceSet = 0
	AllFaces FaceSet = 1<<FaceCount - 1
)

// Has verifica se uma direção está no conjunto.
func (s FaceSet) Has(f Face) bool {
	return s&(1<<f) != 0
}

// With retorna o conjunto com a direção incluída.
func (s FaceSet) With(f Face) FaceSet {
	return s | 1<<f
}

// Axis retorna o componente do eixo i (0 = x, 1 = y, 2 = z).
func (p Position3) Axis(i int) int32 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// WithAxis retorna uma cópia com o eixo i substituído.
func (p Position3) WithAxis(i int, v int32) Position3 {
	switch i {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

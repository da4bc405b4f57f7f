package terrain

import (
	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer recebe a malha de render de cada chunk. Todas as chamadas vêm da
// thread de controle.
type Renderer interface {
	// Install substitui qualquer malha já instalada para coord.
	// origin é a posição de mundo do canto (0,0,0) do chunk.
	Install(coord util.Position3, origin mgl32.Vec3, geo meshing.GeometryData)
	SetVisible(coord util.Position3, visible bool)
	Release(coord util.Position3)
}

// Collider recebe a malha de colisão (só posições e índices) de cada chunk.
type Collider interface {
	Install(coord util.Position3, origin mgl32.Vec3, geo meshing.GeometryData)
	SetEnabled(coord util.Position3, enabled bool)
	Release(coord util.Position3)
}

// Viewpoint é o observador que guia o streaming. Lido uma vez por tick.
type Viewpoint interface {
	Position() mgl32.Vec3
	Forward() mgl32.Vec3
}

// nopRenderer e nopCollider permitem rodar sem GPU nem física.
type nopRenderer struct{}

func (nopRenderer) Install(util.Position3, mgl32.Vec3, meshing.GeometryData) {}
func (nopRenderer) SetVisible(util.Position3, bool)                          {}
func (nopRenderer) Release(util.Position3)                                   {}

type nopCollider struct{}

func (nopCollider) Install(util.Position3, mgl32.Vec3, meshing.GeometryData) {}
func (nopCollider) SetEnabled(util.Position3, bool)                          {}
func (nopCollider) Release(util.Position3)                                   {}

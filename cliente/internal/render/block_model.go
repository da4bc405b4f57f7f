package render

import (
	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ChunkModel representa a geometria renderizável de um chunk.
type ChunkModel struct {
	Coord     util.Position3
	Origin    rl.Vector3
	Model     rl.Model
	Triangles int
	Visible   bool
	Uploaded  bool

	pending *meshing.GeometryData // geometria ainda não enviada à GPU
}

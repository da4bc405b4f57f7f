package meshing

import (
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Volume é o que o mesher precisa de um chunk. *mapdata.Chunk satisfaz.
type Volume interface {
	Size() int
	// CopyBlocks retorna um snapshot dos blocos ou nil se não populado.
	CopyBlocks() []mapdata.Block
	// GetBlock aceita posições fora do volume (consulta entre chunks).
	GetBlock(x, y, z int) mapdata.Block
}

// Eixos (direita, cima) do plano de cada eixo de profundidade.
// X: (z, y), Y: (x, z), Z: (x, y).
var faceAxes = [3][2]int{{2, 1}, {0, 2}, {0, 1}}

// quad é um retângulo máximo no espaço de trabalho de uma face:
// profundidade d, canto (r, u), largura w ao longo de direita e altura h ao longo de cima.
type quad struct {
	face    util.Face
	d, r, u int
	w, h    int
}

// BuildRender gera a malha de render para as faces em faces.
// Retorna mapdata.ErrNotPopulated se o volume ainda não tem blocos.
func BuildRender(v Volume, faces util.FaceSet) (GeometryData, error) {
	return build(v, faces, true)
}

// BuildCollision gera a malha de colisão (posições e índices, todas as faces).
func BuildCollision(v Volume) (GeometryData, error) {
	return build(v, util.AllFaces, false)
}

func build(v Volume, faces util.FaceSet, withAttrs bool) (GeometryData, error) {
	blocks := v.CopyBlocks()
	if blocks == nil {
		return GeometryData{}, mapdata.ErrNotPopulated
	}
	n := v.Size()

	buf := getMeshBuffer(withAttrs)
	defer putMeshBuffer(buf)

	mask := make([]bool, n*n*n)
	for _, f := range util.Faces {
		if !faces.Has(f) {
			continue
		}
		visibleFaces(v, blocks, n, f, mask)
		for _, q := range mergeMask(mask, n, f) {
			emitQuad(buf, q)
		}
	}
	return buf.result(), nil
}

// visibleFaces marca em mask (indexado r + n*(u + n*d)) cada bloco sólido
// cuja face f dá para um bloco transparente.
func visibleFaces(v Volume, blocks []mapdata.Block, n int, f util.Face, mask []bool) {
	depth := f.Axis()
	right, up := faceAxes[depth][0], faceAxes[depth][1]
	off := f.Offset()
	dx, dy, dz := int(off.X), int(off.Y), int(off.Z)

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				pos := [3]int{x, y, z}
				cell := pos[right] + n*(pos[up]+n*pos[depth])

				if blocks[x+n*(y+n*z)].IsTransparent() {
					mask[cell] = false
					continue
				}

				nx, ny, nz := x+dx, y+dy, z+dz
				var other mapdata.Block
				if nx >= 0 && ny >= 0 && nz >= 0 && nx < n && ny < n && nz < n {
					other = blocks[nx+n*(ny+n*nz)]
				} else {
					other = v.GetBlock(nx, ny, nz)
				}
				mask[cell] = other.IsTransparent()
			}
		}
	}
}

// mergeMask junta as células marcadas em retângulos, fatia por fatia.
// A largura cresce primeiro; a altura só cresce enquanto a linha inteira
// estiver marcada, e as células só são consumidas depois de aceitas.
// mask termina zerada.
func mergeMask(mask []bool, n int, f util.Face) []quad {
	var out []quad
	for d := 0; d < n; d++ {
		slice := mask[d*n*n : (d+1)*n*n]
		for u := 0; u < n; u++ {
			for r := 0; r < n; r++ {
				if !slice[u*n+r] {
					continue
				}

				w := 1
				for r+w < n && slice[u*n+r+w] {
					w++
				}

				h := 1
			loopH:
				for u+h < n {
					for k := 0; k < w; k++ {
						if !slice[(u+h)*n+r+k] {
							break loopH
						}
					}
					h++
				}

				for jh := 0; jh < h; jh++ {
					for jw := 0; jw < w; jw++ {
						slice[(u+jh)*n+r+jw] = false
					}
				}
				out = append(out, quad{face: f, d: d, r: r, u: u, w: w, h: h})
			}
		}
	}
	return out
}

// emitQuad converte o quad do espaço de trabalho para coordenadas locais do chunk.
func emitQuad(buf *meshBuffer, q quad) {
	depth := q.face.Axis()
	right, up := faceAxes[depth][0], faceAxes[depth][1]

	var origin [3]float32
	origin[depth] = float32(q.d)
	if q.face.Positive() {
		origin[depth]++
	}
	origin[right] = float32(q.r)
	origin[up] = float32(q.u)

	var wr, hu [3]float32
	wr[right] = float32(q.w)
	hu[up] = float32(q.h)

	var c [4][3]float32
	for i := 0; i < 3; i++ {
		c[0][i] = origin[i]
		c[1][i] = origin[i] + wr[i]
		c[2][i] = origin[i] + wr[i] + hu[i]
		c[3][i] = origin[i] + hu[i]
	}

	normal := q.face.Normal()
	var er, eu mgl32.Vec3
	er[right], eu[up] = 1, 1
	reversed := er.Cross(eu).Dot(normal) < 0

	buf.addQuad(c, [3]float32{normal[0], normal[1], normal[2]}, float32(q.w), float32(q.h), reversed)
}

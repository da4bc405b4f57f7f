package meshing

import (
	"sync"
)

// GeometryData contém os buffers de uma malha de chunk, em coordenadas locais.
// Dois triângulos (seis índices) por quad. Malhas de colisão não têm Normals nem UVs.
type GeometryData struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
	Indices  []uint32
}

// Clone cria uma cópia profunda dos dados.
func (g GeometryData) Clone() GeometryData {
	clone := GeometryData{}
	if len(g.Vertices) > 0 {
		clone.Vertices = append([]float32(nil), g.Vertices...)
	}
	if len(g.Normals) > 0 {
		clone.Normals = append([]float32(nil), g.Normals...)
	}
	if len(g.UVs) > 0 {
		clone.UVs = append([]float32(nil), g.UVs...)
	}
	if len(g.Indices) > 0 {
		clone.Indices = append([]uint32(nil), g.Indices...)
	}
	return clone
}

// VertexCount retorna o número de vértices.
func (g GeometryData) VertexCount() int { return len(g.Vertices) / 3 }

// TriangleCount retorna o número de triângulos.
func (g GeometryData) TriangleCount() int { return len(g.Indices) / 3 }

// Empty indica que não há nada para desenhar.
func (g GeometryData) Empty() bool { return len(g.Indices) == 0 }

// Unindexed expande os índices em triângulos soltos (três vértices por
// triângulo) e devolve Indices vazio. O raylib só aceita índices de 16 bits.
func (g GeometryData) Unindexed() GeometryData {
	out := GeometryData{Vertices: make([]float32, 0, len(g.Indices)*3)}
	withNormals := len(g.Normals) == len(g.Vertices)
	withUVs := len(g.UVs)*3 == len(g.Vertices)*2
	if withNormals {
		out.Normals = make([]float32, 0, len(g.Indices)*3)
	}
	if withUVs {
		out.UVs = make([]float32, 0, len(g.Indices)*2)
	}
	for _, i := range g.Indices {
		out.Vertices = append(out.Vertices, g.Vertices[i*3:i*3+3]...)
		if withNormals {
			out.Normals = append(out.Normals, g.Normals[i*3:i*3+3]...)
		}
		if withUVs {
			out.UVs = append(out.UVs, g.UVs[i*2:i*2+2]...)
		}
	}
	return out
}

// Pool para reciclar meshBuffers entre builds.
var meshBufferPool = sync.Pool{
	New: func() interface{} {
		return &meshBuffer{
			geometry: GeometryData{
				Vertices: make([]float32, 0, 1024),
				Indices:  make([]uint32, 0, 512),
			},
		}
	},
}

func getMeshBuffer(withAttrs bool) *meshBuffer {
	b := meshBufferPool.Get().(*meshBuffer)
	b.withAttrs = withAttrs
	return b
}

func putMeshBuffer(b *meshBuffer) {
	if b == nil {
		return
	}
	b.geometry.Vertices = b.geometry.Vertices[:0]
	b.geometry.Normals = b.geometry.Normals[:0]
	b.geometry.UVs = b.geometry.UVs[:0]
	b.geometry.Indices = b.geometry.Indices[:0]
	meshBufferPool.Put(b)
}

// meshBuffer acumula quads. withAttrs liga normais e UVs (malha de render).
type meshBuffer struct {
	geometry  GeometryData
	withAttrs bool
}

// addQuad adiciona os quatro cantos c0..c3 (em ordem ao redor do quad) e os
// dois triângulos (c0,c1,c2) e (c0,c2,c3), ou a ordem inversa se reversed.
func (b *meshBuffer) addQuad(c [4][3]float32, n [3]float32, w, h float32, reversed bool) {
	base := uint32(len(b.geometry.Vertices) / 3)
	uvs := [4][2]float32{{0, 0}, {w, 0}, {w, h}, {0, h}}
	for i, v := range c {
		b.geometry.Vertices = append(b.geometry.Vertices, v[0], v[1], v[2])
		if b.withAttrs {
			b.geometry.Normals = append(b.geometry.Normals, n[0], n[1], n[2])
			b.geometry.UVs = append(b.geometry.UVs, uvs[i][0], uvs[i][1])
		}
	}
	if reversed {
		b.geometry.Indices = append(b.geometry.Indices, base, base+2, base+1, base, base+3, base+2)
	} else {
		b.geometry.Indices = append(b.geometry.Indices, base, base+1, base+2, base, base+2, base+3)
	}
}

// result devolve uma cópia independente do buffer.
func (b *meshBuffer) result() GeometryData {
	return b.geometry.Clone()
}

// Package render mantém os modelos raylib dos chunks e os desenha.
package render

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"VoxelStream/cliente/internal/meshing"
	"VoxelStream/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Limites por frame para evitar stutter.
const (
	uploadsPerFrame = 4
	purgesPerFrame  = 8
)

// Renderer implementa terrain.Renderer sobre raylib. Install, SetVisible e
// Release só registram a mudança; Process faz o trabalho de GPU e deve
// rodar na thread da janela.
type Renderer struct {
	mu     deadlock.RWMutex
	Models map[util.Position3]*ChunkModel

	TerrainShader rl.Shader
	BlockTexture  rl.Texture2D

	camPosLoc   int32
	fogStartLoc int32
	fogEndLoc   int32
	fogStart    float32
	fogEnd      float32

	// Filas de upload e de purga
	uploadQueue []util.Position3
	purgeQueue  []rl.Model

	log *logrus.Entry
}

// NewRenderer cria o renderizador. A neblina vai de fogStart a fogEnd.
func NewRenderer(fogStart, fogEnd float32, log *logrus.Entry) *Renderer {
	r := &Renderer{
		Models:   make(map[util.Position3]*ChunkModel),
		fogStart: fogStart,
		fogEnd:   fogEnd,
		log:      log,
	}

	if rl.IsWindowReady() {
		// mvp, matModel, colDiffuse e texture0 usam os nomes padrão do raylib
		r.TerrainShader = rl.LoadShaderFromMemory(terrainVertexShader, terrainFragmentShader)
		r.camPosLoc = rl.GetShaderLocation(r.TerrainShader, "camPos")
		r.fogStartLoc = rl.GetShaderLocation(r.TerrainShader, "fogStart")
		r.fogEndLoc = rl.GetShaderLocation(r.TerrainShader, "fogEnd")

		img := rl.GenImageChecked(16, 16, 8, 8, rl.NewColor(126, 94, 60, 255), rl.NewColor(110, 82, 52, 255))
		r.BlockTexture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
	}

	log.Infof("[Renderer] Inicializado (neblina %.0f..%.0f)", fogStart, fogEnd)
	return r
}

// Install guarda a nova geometria do chunk para upload no próximo Process.
func (r *Renderer) Install(coord util.Position3, origin mgl32.Vec3, geo meshing.GeometryData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cm, ok := r.Models[coord]
	if !ok {
		cm = &ChunkModel{Coord: coord}
		r.Models[coord] = cm
	}
	if cm.pending == nil {
		r.uploadQueue = append(r.uploadQueue, coord)
	}
	cm.Origin = rl.Vector3{X: origin.X(), Y: origin.Y(), Z: origin.Z()}
	cm.pending = &geo
}

// SetVisible liga ou desliga o desenho do chunk.
func (r *Renderer) SetVisible(coord util.Position3, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cm, ok := r.Models[coord]; ok {
		cm.Visible = visible
	}
}

// Release remove o chunk. O modelo é descarregado num Process futuro.
func (r *Renderer) Release(coord util.Position3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cm, ok := r.Models[coord]
	if !ok {
		return
	}
	if cm.Uploaded {
		r.purgeQueue = append(r.purgeQueue, cm.Model)
	}
	delete(r.Models, coord)
}

// Process faz os uploads e purgas pendentes, limitados por frame.
func (r *Renderer) Process() {
	r.mu.Lock()
	defer r.mu.Unlock()

	uploads := 0
	for len(r.uploadQueue) > 0 && uploads < uploadsPerFrame {
		coord := r.uploadQueue[0]
		r.uploadQueue = r.uploadQueue[1:]
		cm, ok := r.Models[coord]
		if !ok || cm.pending == nil {
			continue
		}
		r.upload(cm)
		uploads++
	}

	limit := min(purgesPerFrame, len(r.purgeQueue))
	for i := 0; i < limit; i++ {
		rl.UnloadModel(r.purgeQueue[i])
	}
	r.purgeQueue = r.purgeQueue[limit:]
}

// upload converte a geometria pendente em modelo de GPU. Chamado com mu travado.
func (r *Renderer) upload(cm *ChunkModel) {
	geo := cm.pending.Unindexed()
	cm.pending = nil

	if cm.Uploaded {
		r.purgeQueue = append(r.purgeQueue, cm.Model)
		cm.Model, cm.Uploaded, cm.Triangles = rl.Model{}, false, 0
	}
	if len(geo.Vertices) == 0 || !rl.IsWindowReady() {
		return
	}

	mesh := r.geometryToMesh(geo)
	rl.UploadMesh(&mesh, false)
	r.freeMeshRAM(&mesh)
	cm.Model = rl.LoadModelFromMesh(mesh)
	if cm.Model.MaterialCount > 0 {
		materials := unsafe.Slice(cm.Model.Materials, cm.Model.MaterialCount)
		materials[0].Shader = r.TerrainShader
		rl.SetMaterialTexture(&materials[0], rl.MapDiffuse, r.BlockTexture)
	}
	cm.Triangles = geo.VertexCount() / 3
	cm.Uploaded = true
}

func (r *Renderer) geometryToMesh(data meshing.GeometryData) rl.Mesh {
	var mesh rl.Mesh
	vCount := int32(len(data.Vertices) / 3)
	mesh.VertexCount = vCount
	mesh.TriangleCount = vCount / 3

	if len(data.Vertices) > 0 {
		mesh.Vertices = (*float32)(r.copyToC(unsafe.Pointer(&data.Vertices[0]), len(data.Vertices)*4))
	}
	if len(data.Normals) > 0 {
		mesh.Normals = (*float32)(r.copyToC(unsafe.Pointer(&data.Normals[0]), len(data.Normals)*4))
	}
	if len(data.UVs) > 0 {
		mesh.Texcoords = (*float32)(r.copyToC(unsafe.Pointer(&data.UVs[0]), len(data.UVs)*4))
	}
	return mesh
}

func (r *Renderer) copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	cSlice := unsafe.Slice((*byte)(ptr), size)
	goSlice := unsafe.Slice((*byte)(data), size)
	copy(cSlice, goSlice)
	return ptr
}

// freeMeshRAM libera a memória principal (C) associada a uma malha após o upload para a GPU.
func (r *Renderer) freeMeshRAM(mesh *rl.Mesh) {
	if mesh.Vertices != nil {
		C.free(unsafe.Pointer(mesh.Vertices))
		mesh.Vertices = nil
	}
	if mesh.Normals != nil {
		C.free(unsafe.Pointer(mesh.Normals))
		mesh.Normals = nil
	}
	if mesh.Texcoords != nil {
		C.free(unsafe.Pointer(mesh.Texcoords))
		mesh.Texcoords = nil
	}
}

// Draw desenha os chunks visíveis. wires troca o preenchimento por arestas.
func (r *Renderer) Draw(camera3d rl.Camera3D, wires bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.TerrainShader.ID != 0 {
		camPos := camera3d.Position
		rl.SetShaderValue(r.TerrainShader, r.camPosLoc, []float32{camPos.X, camPos.Y, camPos.Z}, rl.ShaderUniformVec3)
		rl.SetShaderValue(r.TerrainShader, r.fogStartLoc, []float32{r.fogStart}, rl.ShaderUniformFloat)
		rl.SetShaderValue(r.TerrainShader, r.fogEndLoc, []float32{r.fogEnd}, rl.ShaderUniformFloat)
	}

	for _, cm := range r.Models {
		if !cm.Visible || !cm.Uploaded {
			continue
		}
		if wires {
			rl.DrawModelWires(cm.Model, cm.Origin, 1.0, rl.DarkGreen)
		} else {
			rl.DrawModel(cm.Model, cm.Origin, 1.0, rl.White)
		}
	}
}

// DrawSelection desenha um cubo de destaque no voxel selecionado.
func (r *Renderer) DrawSelection(p util.Position3) {
	pos := rl.Vector3{X: float32(p.X) + 0.5, Y: float32(p.Y) + 0.5, Z: float32(p.Z) + 0.5}
	rl.DrawCubeWires(pos, 1.01, 1.01, 1.01, rl.Yellow)
}

// RenderStats resume o estado do renderizador.
type RenderStats struct {
	Models    int
	Visible   int
	Triangles int
	Pending   int
}

// Stats percorre os modelos. Barato o bastante para o HUD.
func (r *Renderer) Stats() RenderStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := RenderStats{Models: len(r.Models), Pending: len(r.uploadQueue)}
	for _, cm := range r.Models {
		if cm.Visible && cm.Uploaded {
			s.Visible++
			s.Triangles += cm.Triangles
		}
	}
	return s
}

// Unload descarrega tudo. Chamado antes de fechar a janela.
func (r *Renderer) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cm := range r.Models {
		if cm.Uploaded {
			rl.UnloadModel(cm.Model)
		}
	}
	for _, m := range r.purgeQueue {
		rl.UnloadModel(m)
	}
	r.Models = make(map[util.Position3]*ChunkModel)
	r.uploadQueue, r.purgeQueue = nil, nil
	if r.TerrainShader.ID != 0 {
		rl.UnloadShader(r.TerrainShader)
		rl.UnloadTexture(r.BlockTexture)
	}
}

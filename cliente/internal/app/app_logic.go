package app

import (
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// update atualiza a lógica a cada frame. O frame é o tick do registro.
func (a *App) update() {
	a.frameCount++
	dt := rl.GetFrameTime()

	a.updateCamera(dt)
	a.updateInput()

	a.registry.Tick()
	a.renderer.Process() // Uploads e purgas incrementais da GPU

	a.updateSelection()

	// A cada ~5s a 60fps
	if a.frameCount%300 == 0 {
		a.log.Debugf("[App] %v", a.registry.Stats())
	}
}

// updateSelection lança um raio da câmera contra as malhas de colisão.
func (a *App) updateSelection() {
	a.hit, a.hasHit = a.collider.Raycast(a.Cam.Position(), a.Cam.Forward(), reach)
}

// removeBlock apaga o voxel sob a mira.
func (a *App) removeBlock() {
	if !a.hasHit {
		return
	}
	p := a.hit.Block()
	if err := a.registry.SetBlock(p, mapdata.BlockEmpty); err != nil {
		a.log.Warnf("[App] Não foi possível remover %v: %v", p, err)
		return
	}
	a.log.Debugf("[App] Bloco removido em %v", p)
}

// placeBlock coloca terra na frente da face sob a mira. Nunca dentro da câmera.
func (a *App) placeBlock() {
	if !a.hasHit {
		return
	}
	p := a.hit.Adjacent()
	if p == util.FromVec3(a.Cam.Position()) {
		return
	}
	if err := a.registry.SetBlock(p, mapdata.BlockDirt); err != nil {
		a.log.Warnf("[App] Não foi possível colocar bloco em %v: %v", p, err)
		return
	}
	a.log.Debugf("[App] Bloco colocado em %v", p)
}

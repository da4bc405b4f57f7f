package app

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var skyColor = rl.NewColor(135, 189, 235, 255)

// rlCamera converte a câmera livre para o raylib.
func (a *App) rlCamera() rl.Camera3D {
	pos, target := a.Cam.Position(), a.Cam.Target()
	return rl.Camera3D{
		Position:   rl.Vector3{X: pos.X(), Y: pos.Y(), Z: pos.Z()},
		Target:     rl.Vector3{X: target.X(), Y: target.Y(), Z: target.Z()},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       a.Cam.FOV,
		Projection: rl.CameraPerspective,
	}
}

// draw renderiza a cena.
func (a *App) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(skyColor)

	a.drawScene()
	a.drawCrosshair()
	a.drawHUD()

	rl.EndDrawing()
}

// drawScene renderiza a cena 3D.
func (a *App) drawScene() {
	cam := a.rlCamera()
	rl.BeginMode3D(cam)

	a.renderer.Draw(cam, a.Config.WireframeMode)
	if a.hasHit {
		a.renderer.DrawSelection(a.hit.Block())
	}

	rl.EndMode3D()
}

func (a *App) drawCrosshair() {
	cx, cy := int32(rl.GetScreenWidth()/2), int32(rl.GetScreenHeight()/2)
	rl.DrawLine(cx-8, cy, cx+8, cy, rl.White)
	rl.DrawLine(cx, cy-8, cx, cy+8, rl.White)
}

// drawHUD desenha a interface sobreposta.
func (a *App) drawHUD() {
	if !a.Config.ShowDebugInfo {
		return
	}

	width := int32(420)
	height := int32(250)
	x, y := int32(10), int32(10)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 180))
	rl.DrawRectangleLines(x, y, width, height, rl.NewColor(50, 50, 50, 255))

	// FPS
	fps := rl.GetFPS()
	fpsColor := rl.Green
	if fps < 30 {
		fpsColor = rl.Red
	} else if fps < 50 {
		fpsColor = rl.Yellow
	}
	rl.DrawText(fmt.Sprintf("FPS: %d", fps), x+10, y+10, 20, fpsColor)

	pos := a.Cam.Position()
	rs := a.registry.Stats()
	gs := a.renderer.Stats()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lines := []string{
		fmt.Sprintf("Posição: (%.1f, %.1f, %.1f)  chunk %v", pos.X(), pos.Y(), pos.Z(), a.chunkOfCamera()),
		fmt.Sprintf("Chunks: %d (ativos %d, inativos %d)", rs.Chunks, rs.Active, rs.Inactive),
		fmt.Sprintf("Filas: blocos %d  malha %d  colisão %d", rs.PendingBlocks, rs.PendingMesh, rs.PendingCollision),
		fmt.Sprintf("Filas: io %d  main %d  colisores %d", rs.PendingIO, rs.PendingMain, rs.PendingColliders),
		fmt.Sprintf("Modelos: %d visíveis de %d  (%d tris, %d uploads)", gs.Visible, gs.Models, gs.Triangles, gs.Pending),
		fmt.Sprintf("Colisão: %d malhas, %d tris", a.collider.Len(), a.collider.Triangles()),
		fmt.Sprintf("Memória: %d MiB", mem.Alloc/1024/1024),
	}
	if a.hasHit {
		lines = append(lines, fmt.Sprintf("Mira: %v (%.1f)", a.hit.Block(), a.hit.Distance))
	}
	for i, line := range lines {
		rl.DrawText(line, x+10, y+40+int32(i)*20, 16, rl.RayWhite)
	}

	help := "Tab: mouse  WASD/Espaço/Ctrl: mover  Clique: remover/colocar  F3: HUD  F4: wireframe"
	rl.DrawText(help, x, int32(rl.GetScreenHeight())-24, 16, rl.RayWhite)
}

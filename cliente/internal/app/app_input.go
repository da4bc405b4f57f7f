package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// updateCamera aplica WASD, espaço/ctrl e o mouse (quando capturado) à câmera.
func (a *App) updateCamera(dt float32) {
	if a.mouseCaptured {
		d := rl.GetMouseDelta()
		a.Cam.Rotate(d.X, d.Y)
	}

	var forward, right, up float32
	if rl.IsKeyDown(rl.KeyW) {
		forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		right--
	}
	if rl.IsKeyDown(rl.KeySpace) {
		up++
	}
	if rl.IsKeyDown(rl.KeyLeftControl) {
		up--
	}

	// Shift acelera
	if rl.IsKeyDown(rl.KeyLeftShift) {
		dt *= 3
	}
	a.Cam.Move(forward, right, up, dt)
	a.Cam.Update(rl.GetFrameTime())
}

// updateInput processa entradas de teclado e cliques.
func (a *App) updateInput() {
	// Toggle debug info
	if rl.IsKeyPressed(rl.KeyF3) {
		a.Config.ShowDebugInfo = !a.Config.ShowDebugInfo
	}

	// Toggle wireframe
	if rl.IsKeyPressed(rl.KeyF4) {
		a.Config.WireframeMode = !a.Config.WireframeMode
	}

	// Captura do mouse: Tab alterna, ESC libera
	if rl.IsKeyPressed(rl.KeyTab) {
		a.setMouseCaptured(!a.mouseCaptured)
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.setMouseCaptured(false)
	}

	if !a.mouseCaptured {
		return
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		a.removeBlock()
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		a.placeBlock()
	}
}

func (a *App) setMouseCaptured(captured bool) {
	if captured == a.mouseCaptured {
		return
	}
	a.mouseCaptured = captured
	if captured {
		rl.DisableCursor()
	} else {
		rl.EnableCursor()
	}
}

package app

import (
	"context"
	"time"

	"github.com/chewxy/math32"
)

// RunHeadless roda o registro sem janela a tick_rate ticks por segundo, com a
// câmera voando em linha reta (+X). ticks <= 0 roda até ctx ser cancelado.
func (a *App) RunHeadless(ctx context.Context, ticks int) error {
	reg, err := a.newRegistry(nil)
	if err != nil {
		return err
	}
	a.registry = reg
	a.registry.Start()
	defer a.registry.Close()

	rate := a.Config.TickRate
	if rate <= 0 {
		rate = 30
	}
	dt := 1 / rate
	ticker := time.NewTicker(time.Duration(float32(time.Second) * dt))
	defer ticker.Stop()

	a.Cam.Yaw, a.Cam.Pitch = -math32.Pi/2, 0
	a.log.Infof("[App] Modo headless: %d ticks a %.0f/s", ticks, rate)

	logEvery := max(int(rate), 1)
	start := time.Now()
	for n := 1; ticks <= 0 || n <= ticks; n++ {
		select {
		case <-ctx.Done():
			a.log.Infof("[App] Interrompido no tick %d", n)
			return nil
		case <-ticker.C:
		}

		a.Cam.Move(1, 0, 0, dt)
		a.Cam.Update(dt)
		a.registry.Tick()

		if n%logEvery == 0 {
			a.log.Infof("[App] tick %d pos %v %v", n, a.chunkOfCamera(), a.registry.Stats())
		}
	}

	a.log.Infof("[App] %d ticks em %v, colisão %d malhas: %v",
		ticks, time.Since(start).Round(time.Millisecond), a.collider.Len(), a.registry.Stats())
	return nil
}

// Package app liga o registro de chunks à janela raylib, à câmera e ao
// collider. Também tem o modo headless, sem GPU.
package app

import (
	"fmt"
	"time"

	"VoxelStream/cliente/internal/camera"
	"VoxelStream/cliente/internal/physics"
	"VoxelStream/cliente/internal/render"
	"VoxelStream/cliente/internal/terrain"
	"VoxelStream/shared/config"
	"VoxelStream/shared/mapdata"
	"VoxelStream/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

const (
	reach       = 8.0 // Alcance do raio de edição, em voxels
	sentryFlush = 2 * time.Second
)

// App é a aplicação principal do VoxelStream.
type App struct {
	Config     *config.Config
	ConfigPath string // Vazio: não salva ao sair

	Cam *camera.FlyCamera

	registry *terrain.Registry
	renderer *render.Renderer
	collider *physics.Collider
	store    mapdata.ChunkStore

	// Informações de debug
	frameCount int

	// Voxel sob a mira
	hit    physics.Hit
	hasHit bool

	mouseCaptured bool

	log *logrus.Entry
}

// New cria a aplicação. store pode ser nil (só geração procedural) e
// continua pertencendo a quem chama.
func New(cfg *config.Config, cfgPath string, store mapdata.ChunkStore) *App {
	return &App{
		Config:     cfg,
		ConfigPath: cfgPath,
		Cam:        camera.New(spawnPoint(), cfg.CameraSpeed, cfg.CameraSensitivity, cfg.FOV),
		store:      store,
		log:        logrus.WithField("componente", "app"),
	}
}

// spawnPoint fica acima do relevo senoidal (amplitude 5).
func spawnPoint() mgl32.Vec3 {
	return mgl32.Vec3{0.5, 12, 0.5}
}

// newRegistry monta o registro com os colaboradores dados. renderer nil usa
// o renderizador vazio.
func (a *App) newRegistry(renderer terrain.Renderer) (*terrain.Registry, error) {
	opts, err := terrain.OptionsFromConfig(a.Config)
	if err != nil {
		return nil, fmt.Errorf("opções do terreno: %w", err)
	}
	opts.Store = a.store
	a.collider = physics.NewCollider()
	return terrain.New(opts, nil, renderer, a.collider, a.Cam), nil
}

// Run abre a janela e roda o loop principal até ela fechar.
func (a *App) Run() error {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("[PANIC] Erro fatal recuperado: %v", r)
			sentry.CurrentHub().Recover(r)
			sentry.Flush(sentryFlush)
			panic(r)
		}
	}()

	// Inicializar janela raylib
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(a.Config.WindowWidth, a.Config.WindowHeight, a.Config.WindowTitle)
	rl.SetTraceLogLevel(rl.LogWarning) // Reduz ruído no terminal
	defer rl.CloseWindow()

	if a.Config.Fullscreen {
		rl.ToggleFullscreen()
	}
	rl.SetTargetFPS(a.Config.TargetFPS)
	rl.SetExitKey(0) // ESC só libera o mouse

	a.log.Infof("[App] Janela inicializada (%dx%d)", a.Config.WindowWidth, a.Config.WindowHeight)

	a.renderer = render.NewRenderer(a.Config.DisplayDistance*0.6, a.Config.DisplayDistance, a.log)
	reg, err := a.newRegistry(a.renderer)
	if err != nil {
		a.renderer.Unload()
		return err
	}
	a.registry = reg
	a.registry.Start()

	// Loop principal
	for !rl.WindowShouldClose() {
		a.update()
		a.draw()
	}

	a.shutdown()
	return nil
}

// shutdown realiza a limpeza de recursos.
func (a *App) shutdown() {
	a.log.Info("[App] Finalizando aplicação...")

	a.registry.Close()
	if a.renderer != nil {
		a.renderer.Unload()
	}

	if a.ConfigPath == "" {
		return
	}
	if err := a.Config.Save(a.ConfigPath); err != nil {
		a.log.Warnf("[App] Erro ao salvar configurações: %v", err)
	}
}

// chunkOfCamera retorna o chunk onde a câmera está.
func (a *App) chunkOfCamera() util.Position3 {
	return util.ChunkOf(util.FromVec3(a.Cam.Position()), a.Config.ChunkSize)
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"time"

	"VoxelStream/cliente/internal/app"
	"VoxelStream/shared/config"
	"VoxelStream/shared/mapdata"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/sirupsen/logrus"
)

func main() {
	// Raylib/OpenGL exige rodar na thread principal do SO
	runtime.LockOSThread()

	// Flags de linha de comando
	cfgPath := flag.String("config", config.DefaultPath(), "Arquivo de configuração (.json ou .yaml)")
	headless := flag.Bool("headless", false, "Rodar sem janela")
	ticks := flag.Int("ticks", 0, "Ticks no modo headless (0: até Ctrl+C)")
	logLevel := flag.String("log-level", "", "Nível de log: debug, info, warn, error")
	statsAddr := flag.String("stats", "", "Endereço do statsview (ex.: localhost:18066)")
	flag.Parse()

	// Configurar Log em Arquivo
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	f, err := os.OpenFile("debug_vs.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err == nil {
		logrus.SetOutput(f)
		defer f.Close()
	} else {
		logrus.SetOutput(os.Stderr)
	}
	logrus.Info("--- INICIANDO VOXELSTREAM ---")

	// Carregar configurações
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("[Config] %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *statsAddr != "" {
		cfg.StatsAddr = *statsAddr
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("[Config] log_level inválido %q, usando info", cfg.LogLevel)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			logrus.Warnf("[Sentry] Falha ao inicializar: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.StatsAddr != "" {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(cfg.StatsAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logrus.Infof("[Stats] statsview em http://%s/debug/statsview", cfg.StatsAddr)
	}

	store, err := mapdata.OpenStore(cfg.Store, cfg.SaveDir, cfg.WorldName)
	if err != nil {
		logrus.Fatalf("[Persistence] %v", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logrus.Warnf("[Persistence] Erro ao fechar: %v", err)
			}
		}()
	}

	// Criar e rodar a aplicação
	application := app.New(cfg, *cfgPath, store)
	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = application.RunHeadless(ctx, *ticks)
	} else {
		err = application.Run()
	}
	if err != nil {
		logrus.Errorf("[App] %v", err)
	}
}

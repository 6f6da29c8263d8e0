// Package app wires the editing runtime together: configuration, logging,
// the scene, the undo backlog, and the HTTP bridge.
package app

import (
	"context"
	"fmt"
	"log"
	nethttp "net/http"
	"os"

	"github.com/caarlos0/env/v11"

	"atelier/editor/internal/net"
	"atelier/editor/internal/scene"
	"atelier/editor/internal/undo"
	"atelier/editor/logging"
	"atelier/editor/logging/sinks"
)

// Config is populated from the environment.
type Config struct {
	Addr      string `env:"EDITOR_ADDR" envDefault:":8080"`
	ScenePath string `env:"EDITOR_SCENE"`
	LogBuffer int    `env:"EDITOR_LOG_BUFFER" envDefault:"512"`
	LogColor  bool   `env:"EDITOR_LOG_COLOR"`
	LogDebug  bool   `env:"EDITOR_LOG_DEBUG"`
}

// Run starts the editor process and blocks until the server stops or the
// context is cancelled.
func Run(ctx context.Context) error {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	logConfig := logging.DefaultConfig()
	logConfig.BufferSize = cfg.LogBuffer
	logConfig.Console.UseColor = cfg.LogColor
	if cfg.LogDebug {
		logConfig.MinimumSeverity = logging.SeverityDebug
	}
	available := map[string]logging.Sink{
		"console": sinks.NewConsoleSink(os.Stdout, logConfig.Console),
	}
	router, err := logging.NewRouter(logConfig, log.Default(), available)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
	}()

	registry := scene.DefaultRegistry()
	stage, err := loadScene(cfg.ScenePath, registry)
	if err != nil {
		return err
	}
	router.Publish(ctx, logging.Event{
		Type:     logging.EventSceneLoaded,
		Severity: logging.SeverityInfo,
		Payload:  map[string]any{"name": stage.Root().Name, "path": cfg.ScenePath},
	})

	backlog := undo.NewBacklog()
	backlog.AttachPublisher(router)

	bridge := net.NewBridge(stage, registry, backlog, router)
	handler := net.NewHTTPHandler(bridge, net.HTTPHandlerConfig{Logger: log.Default()})

	srv := &nethttp.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Printf("editor listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func loadScene(path string, registry *scene.Registry) (*scene.Scene, error) {
	if path == "" {
		return scene.New("untitled"), nil
	}
	doc, err := scene.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	stage, err := scene.Build(doc, registry)
	if err != nil {
		return nil, fmt.Errorf("build scene from %s: %w", path, err)
	}
	return stage, nil
}

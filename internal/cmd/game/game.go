// Package game parses game command flags and starts the game runtime.
package game

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	entrypoint "github.com/manhuntgame/manhunt/internal/platform/cmd"
	platformgrpc "github.com/manhuntgame/manhunt/internal/platform/grpc"
	"github.com/manhuntgame/manhunt/internal/platform/id"
	"github.com/manhuntgame/manhunt/internal/services/game/admingrant"
	"github.com/manhuntgame/manhunt/internal/services/game/api/rest"
	"github.com/manhuntgame/manhunt/internal/services/game/app"
	"github.com/manhuntgame/manhunt/internal/services/game/storage/sqlite"
	"github.com/manhuntgame/manhunt/internal/telemetry"
)

// Config holds game command configuration.
type Config struct {
	Addr       string `env:"MANHUNT_GAME_ADDR" envDefault:":8080"`
	HealthAddr string `env:"MANHUNT_GAME_HEALTH_ADDR" envDefault:":8081"`
	DBPath     string `env:"MANHUNT_GAME_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The gRPC health probe address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The sqlite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "game.db")
	}
	return cfg, nil
}

// newID adapts the platform id generator to the service's infallible
// signature. Generation only fails when the OS entropy source does, which
// is not a condition the game can recover from.
func newID() string {
	generated, err := id.NewID()
	if err != nil {
		panic(fmt.Sprintf("generate id: %v", err))
	}
	return generated
}

// Run starts the game API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open game store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close game store: %v", err)
			}
		}()

		var adminAuth *admingrant.Config
		if os.Getenv("MANHUNT_ADMIN_GRANT_PUBLIC_KEY") != "" {
			grantCfg, err := admingrant.LoadConfigFromEnv(nil)
			if err != nil {
				return fmt.Errorf("load admin grant config: %w", err)
			}
			adminAuth = &grantCfg
		} else {
			log.Print("admin grant verification disabled; /admin routes are open")
		}

		svc := app.NewService(store, newID,
			app.WithTelemetry(telemetry.NewEmitter(store)),
		)
		server := rest.NewServer(rest.Config{
			HTTPAddr:  cfg.Addr,
			AdminAuth: adminAuth,
		}, svc)

		health, err := platformgrpc.NewHealthServer(cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
		go func() {
			if err := health.Serve(ctx); err != nil {
				log.Printf("health server: %v", err)
			}
		}()
		health.SetServing(true)
		defer health.SetServing(false)

		return server.ListenAndServe(ctx)
	})
}

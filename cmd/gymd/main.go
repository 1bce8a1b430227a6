// Command gymd serves the gym membership back office API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/tusharkarle/gym-management/internal/app"
	"github.com/tusharkarle/gym-management/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults to $GYM_CONFIG or ./config.yaml)")
	migrateOnly := flag.Bool("migrate-only", false, "Apply database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig{ConfigPath: *configPath}
	if *migrateOnly {
		if err := app.Migrate(ctx, cfg); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		return
	}
	if err := app.RunServer(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

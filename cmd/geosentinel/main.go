package main

import (
	"flag"
	"log"
	"time"

	geosentinel "github.com/Kumarpriyam05/GeoSentinel"
	"github.com/Kumarpriyam05/GeoSentinel/config"
	"github.com/Kumarpriyam05/GeoSentinel/store"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	geosentinel.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := store.ConnectWithRetry(cfg.Database.DSN, cfg.Database.ConnectAttempts,
		time.Duration(cfg.Database.RetryDelayMS)*time.Millisecond)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	server := geosentinel.NewServer(cfg, db)
	server.Start()
	geosentinel.HandleGracefulShutdown(server)
}

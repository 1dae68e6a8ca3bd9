package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/droneops/landingd/internal/config"
	"github.com/droneops/landingd/internal/deliveryapi"
	"github.com/droneops/landingd/internal/gateway"
	"github.com/droneops/landingd/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to landingd config.toml")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "landingd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logging.Init("landingd", cfg.LogLevel)

	remote := deliveryapi.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout, log)
	svc := gateway.NewService(gateway.ServiceConfig{
		ListenAddr:      cfg.ListenAddr,
		NamespacePath:   cfg.NamespacePath,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, remote, log)

	if err := svc.Run(); err != nil {
		log.Error().Err(err).Msg("landingd exited with error")
		os.Exit(1)
	}
}

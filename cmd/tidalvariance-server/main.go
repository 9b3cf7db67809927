package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/chrissnell/tidalvariance/internal/controllers/restserver"
	"github.com/chrissnell/tidalvariance/internal/log"
	"github.com/chrissnell/tidalvariance/internal/storage"
	"github.com/chrissnell/tidalvariance/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidalvariance-server %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename, false)
	cfgData, err := provider.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	provider.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archive, err := storage.Open(ctx, cfgData.Storage, log.Named("storage"))
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer archive.Close()

	var wg sync.WaitGroup
	ctrl, err := restserver.NewController(ctx, &wg, cfgData.Server, cfgData.Station.ID, archive, log.Named("rest"))
	if err != nil {
		log.Fatalf("Failed to create REST server: %v", err)
	}
	if err := ctrl.StartController(); err != nil {
		log.Fatalf("Failed to start REST server: %v", err)
	}

	log.Info("REST server started")
	<-ctx.Done()
	log.Info("shutdown signal received, initiating graceful shutdown...")

	wg.Wait()
	log.Info("shutdown complete")
}

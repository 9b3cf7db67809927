package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/chrissnell/tidalvariance/internal/app"
	"github.com/chrissnell/tidalvariance/internal/export"
	"github.com/chrissnell/tidalvariance/internal/log"
	"github.com/chrissnell/tidalvariance/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file; defaults apply when it does not exist")
	source := flag.String("source", "csv", "Observation source: 'csv', 'api' (NOAA CO-OPS) or 'archive'")
	csvPath := flag.String("csv-path", "", "CSV input for -source csv (default <raw_dir>/"+app.DefaultCSVPath+")")
	apiRawOutput := flag.String("api-raw-output", app.DefaultAPIRawOutput, "Raw export name for -source api; relative names land in raw_dir and the period suffix is added automatically")
	format := flag.String("format", "", "Export format: csv, json, msgpack or xlsx (default from export.format)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidalvariance %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	src, err := app.ParseSource(*source)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if *format == "" {
		*format = cfgData.Export.Format
	}
	outFormat, err := export.ParseFormat(*format)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfgData, app.Options{
		Source:       src,
		CSVPath:      *csvPath,
		APIRawOutput: *apiRawOutput,
		Format:       outFormat,
	}, log.Named("app"))

	summary, err := application.Run(ctx)
	if err != nil {
		log.Errorf("Analysis failed: %v", err)
		log.Sync()
		os.Exit(1)
	}

	log.Infof("analysis of %d-%d complete: %d observations, %d lows, %d lower-lows, %d monthly rows",
		summary.FirstYear, summary.LastYear, summary.Observations, summary.Lows, summary.LowerLows, summary.Months)
	for _, out := range summary.Outputs {
		log.Infof("wrote %s", out)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	provider := config.NewYAMLProvider(filename, true)
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	return cfgData, nil
}

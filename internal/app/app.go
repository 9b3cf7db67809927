// Package app wires configuration, data sources, the analysis pipeline,
// exports and the archive into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/chrissnell/tidalvariance/internal/export"
	"github.com/chrissnell/tidalvariance/internal/loader"
	"github.com/chrissnell/tidalvariance/internal/noaa"
	"github.com/chrissnell/tidalvariance/internal/report"
	"github.com/chrissnell/tidalvariance/internal/storage"
	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/chrissnell/tidalvariance/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source selects where observations come from
type Source string

const (
	SourceCSV     Source = "csv"
	SourceAPI     Source = "api"
	SourceArchive Source = "archive"
)

const (
	DefaultCSVPath      = "raw_tide_data.csv"
	DefaultAPIRawOutput = "raw_tide_data.csv"
)

// ParseSource validates a source name
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceCSV, SourceAPI, SourceArchive:
		return src, nil
	default:
		return "", fmt.Errorf("unsupported source %q, expected csv, api or archive", s)
	}
}

// Options are the per-invocation choices made on the command line
type Options struct {
	Source       Source
	CSVPath      string
	APIRawOutput string
	Format       export.Format
}

// Summary describes what a run produced
type Summary struct {
	Observations int
	Lows         int
	LowerLows    int
	Months       int
	FirstYear    int
	LastYear     int
	Outputs      []string
	RunID        uuid.UUID
}

// App represents one analysis run
type App struct {
	cfg        *config.ConfigData
	opts       Options
	logger     *zap.SugaredLogger
	fs         export.FileSystem
	now        func() time.Time
	httpClient *http.Client
}

// New creates a new application instance
func New(cfg *config.ConfigData, opts Options, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Source == "" {
		opts.Source = SourceCSV
	}
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}
	return &App{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		fs:     export.OSFileSystem{},
		now:    time.Now,
	}
}

// Run loads observations, analyzes them and writes every export
func (a *App) Run(ctx context.Context) (*Summary, error) {
	params, err := a.params()
	if err != nil {
		return nil, err
	}

	var archive storage.Archive
	if a.cfg.Storage.Enabled() {
		archive, err = storage.Open(ctx, a.cfg.Storage, a.logger.Named("storage"))
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		defer archive.Close()
	} else if a.opts.Source == SourceArchive {
		return nil, fmt.Errorf("source %q requires storage.sqlite_path or storage.postgres_dsn", SourceArchive)
	}

	writer := export.NewWriter(a.fs, a.now, a.logger.Named("export"))

	src, err := a.source(archive)
	if err != nil {
		return nil, err
	}

	a.logger.Infof("loading observations for station %s from %s", a.cfg.Station.ID, a.opts.Source)
	obs, err := src.LoadObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}
	if len(obs) == 0 {
		return nil, errors.New("no observations loaded")
	}
	a.logger.Infof("loaded %d observations", len(obs))

	summary := &Summary{Observations: len(obs)}

	if a.opts.Source == SourceAPI {
		path, err := a.writeRaw(writer, obs)
		if err != nil {
			return nil, err
		}
		summary.Outputs = append(summary.Outputs, path)
	}

	if archive != nil && a.opts.Source != SourceArchive {
		if err := archive.SaveObservations(ctx, a.series(), obs); err != nil {
			return nil, fmt.Errorf("archiving observations: %w", err)
		}
		a.logger.Infof("archived %d observations", len(obs))
	}

	if a.opts.Source != SourceCSV {
		params = params.WithRange(
			tide.YearMonth{Year: a.cfg.Period.StartYear, Month: time.January},
			tide.YearMonth{Year: a.cfg.Period.EndYear, Month: time.December},
		)
	}

	result, err := tide.Analyze(obs, params)
	if err != nil {
		return nil, err
	}
	summary.Lows = len(result.Classified)
	summary.Months = len(result.Monthly)
	summary.FirstYear, summary.LastYear = result.FirstYear, result.LastYear
	for _, c := range result.Classified {
		if c.IsLowerLow {
			summary.LowerLows++
		}
	}
	a.logger.Infof("classified %d low tides (%d lower-low), %d in the daytime window, %d monthly rows",
		summary.Lows, summary.LowerLows, len(result.Daytime), summary.Months)

	outputs, err := a.writeReports(writer, params, result)
	if err != nil {
		return nil, err
	}
	summary.Outputs = append(summary.Outputs, outputs...)

	if archive != nil {
		run := storage.NewRun(a.cfg.Station.ID, params, result, a.now())
		if err := archive.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("saving run: %w", err)
		}
		summary.RunID = run.ID
		a.logger.Infof("saved run %s", run.ID)
	}

	return summary, nil
}

func (a *App) params() (tide.Params, error) {
	an := a.cfg.Analysis
	return tide.NewParams(an.DayStartHour, an.DayEndHour, an.TidepoolTide, an.MaxNeighborGap, tide.EmptyMonthPolicy(an.EmptyMonths))
}

// resolveDir anchors relative configured directories at paths.base_dir
func (a *App) resolveDir(dir string) string {
	if a.cfg.Paths.BaseDir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.cfg.Paths.BaseDir, dir)
}

// series keys archived observations. CSV input is assumed to come from the
// configured NOAA product, datum and units.
func (a *App) series() storage.Series {
	return storage.Series{
		Station: a.cfg.Station.ID,
		Product: a.cfg.NOAA.Product,
		Datum:   a.cfg.NOAA.Datum,
		Units:   a.cfg.NOAA.Units,
	}
}

func (a *App) periodBounds() (time.Time, time.Time) {
	begin := time.Date(a.cfg.Period.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(a.cfg.Period.EndYear, time.December, 31, 23, 59, 59, 0, time.UTC)
	return begin, end
}

func (a *App) source(archive storage.Archive) (tide.ObservationSource, error) {
	switch a.opts.Source {
	case SourceCSV:
		path := a.opts.CSVPath
		if path == "" {
			path = filepath.Join(a.resolveDir(a.cfg.Paths.RawDir), DefaultCSVPath)
		}
		resolved, err := loader.ResolveInputPath(path, a.cfg.Paths.BaseDir)
		if err != nil {
			return nil, err
		}
		return loader.CSVSource{Path: resolved}, nil

	case SourceAPI:
		token, err := a.apiToken()
		if err != nil {
			return nil, err
		}
		n := a.cfg.NOAA
		client := noaa.NewClient(noaa.Options{
			BaseURL:           n.APIURL,
			Token:             token,
			Datum:             n.Datum,
			Units:             n.Units,
			TimeZone:          n.TimeZone,
			RequestsPerSecond: n.RequestsPerSecond,
			Concurrency:       n.Concurrency,
			Timeout:           n.Timeout,
			HTTPClient:        a.httpClient,
		}, a.logger.Named("noaa"))
		begin, end := a.periodBounds()
		return noaa.Source{
			Client: client,
			Request: noaa.Request{
				StationID: a.cfg.Station.ID,
				Begin:     begin,
				End:       end,
				Product:   n.Product,
			},
		}, nil

	case SourceArchive:
		begin, end := a.periodBounds()
		return storage.Source{Archive: archive, Series: a.series(), From: begin, To: end}, nil

	default:
		return nil, fmt.Errorf("unsupported source %q", a.opts.Source)
	}
}

func (a *App) apiToken() (string, error) {
	if a.cfg.NOAA.Token != "" || a.cfg.NOAA.TokenFile == "" {
		return a.cfg.NOAA.Token, nil
	}

	path := a.cfg.NOAA.TokenFile
	if !filepath.IsAbs(path) && a.cfg.Paths.BaseDir != "" {
		path = filepath.Join(a.cfg.Paths.BaseDir, path)
	}
	token, created, err := noaa.LoadToken(path)
	if err != nil {
		return "", err
	}
	if created {
		a.logger.Warnf("created token template at %s; add your NOAA API token there", path)
	}
	return token, nil
}

func (a *App) writeRaw(w *export.Writer, obs []tide.Observation) (string, error) {
	out := a.opts.APIRawOutput
	if out == "" {
		out = DefaultAPIRawOutput
	}
	if filepath.Ext(out) == "" {
		out += export.FormatCSV.Extension()
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(a.resolveDir(a.cfg.Paths.RawDir), out)
	}
	out = export.AppendPeriodToFilename(out, export.BuildPeriodSuffix(a.cfg.Period.StartYear, a.cfg.Period.EndYear))

	// raw data stays CSV so it can be fed back with -source csv
	if _, err := w.Write(out, export.FormatCSV, loader.RawDataset(obs)); err != nil {
		return "", err
	}
	return out, nil
}

func (a *App) station() (report.Station, error) {
	st := report.Station{Latitude: a.cfg.Station.Latitude, Longitude: a.cfg.Station.Longitude}
	if a.cfg.NOAA.TimeZone == "gmt" && a.opts.Source == SourceAPI {
		st.Location = time.UTC
		return st, nil
	}
	loc, err := time.LoadLocation(a.cfg.Station.TimeZone)
	if err != nil {
		return st, fmt.Errorf("loading station timezone: %w", err)
	}
	st.Location = loc
	return st, nil
}

func (a *App) writeReports(w *export.Writer, p tide.Params, result *tide.Result) ([]string, error) {
	st, err := a.station()
	if err != nil {
		return nil, err
	}

	precision := a.cfg.Export.Precision
	suffix := export.BuildPeriodSuffix(result.FirstYear, result.LastYear)
	dir := a.resolveDir(a.cfg.Paths.ProcessedDir)

	datasets := []export.Dataset{
		report.MonthlyDataset(result.Monthly, precision),
		report.DetailedDataset(report.DetailLows(result.Classified, p.Window, st, precision)),
		report.ClimatologyDataset(result.Climatology, precision),
	}

	var outputs []string
	for _, d := range datasets {
		path := export.AppendPeriodToFilename(filepath.Join(dir, d.Name+a.opts.Format.Extension()), suffix)
		if _, err := w.Write(path, a.opts.Format, d); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

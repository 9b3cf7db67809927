package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/tidalvariance/internal/export"
	"github.com/chrissnell/tidalvariance/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `t,v,type
2021-06-01 03:00,-0.2,L
2021-06-01 09:10,4.8,H
2021-06-01 15:00,0.3,L
2021-06-01 21:30,5.6,H
2021-06-02 11:05,-0.4,L
2021-06-02 17:20,4.1,H
2021-06-02 22:40,0.9,L
`

func testConfig(t *testing.T) *config.ConfigData {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Period.StartYear = 2021
	cfg.Period.EndYear = 2021
	return cfg
}

func writeRaw(t *testing.T, cfg *config.ConfigData) {
	t.Helper()
	dir := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultCSVPath), []byte(rawCSV), 0o644))
}

func TestRunFromCSV(t *testing.T) {
	cfg := testConfig(t)
	writeRaw(t, cfg)

	summary, err := New(cfg, Options{Source: SourceCSV}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Observations)
	assert.Equal(t, 4, summary.Lows)
	assert.Equal(t, 2, summary.LowerLows)
	assert.Equal(t, 1, summary.Months)
	assert.Equal(t, uuid.Nil, summary.RunID)

	processed := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.ProcessedDir)
	require.Len(t, summary.Outputs, 3)
	for _, out := range summary.Outputs {
		assert.True(t, strings.HasSuffix(out, "_2021_2021.csv"), out)
		assert.Equal(t, processed, filepath.Dir(out))
		assert.FileExists(t, out)
	}

	monthly, err := os.ReadFile(summary.Outputs[0])
	require.NoError(t, err)
	// 06-02 11:05 is the only daytime lower-low
	assert.Equal(t,
		"year,month,lower_low_count,min_height,max_height_among_lows,mean_height,tidepool_eligible_count\n"+
			"2021,6,1,-0.4,-0.4,-0.4,1\n",
		string(monthly))
}

func TestRunRotatesPreviousOutputs(t *testing.T) {
	cfg := testConfig(t)
	writeRaw(t, cfg)

	first, err := New(cfg, Options{Source: SourceCSV, Format: export.FormatJSON}, nil).Run(context.Background())
	require.NoError(t, err)
	_, err = New(cfg, Options{Source: SourceCSV, Format: export.FormatJSON}, nil).Run(context.Background())
	require.NoError(t, err)

	backups, err := filepath.Glob(filepath.Join(filepath.Dir(first.Outputs[0]), "*.bak_*.json"))
	require.NoError(t, err)
	assert.Len(t, backups, 3)
}

func TestRunArchiveRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.SQLitePath = filepath.Join(cfg.Paths.BaseDir, "archive.db")
	writeRaw(t, cfg)

	fromCSV, err := New(cfg, Options{Source: SourceCSV}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, fromCSV.RunID)

	fromArchive, err := New(cfg, Options{Source: SourceArchive, Format: export.FormatMsgPack}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromCSV.Observations, fromArchive.Observations)
	assert.Equal(t, fromCSV.LowerLows, fromArchive.LowerLows)
	assert.NotEqual(t, fromCSV.RunID, fromArchive.RunID)
}

func TestRunArchiveDoesNotMixSeries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.SQLitePath = filepath.Join(cfg.Paths.BaseDir, "archive.db")
	writeRaw(t, cfg)

	_, err := New(cfg, Options{Source: SourceCSV}, nil).Run(context.Background())
	require.NoError(t, err)

	cfg.NOAA.Product = "water_level"
	_, err = New(cfg, Options{Source: SourceArchive}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "no observations loaded")
}

func TestRunArchiveSourceRequiresStorage(t *testing.T) {
	_, err := New(testConfig(t), Options{Source: SourceArchive}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "requires storage")
}

func TestRunFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9414131", r.URL.Query().Get("station"))
		assert.Equal(t, "20210101", r.URL.Query().Get("begin_date"))
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]string{
				{"t": "2021-06-01 03:00", "v": "-0.200", "type": "L"},
				{"t": "2021-06-01 09:10", "v": "4.800", "type": "H"},
				{"t": "2021-06-01 15:00", "v": "0.300", "type": "L"},
			},
		})
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.NOAA.APIURL = srv.URL
	cfg.Analysis.EmptyMonths = "fill"

	summary, err := New(cfg, Options{Source: SourceAPI}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Observations)

	raw := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir, "raw_tide_data_2021_2021.csv")
	assert.Equal(t, raw, summary.Outputs[0])
	data, err := os.ReadFile(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "t,v,type\n2021-06-01 03:00,-0.2,L\n"))

	// api runs fill the whole configured period
	assert.Equal(t, 12, summary.Months)
}

func TestParseSource(t *testing.T) {
	for _, s := range []string{"csv", "api", "archive"} {
		_, err := ParseSource(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseSource("ftp")
	assert.Error(t, err)
}

package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/tidalvariance/internal/storage"
	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/chrissnell/tidalvariance/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestController(t *testing.T, archive storage.Archive) *Controller {
	t.Helper()
	var wg sync.WaitGroup
	ctrl, err := NewController(context.Background(), &wg, config.ServerData{}, "9414131", archive, nil)
	require.NoError(t, err)
	return ctrl
}

func seededArchive(t *testing.T) (storage.Archive, *storage.Run) {
	t.Helper()
	a, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	p, err := tide.NewParams(10, 16, 0.1, tide.DefaultMaxNeighborGap, tide.EmptyMonthsOmit)
	require.NoError(t, err)
	lowest := -0.4
	result := &tide.Result{
		FirstYear: 2021,
		LastYear:  2021,
		Monthly: []tide.MonthlyAggregate{
			{Year: 2021, Month: 6, LowerLowCount: 1, MinHeight: &lowest, MaxHeightAmongLows: &lowest, MeanHeight: &lowest, TidepoolEligibleCount: 1},
		},
	}
	run := storage.NewRun("9414131", p, result, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, a.SaveRun(context.Background(), run))
	return a, run
}

func serve(ctrl *Controller, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRunEndpoints(t *testing.T) {
	a, run := seededArchive(t)
	ctrl := newTestController(t, a)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"latest for default station", "/runs/latest", http.StatusOK},
		{"latest for unknown station", "/runs/latest?station=0000000", http.StatusNotFound},
		{"run by id", "/runs/" + run.ID.String(), http.StatusOK},
		{"monthly by id", "/runs/" + run.ID.String() + "/monthly", http.StatusOK},
		{"unknown id", "/runs/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", "/runs/not-a-uuid", http.StatusBadRequest},
		{"health", "/healthz", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(ctrl, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGetRunBody(t *testing.T) {
	a, run := seededArchive(t)
	ctrl := newTestController(t, a)

	rec := serve(ctrl, "/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var got storage.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 2021, got.StartYear)
	require.Len(t, got.Monthly, 1)
	assert.InDelta(t, -0.4, *got.Monthly[0].MinHeight, 1e-9)

	rec = serve(ctrl, "/runs/"+run.ID.String()+"/monthly?format=msgpack")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var monthly []map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &monthly))
	require.Len(t, monthly, 1)
	assert.Contains(t, monthly[0], "tidepool_eligible_count")
}

// brokenArchive fails every call
type brokenArchive struct{ storage.Archive }

var errBroken = errors.New("connection reset")

func (brokenArchive) LatestRun(context.Context, string) (*storage.Run, error) { return nil, errBroken }
func (brokenArchive) Ping(context.Context) error                             { return errBroken }

func TestArchiveFailures(t *testing.T) {
	ctrl := newTestController(t, brokenArchive{})

	rec := serve(ctrl, "/runs/latest")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	rec = serve(ctrl, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestNewControllerRequiresArchive(t *testing.T) {
	var wg sync.WaitGroup
	_, err := NewController(context.Background(), &wg, config.ServerData{}, "9414131", nil, nil)
	assert.Error(t, err)
}

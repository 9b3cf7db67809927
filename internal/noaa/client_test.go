package noaa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:           srv.URL,
		Token:             token,
		RequestsPerSecond: 1000,
		RetryDelay:        time.Millisecond,
	}, nil)
}

func TestFetchObservationsSplitsByYear(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "9414131", q.Get("station"))
		assert.Equal(t, "hilo", q.Get("interval"))
		assert.Equal(t, "MLLW", q.Get("datum"))
		assert.Equal(t, "lst_ldt", q.Get("time_zone"))
		assert.Empty(t, q.Get("token"))

		year := q.Get("begin_date")[:4]
		fmt.Fprintf(w, `{"predictions":[
			{"t":"%s-06-01 03:00","v":"-0.200","type":"L"},
			{"t":"%s-06-01 09:12","v":"4.810","type":"H"}
		]}`, year, year)
	}, "")

	obs, err := client.FetchObservations(context.Background(), Request{
		StationID: "9414131",
		Begin:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, obs, 6)
	assert.Equal(t, 2021, obs[0].Time.Year())
	assert.Equal(t, 2023, obs[5].Time.Year())
	assert.Equal(t, tide.TideTypeLow, obs[0].Type)
	assert.InDelta(t, -0.2, obs[0].Height, 1e-9)
	for i := 1; i < len(obs); i++ {
		assert.False(t, obs[i].Time.Before(obs[i-1].Time), "observations must be chronological")
	}
}

func TestFetchObservationsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"predictions":[{"t":"2022-03-04 12:30","v":"0.05","type":"L"}]}`)
	}, "")

	obs, err := client.FetchObservations(context.Background(), Request{
		StationID: "9414131",
		Begin:     time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Len(t, obs, 1)
}

func TestFetchObservationsAPIError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"error":{"message":"No Predictions data was found."}}`)
	}, "")

	_, err := client.FetchObservations(context.Background(), Request{
		StationID: "0000000",
		Begin:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorContains(t, err, "No Predictions data was found")
	assert.EqualValues(t, 1, calls.Load(), "API errors are not retried")
}

func TestFetchObservationsMalformedValue(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"predictions":[{"t":"2022-01-01 01:00","v":"","type":"L"}]}`)
	}, "")

	_, err := client.FetchObservations(context.Background(), Request{
		StationID: "9414131",
		Begin:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	var malformed *tide.MalformedObservationError
	require.True(t, errors.As(err, &malformed), "expected *tide.MalformedObservationError, got %v", err)
	assert.Equal(t, "v", malformed.Field)
}

func TestFetchObservationsNonFiniteHeight(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Infinity"} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"predictions":[
				{"t":"2021-06-01 03:00","v":"%s","type":"L"},
				{"t":"2021-06-01 15:00","v":"0.300","type":"L"}
			]}`, v)
		}, "")

		_, err := client.FetchObservations(context.Background(), Request{
			StationID: "9414131",
			Begin:     time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC),
		})
		var malformed *tide.MalformedObservationError
		require.True(t, errors.As(err, &malformed), "height %s: expected *tide.MalformedObservationError, got %v", v, err)
		assert.Equal(t, "v", malformed.Field)
		assert.Equal(t, v, malformed.Value)
		assert.ErrorIs(t, err, tide.ErrNonFiniteHeight)
	}
}

func TestFetchObservationsMalformedIndexSpansChunks(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		year := r.URL.Query().Get("begin_date")[:4]
		bad := "4.810"
		if year == "2022" {
			bad = "n/a"
		}
		fmt.Fprintf(w, `{"predictions":[
			{"t":"%s-06-01 03:00","v":"-0.200","type":"L"},
			{"t":"%s-06-01 09:12","v":"%s","type":"H"}
		]}`, year, year, bad)
	}, "")

	_, err := client.FetchObservations(context.Background(), Request{
		StationID: "9414131",
		Begin:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	var malformed *tide.MalformedObservationError
	require.True(t, errors.As(err, &malformed), "expected *tide.MalformedObservationError, got %v", err)
	// two points from 2021 precede the bad one
	assert.Equal(t, 3, malformed.Index)
	assert.Equal(t, "n/a", malformed.Value)
}

func TestWaterLevelRequiresToken(t *testing.T) {
	for _, token := range []string{"", placeholderToken} {
		client := NewClient(Options{Token: token}, nil)
		_, err := client.FetchObservations(context.Background(), Request{
			StationID: "9414131",
			Product:   ProductWaterLevel,
			Begin:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, ErrMissingToken)
	}
}

func TestWaterLevelSendsToken(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		assert.Equal(t, ProductWaterLevel, r.URL.Query().Get("product"))
		fmt.Fprint(w, `{"data":[{"t":"2022-01-01 04:36","v":"0.412","ty":"LL"}]}`)
	}, "secret")

	obs, err := client.FetchObservations(context.Background(), Request{
		StationID: "9414131",
		Product:   ProductWaterLevel,
		Begin:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, tide.TideTypeLow, obs[0].Type)
}

func TestYearChunks(t *testing.T) {
	chunks := yearChunks(
		time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.Len(t, chunks, 3)
	assert.Equal(t, time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), chunks[0].end)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), chunks[1].begin)
	assert.Equal(t, time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), chunks[2].end)
}

func TestLoadToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api_token")

	token, created, err := LoadToken(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, token)

	token, created, err = LoadToken(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, token, "the placeholder is not a token")

	require.NoError(t, os.WriteFile(path, []byte("# comment\nabc123\n"), 0o600))
	token, _, err = LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

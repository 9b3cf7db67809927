// Package noaa fetches high/low tide series from the NOAA CO-OPS data API.
package noaa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the CO-OPS datagetter endpoint
	DefaultAPIURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

	ProductPredictions = "predictions"
	ProductWaterLevel  = "water_level"

	// placeholderToken is what a freshly generated token file contains
	placeholderToken = "YOUR_NOAA_API_TOKEN"

	requestDateLayout  = "20060102"
	responseTimeLayout = "2006-01-02 15:04"
)

// ErrMissingToken is returned when water_level data is requested without a
// configured API token
var ErrMissingToken = errors.New("an API token is required for water_level data")

// Options configures a Client
type Options struct {
	BaseURL           string
	Token             string
	Datum             string
	Units             string
	TimeZone          string
	RequestsPerSecond float64
	Concurrency       int
	Timeout           time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	HTTPClient        *http.Client
}

// Client talks to the CO-OPS API
type Client struct {
	baseURL     string
	token       string
	datum       string
	units       string
	timeZone    string
	concurrency int
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.SugaredLogger
}

// Request selects a station, product and inclusive date range
type Request struct {
	StationID string
	Begin     time.Time
	End       time.Time
	Product   string
}

// NewClient creates a client, filling unset options with defaults
func NewClient(opts Options, logger *zap.SugaredLogger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAPIURL
	}
	if opts.Datum == "" {
		opts.Datum = "MLLW"
	}
	if opts.Units == "" {
		opts.Units = "english"
	}
	if opts.TimeZone == "" {
		opts.TimeZone = "lst_ldt"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Client{
		baseURL:     opts.BaseURL,
		token:       opts.Token,
		datum:       opts.Datum,
		units:       opts.Units,
		timeZone:    opts.TimeZone,
		concurrency: opts.Concurrency,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		httpClient:  opts.HTTPClient,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:      logger,
	}
}

// FetchObservations retrieves the high/low series for req. The range is
// split into calendar-year chunks that are fetched in parallel and then
// reassembled in chronological order.
func (c *Client) FetchObservations(ctx context.Context, req Request) ([]tide.Observation, error) {
	if req.Product == "" {
		req.Product = ProductPredictions
	}
	switch req.Product {
	case ProductPredictions:
	case ProductWaterLevel:
		if c.token == "" || c.token == placeholderToken {
			return nil, ErrMissingToken
		}
	default:
		return nil, fmt.Errorf("unsupported product %q", req.Product)
	}
	if req.StationID == "" {
		return nil, errors.New("station ID is required")
	}
	if req.End.Before(req.Begin) {
		return nil, fmt.Errorf("end date %s precedes begin date %s", req.End.Format(time.DateOnly), req.Begin.Format(time.DateOnly))
	}

	chunks := yearChunks(req.Begin, req.End)
	results := make([][]apiPoint, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ch := range chunks {
		i, ch := i, ch
		g.Go(func() error {
			points, err := c.fetchChunk(gctx, req, ch)
			if err != nil {
				return fmt.Errorf("fetching %s to %s: %w", ch.begin.Format(time.DateOnly), ch.end.Format(time.DateOnly), err)
			}
			results[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// chunks are parsed in order so error indexes count from the start of the series
	var all []tide.Observation
	for _, points := range results {
		obs, err := toObservations(points, len(all))
		if err != nil {
			return nil, err
		}
		all = append(all, obs...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })

	c.logger.Infof("fetched %d observations for station %s in %d request(s)", len(all), req.StationID, len(chunks))
	return all, nil
}

type chunk struct {
	begin time.Time
	end   time.Time
}

func yearChunks(begin, end time.Time) []chunk {
	var chunks []chunk
	for start := begin; !start.After(end); {
		stop := time.Date(start.Year(), time.December, 31, 0, 0, 0, 0, start.Location())
		if stop.After(end) {
			stop = end
		}
		chunks = append(chunks, chunk{begin: start, end: stop})
		start = time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, start.Location())
	}
	return chunks
}

func (c *Client) fetchChunk(ctx context.Context, req Request, ch chunk) ([]apiPoint, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		points, err := c.doRequest(ctx, req, ch)
		if err == nil {
			return points, nil
		}
		lastErr = err

		var re *retryableError
		if !errors.As(err, &re) || attempt == c.maxAttempts {
			break
		}

		c.logger.Warnf("request for station %s failed (attempt %d/%d): %v", req.StationID, attempt, c.maxAttempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) buildURL(req Request, ch chunk) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}

	q := u.Query()
	q.Set("product", req.Product)
	q.Set("application", "web_services")
	q.Set("begin_date", ch.begin.Format(requestDateLayout))
	q.Set("end_date", ch.end.Format(requestDateLayout))
	q.Set("datum", c.datum)
	q.Set("station", req.StationID)
	q.Set("time_zone", c.timeZone)
	q.Set("units", c.units)
	q.Set("interval", "hilo")
	q.Set("format", "json")
	if req.Product == ProductWaterLevel {
		q.Set("token", c.token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doRequest(ctx context.Context, req Request, ch chunk) ([]apiPoint, error) {
	endpoint, err := c.buildURL(req, ch)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("server returned %s", resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return parseResponse(body, req.Product)
}

type apiPoint struct {
	Time   string `json:"t"`
	Value  string `json:"v"`
	Type   string `json:"type"`
	TypeHL string `json:"ty"`
}

type apiResponse struct {
	Predictions []apiPoint `json:"predictions"`
	WaterLevel  []apiPoint `json:"water_level"`
	Data        []apiPoint `json:"data"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func parseResponse(body []byte, product string) ([]apiPoint, error) {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("JSON decoding failed: %w", err)
	}
	if r.Error != nil {
		return nil, fmt.Errorf("API error: %s", r.Error.Message)
	}

	var points []apiPoint
	switch {
	case product == ProductPredictions && r.Predictions != nil:
		points = r.Predictions
	case product == ProductWaterLevel && r.WaterLevel != nil:
		points = r.WaterLevel
	case product == ProductWaterLevel && r.Data != nil:
		points = r.Data
	default:
		return nil, fmt.Errorf("unexpected response format: %.200s", string(body))
	}
	return points, nil
}

// toObservations converts API points. offset is the series position of
// points[0] and is added to the Index of a returned error.
func toObservations(points []apiPoint, offset int) ([]tide.Observation, error) {
	obs := make([]tide.Observation, 0, len(points))
	for i, p := range points {
		t, err := time.Parse(responseTimeLayout, strings.TrimSpace(p.Time))
		if err != nil {
			return nil, &tide.MalformedObservationError{Index: offset + i, Field: "t", Value: p.Time, Err: err}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err == nil {
			err = tide.CheckHeight(v)
		}
		if err != nil {
			return nil, &tide.MalformedObservationError{Index: offset + i, Field: "v", Value: p.Value, Err: err}
		}
		code := p.Type
		if code == "" {
			code = p.TypeHL
		}
		obs = append(obs, tide.Observation{Time: t, Height: v, Type: tide.ParseTideType(code)})
	}
	return obs, nil
}

// Source adapts a Client request to tide.ObservationSource
type Source struct {
	Client  *Client
	Request Request
}

// LoadObservations implements tide.ObservationSource
func (s Source) LoadObservations(ctx context.Context) ([]tide.Observation, error) {
	return s.Client.FetchObservations(ctx, s.Request)
}

// Package loader reads tide observation series from CSV files.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
)

// Column names of the NOAA CO-OPS hilo export
const (
	ColumnTime   = "t"
	ColumnHeight = "v"
	ColumnType   = "type"
)

// TimeLayouts are the timestamp forms accepted in the t column
var TimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseTime parses a station-local timestamp. The result is in UTC so that
// its calendar fields equal the wall clock of the source.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// CSVSource reads observations from a CSV file on disk
type CSVSource struct {
	Path string
}

// LoadObservations implements tide.ObservationSource
func (s CSVSource) LoadObservations(ctx context.Context) ([]tide.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()

	obs, err := ReadObservations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return obs, nil
}

// ReadObservations parses a CSV stream with t, v and type columns and
// returns the observations sorted by time. Column order is free and extra
// columns are ignored.
func ReadObservations(ctx context.Context, r io.Reader) ([]tide.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV: missing header row")
		}
		return nil, err
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{ColumnTime, ColumnHeight, ColumnType} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var obs []tide.Observation
	for index := 0; ; index++ {
		if index%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &tide.MalformedObservationError{Index: index, Line: line, Field: "record", Err: err}
		}
		line, _ := cr.FieldPos(0)

		o, err := parseRecord(record, cols, index, line)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Time.Before(obs[j].Time) })
	return obs, nil
}

func parseRecord(record []string, cols map[string]int, index, line int) (tide.Observation, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) {
			return "", &tide.MalformedObservationError{Index: index, Line: line, Field: name, Err: errors.New("missing value")}
		}
		return strings.TrimSpace(record[i]), nil
	}

	rawTime, err := field(ColumnTime)
	if err != nil {
		return tide.Observation{}, err
	}
	t, err := ParseTime(rawTime)
	if err != nil {
		return tide.Observation{}, &tide.MalformedObservationError{Index: index, Line: line, Field: ColumnTime, Value: rawTime, Err: err}
	}

	rawHeight, err := field(ColumnHeight)
	if err != nil {
		return tide.Observation{}, err
	}
	v, err := strconv.ParseFloat(rawHeight, 64)
	if err == nil {
		err = tide.CheckHeight(v)
	}
	if err != nil {
		return tide.Observation{}, &tide.MalformedObservationError{Index: index, Line: line, Field: ColumnHeight, Value: rawHeight, Err: err}
	}

	rawType, err := field(ColumnType)
	if err != nil {
		return tide.Observation{}, err
	}

	return tide.Observation{Time: t, Height: v, Type: tide.ParseTideType(rawType)}, nil
}

// ResolveInputPath returns path if it exists, otherwise path joined onto
// baseDir if that exists. Home-relative paths (~/) are expanded.
func ResolveInputPath(path, baseDir string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	if baseDir != "" && !filepath.IsAbs(path) {
		candidate := filepath.Join(baseDir, path)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
		return "", fmt.Errorf("input file %s not found (also tried %s): %w", path, candidate, os.ErrNotExist)
	}
	return "", fmt.Errorf("input file %s not found: %w", path, os.ErrNotExist)
}

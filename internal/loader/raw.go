package loader

import (
	"github.com/chrissnell/tidalvariance/internal/export"
	"github.com/chrissnell/tidalvariance/internal/tide"
)

// RawTimeLayout is the timestamp form written to raw exports
const RawTimeLayout = "2006-01-02 15:04"

// RawDataset renders observations in the same t, v, type layout that
// ReadObservations accepts
func RawDataset(obs []tide.Observation) export.Dataset {
	type rawRecord struct {
		Time   string  `json:"t"`
		Height float64 `json:"v"`
		Type   string  `json:"type"`
	}

	rows := make([][]any, len(obs))
	records := make([]rawRecord, len(obs))
	for i, o := range obs {
		ts := o.Time.Format(RawTimeLayout)
		rows[i] = []any{ts, o.Height, o.Type.Code()}
		records[i] = rawRecord{Time: ts, Height: o.Height, Type: o.Type.Code()}
	}

	return export.Dataset{
		Name:    "raw_tide_data",
		Columns: []string{ColumnTime, ColumnHeight, ColumnType},
		Rows:    rows,
		Records: records,
	}
}

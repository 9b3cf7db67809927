package storage

import (
	"fmt"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/vmihailenco/msgpack/v5"
)

// Monthly aggregates are stored as a single msgpack blob per run

func encodeMonthly(m []tide.MonthlyAggregate) ([]byte, error) {
	b, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding monthly aggregates: %w", err)
	}
	return b, nil
}

func decodeMonthly(b []byte) ([]tide.MonthlyAggregate, error) {
	var m []tide.MonthlyAggregate
	if len(b) == 0 {
		return m, nil
	}
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding monthly aggregates: %w", err)
	}
	return m, nil
}

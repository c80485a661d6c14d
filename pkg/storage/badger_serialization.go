// Package storage - Serialization helpers for BadgerDB.
package storage

import (
	"encoding/json"
	"fmt"
)

// serializeRecord converts a PlanRecord to JSON bytes for BadgerDB storage.
func serializeRecord(rec *PlanRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// deserializeRecord converts JSON bytes back to a PlanRecord.
func deserializeRecord(data []byte) (*PlanRecord, error) {
	var rec PlanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling plan record: %w: %v", ErrInvalidData, err)
	}
	return &rec, nil
}

package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// decodeMeta pulls just the metadata block out of a resource payload,
// the same trick pkg/store uses internally to avoid round-tripping the
// whole typed object through every handler.
func decodeMeta(payload json.RawMessage) (types.ObjectMeta, error) {
	var envelope struct {
		Metadata types.ObjectMeta `json:"metadata"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return types.ObjectMeta{}, fmt.Errorf("api: decode metadata: %w", err)
	}
	return envelope.Metadata, nil
}

// withDeletionTimestamp returns payload with metadata.deletionTimestamp
// set, leaving every other field untouched. It is the API-layer half of
// the soft-delete contract in spec §4.3; the controller drives the rest
// of the Terminating state machine once it observes the timestamp.
func withDeletionTimestamp(payload json.RawMessage, ts time.Time) (json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("api: decode payload: %w", err)
	}
	meta, err := decodeMeta(payload)
	if err != nil {
		return nil, err
	}
	meta.DeletionTimestamp = &ts
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("api: encode metadata: %w", err)
	}
	raw["metadata"] = encoded
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("api: encode payload: %w", err)
	}
	return out, nil
}

package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

func decode(body []byte, env Envelope, listKey string) (*Payload, error) {
	body = bytes.TrimSpace(body)

	if env == EnvelopeBare {
		var records []domain.Record
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("%w: expected a JSON array: %v", ErrResponseFormat, err)
		}
		if records == nil {
			records = []domain.Record{}
		}
		return &Payload{Records: records, Stats: domain.Stats{}, Meta: map[string]any{}}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON object: %v", ErrResponseFormat, err)
	}

	if raw, ok := top["success"]; ok || env == EnvelopeSuccess {
		var success bool
		if err := json.Unmarshal(raw, &success); !ok || err != nil || !success {
			return nil, fmt.Errorf("%w: success=false", ErrResponseFormat)
		}
	}

	raw, ok := top[listKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q field", ErrResponseFormat, listKey)
	}
	var records []domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list of objects: %v", ErrResponseFormat, listKey, err)
	}
	if records == nil {
		records = []domain.Record{}
	}

	payload := &Payload{Records: records, Stats: domain.Stats{}, Meta: map[string]any{}}
	if raw, ok := top["stats"]; ok {
		if err := json.Unmarshal(raw, &payload.Stats); err != nil || payload.Stats == nil {
			payload.Stats = domain.Stats{}
		}
	}

	for key, raw := range top {
		if key == listKey || key == "stats" || key == "success" {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			payload.Meta[key] = v
		}
	}
	return payload, nil
}

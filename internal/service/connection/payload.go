package connection

import (
	"encoding/json"
	"strings"
	"sync"

	"imet-backend/internal/domain"
	appErrors "imet-backend/pkg/errors"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema accepts any object whose known keys have the right shape. Unknown keys,
// including id, createdAt and version echoed back by clients, are ignored on decode.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"name":            {"type": ["string", "null"]},
		"meetingLocation": {"type": ["string", "null"]},
		"meetingDate":     {"type": ["string", "null"]},
		"summary":         {"type": ["string", "null"]},
		"notes":           {"type": ["string", "null"]},
		"email":           {"type": ["string", "null"]},
		"phone":           {"type": ["string", "null"]},
		"linkedin":        {"type": ["string", "null"]},
		"rawInput":        {"type": ["string", "null"]},
		"interests":       {"type": ["array", "null"], "items": {"type": "string"}},
		"tags":            {"type": ["array", "null"], "items": {"type": "string"}},
		"funFacts":        {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	})
	return compiledSchema, schemaErr
}

// DecodeFields validates a raw JSON payload and decodes it into a field set.
func DecodeFields(body []byte) (domain.ConnectionFields, error) {
	var fields domain.ConnectionFields

	s, err := schema()
	if err != nil {
		return fields, appErrors.NewInternal("invalid payload schema", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fields, appErrors.NewValidation("Invalid JSON payload")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fields, appErrors.NewValidation("Invalid connection payload: " + strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, &fields); err != nil {
		return fields, appErrors.NewValidation("Invalid JSON payload")
	}
	return fields.Normalize(), nil
}

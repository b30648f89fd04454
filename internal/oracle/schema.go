package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"campaign_agent/internal/common"
)

const cutoffSchemaJSON = `{
  "type": "object",
  "required": ["should_compress"],
  "properties": {
    "reason": {"type": "string"},
    "should_compress": {"type": ["boolean", "string"]}
  }
}`

const mergeSchemaJSON = `{
  "type": "object",
  "required": ["compressed_long_term"],
  "properties": {
    "compressed_long_term": {"type": "string", "minLength": 1},
    "session_summary": {"type": ["string", "array"]}
  }
}`

type validators struct {
	cutoff *jsonschema.Schema
	merge  *jsonschema.Schema
}

func compileValidators() (*validators, error) {
	cutoff, err := jsonschema.CompileString("cutoff.json", cutoffSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile cutoff schema: %w", err)
	}
	merge, err := jsonschema.CompileString("merge.json", mergeSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile merge schema: %w", err)
	}
	return &validators{cutoff: cutoff, merge: merge}, nil
}

// decodeStructured extracts the JSON object from a model reply, validates it
// against sch and unmarshals it into dst.
func decodeStructured(raw string, sch *jsonschema.Schema, dst any) error {
	obj, err := common.ExtractJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v (reply=%q)", ErrMalformedResponse, err, common.TruncateStr(raw, 200))
	}
	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal([]byte(obj), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

type cutoffReply struct {
	Reason         common.FlexString `json:"reason"`
	ShouldCompress common.FlexBool   `json:"should_compress"`
}

type mergeReply struct {
	CompressedLongTerm string            `json:"compressed_long_term"`
	SessionSummary     common.FlexString `json:"session_summary"`
}

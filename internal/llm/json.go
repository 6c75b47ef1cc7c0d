package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparsableResponse is returned when no JSON object can be recovered
// from a model completion.
var ErrUnparsableResponse = errors.New("unparsable model response")

// ExtractObject recovers a JSON object from arbitrary model text. It first
// tries to parse the text directly; failing that, it slices from the first
// '{' to the last '}' inclusive and parses the slice. Models routinely wrap
// valid JSON in commentary, which is what the second pass tolerates.
//
// Known limitation: the slice heuristic assumes the first '{' and last '}'
// in the whole text bound the payload. Multiple JSON fragments, or brace
// characters inside string values, can defeat it.
func ExtractObject(raw string) (json.RawMessage, error) {
	if obj, ok := parseObject(raw); ok {
		return obj, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsableResponse)
	}
	if obj, ok := parseObject(raw[start : end+1]); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: candidate slice is not valid JSON", ErrUnparsableResponse)
}

// DecodeObject recovers a JSON object from raw and unmarshals it into v.
func DecodeObject(raw string, v any) error {
	obj, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	return nil
}

func parseObject(s string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

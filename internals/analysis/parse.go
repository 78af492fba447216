package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed is returned when a model reply is not a well-formed analysis.
var ErrMalformed = errors.New("malformed analysis")

type Result struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

const resultSchema = `{
  "type": "object",
  "required": ["summary", "key_points"],
  "additionalProperties": false,
  "properties": {
    "summary": {"type": "string"},
    "key_points": {"type": "array", "items": {"type": "string"}}
  }
}`

var schema = jsonschema.MustCompileString("analysis.json", resultSchema)

// Parse strips an optional markdown code fence from raw and decodes the
// remaining JSON object into a Result.
func Parse(raw string) (Result, error) {
	body := stripFence(raw)
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty reply", ErrMalformed)
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(v); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var res Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return res, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")

	if nl := strings.IndexByte(s, '\n'); nl >= 0 && isLangTag(s[:nl]) {
		s = s[nl+1:]
	} else if i := strings.IndexAny(s, " \t\r\n{["); i > 0 && isLangTag(s[:i]) {
		// tag and body on one line: ```json {...}```
		s = s[i:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}

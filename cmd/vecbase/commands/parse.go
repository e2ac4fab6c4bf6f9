package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errEmptyVector = errors.New("empty vector")

// parseVector reads a vector literal. Accepted forms:
//
//	[0.1, 0.2, 0.3]    JSON-style array
//	0.1,0.2,0.3        comma separated
//	0.1 0.2 0.3        space separated
//
// Every token must parse; a doubled comma is an error, not a skipped field.
func parseVector(s string) ([]float32, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errEmptyVector
	}

	bracketed := strings.HasPrefix(trimmed, "[")
	if bracketed {
		if !strings.HasSuffix(trimmed, "]") {
			return nil, fmt.Errorf("unterminated vector literal %q", s)
		}
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}

	var fields []string
	if bracketed || strings.Contains(trimmed, ",") {
		fields = strings.Split(trimmed, ",")
	} else {
		fields = strings.Fields(trimmed)
	}

	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", f)
		}
		out = append(out, float32(v))
	}
	if len(out) == 0 {
		return nil, errEmptyVector
	}
	return out, nil
}

// splitTopK peels an optional trailing integer k off a search argument,
// leaving the vector literal. Absent or unparseable, k defaults to 5.
func splitTopK(rest string) (vector string, k int) {
	rest = strings.TrimSpace(rest)
	if i := strings.LastIndexByte(rest, ' '); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(rest[i+1:])); err == nil && n > 0 {
			return strings.TrimSpace(rest[:i]), n
		}
	}
	return rest, 5
}

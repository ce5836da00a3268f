package store

import (
	"strconv"
	"strings"

	"github.com/jward/graft/internal/text"
)

// marshalSpans encodes spans as "start:end,start:end" for storage.
func marshalSpans(spans []text.Span) string {
	if len(spans) == 0 {
		return ""
	}
	parts := make([]string, len(spans))
	for i, sp := range spans {
		parts[i] = strconv.Itoa(sp.Start) + ":" + strconv.Itoa(sp.End)
	}
	return strings.Join(parts, ",")
}

// unmarshalSpans decodes the marshalSpans encoding.
func unmarshalSpans(s string) []text.Span {
	if s == "" {
		return nil
	}
	var spans []text.Span
	for _, part := range strings.Split(s, ",") {
		start, end, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		a, err1 := strconv.Atoi(start)
		b, err2 := strconv.Atoi(end)
		if err1 != nil || err2 != nil {
			continue
		}
		spans = append(spans, text.NewSpan(a, b))
	}
	return spans
}

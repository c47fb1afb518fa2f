package retriever

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CanonicalKey derives a deterministic cache key from a filter mapping.
// Maps are rendered with sorted keys at every nesting level, so two
// structurally equal filter maps produce the same key regardless of
// insertion order. Sequences keep their order; scalars are rendered with
// their type so that, e.g., int(1) and "1" stay distinct. Keys and
// scalar values are quoted, so delimiter characters inside them cannot
// make two different maps render alike.
func CanonicalKey(filters map[string]any) string {
	if len(filters) == 0 {
		return ""
	}
	var b strings.Builder
	writeMap(&b, filters)
	return b.String()
}

func writeMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		writeValue(b, m[k])
	}
	b.WriteByte('}')
}

func writeValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		writeMap(b, val)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case []string:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "%T:%s", val, strconv.Quote(fmt.Sprint(val)))
	}
}

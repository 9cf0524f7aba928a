package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// evaluate applies filters and orders to docs, which must be sorted by ID.
// Like the hosted database, a document lacking a filtered or ordered field is
// not part of the result, and values of different types never match.
func evaluate(docs []docstore.Document, q docstore.Query) ([]docstore.Document, error) {
	for _, f := range q.Filters {
		switch f.Op {
		case docstore.OpEqual, docstore.OpGreaterOrEqual, docstore.OpLessOrEqual:
		default:
			return nil, fmt.Errorf("unsupported operator %q on %s", f.Op, f.Field)
		}
	}

	out := make([]docstore.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc.Data, q) {
			out = append(out, doc)
		}
	}

	if len(q.Orders) > 0 {
		// Stable keeps ID order for ties, so equal inputs give equal outputs.
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Orders {
				c, _ := compare(out[i].Data[o.Field], out[j].Data[o.Field])
				if c == 0 {
					continue
				}
				if o.Direction == docstore.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	return out, nil
}

func matches(data map[string]any, q docstore.Query) bool {
	for _, o := range q.Orders {
		if _, ok := data[o.Field]; !ok {
			return false
		}
	}
	for _, f := range q.Filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		c, ok := compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case docstore.OpEqual:
			if c != 0 {
				return false
			}
		case docstore.OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		case docstore.OpLessOrEqual:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// compare orders two values of the same kind. The second result is false
// when the values are not comparable.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

package docstore

import (
	"cmp"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDoc encodes v through bson and decodes it back into a bson.M, so that
// every backend sees the same field names and value types.
func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode %T: %w", v, err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("docstore: normalize %T: %w", v, err)
	}
	return m, nil
}

// ensureID returns the document id, assigning a new one when absent.
func ensureID(doc bson.M) string {
	if id, ok := doc[IDField].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	doc[IDField] = id
	return id
}

func decodeOne(doc bson.M, dest any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode: %w", err)
	}
	if err := bson.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("docstore: decode into %T: %w", dest, err)
	}
	return nil
}

// decodeAll fills dest, a pointer to a slice, with docs.
func decodeAll(docs []bson.M, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: dest must be a pointer to a slice, got %T", dest)
	}
	sv := dv.Elem()
	elemType := sv.Type().Elem()
	out := reflect.MakeSlice(sv.Type(), 0, len(docs))
	for _, d := range docs {
		ptr := reflect.New(elemType)
		if err := decodeOne(d, ptr.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, ptr.Elem())
	}
	sv.Set(out)
	return nil
}

// mergeFields returns a copy of doc with fields applied. The id is immutable.
func mergeFields(doc bson.M, fields map[string]any) (bson.M, error) {
	merged := make(bson.M, len(doc)+len(fields))
	for k, v := range doc {
		merged[k] = v
	}
	for k, v := range fields {
		if k == IDField {
			continue
		}
		merged[k] = v
	}
	return toDoc(merged)
}

// ─── In-process query evaluation (memory and SQL backends) ──────────────────

// selectDocs applies filters, sort and limit to docs, preserving the input
// order among equal sort keys.
func selectDocs(docs []bson.M, q Query) []bson.M {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		if matches(d, q.Filters) {
			out = append(out, d)
		}
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, s := range q.Sort {
				c := compareForSort(out[i][s.Field], out[j][s.Field])
				if c == 0 {
					continue
				}
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(doc bson.M, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false
		}
		c, ok := compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			if c != 0 {
				return false
			}
		case Lt:
			if c >= 0 {
				return false
			}
		case Lte:
			if c > 0 {
				return false
			}
		case Gt:
			if c <= 0 {
				return false
			}
		case Gte:
			if c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// uniqueViolation reports whether doc collides with another document on any
// of the unique fields.
func uniqueViolation(existing map[string]bson.M, doc bson.M, fields []string) bool {
	self, _ := doc[IDField].(string)
	for _, field := range fields {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		for id, other := range existing {
			if id == self {
				continue
			}
			if c, ok := compare(other[field], v); ok && c == 0 {
				return true
			}
		}
	}
	return false
}

// normalize maps bson-decoded and caller-supplied values onto a small set of
// comparable types: float64, string, bool and time.Time.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

// compare orders a and b. ok is false when the values are of different or
// incomparable types.
func compare(a, b any) (c int, ok bool) {
	na, nb := normalize(a), normalize(b)
	switch x := na.(type) {
	case float64:
		y, ok := nb.(float64)
		return cmp.Compare(x, y), ok
	case string:
		y, ok := nb.(string)
		return strings.Compare(x, y), ok
	case bool:
		y, ok := nb.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		y, ok := nb.(time.Time)
		return x.Compare(y), ok
	}
	return 0, false
}

// compareForSort is compare with missing and incomparable values ranked
// lowest.
func compareForSort(a, b any) int {
	if c, ok := compare(a, b); ok {
		return c
	}
	aNil, bNil := normalize(a) == nil, normalize(b) == nil
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return -1
	case bNil:
		return 1
	}
	return 0
}

package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Alias priority lists for upstream fields. The upstream API has renamed
// count fields over time, so each value is read from the first alias present.
var (
	KeyAliases      = []string{"key", "date", "timestamp", "path", "referrer", "country", "device", "browser", "name"}
	VisitorAliases  = []string{"visitors", "uniques", "devices"}
	PageviewAliases = []string{"pageViews", "pageviews", "hits", "total", "count"}
)

// Row is one upstream data row.
type Row map[string]any

// Payload is the common upstream response envelope.
type Payload struct {
	Data []Row `json:"data"`
}

// Point is a normalized row.
type Point struct {
	Key       string
	Visitors  int
	Pageviews int
}

// Normalize converts upstream rows using the alias priority lists.
func Normalize(rows []Row) []Point {
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, Point{
			Key:       r.String(KeyAliases...),
			Visitors:  r.Int(VisitorAliases...),
			Pageviews: r.Int(PageviewAliases...),
		})
	}
	return out
}

// lookup returns the value of the first alias present with a non-null value.
func (r Row) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := r[a]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first present alias as a string, or "".
func (r Row) String(aliases ...string) string {
	v, ok := r.lookup(aliases)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Int returns the first present alias as a non-negative int, defaulting to 0.
func (r Row) Int(aliases ...string) int {
	v, ok := r.lookup(aliases)
	if !ok {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0
		}
		f = n
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

package bag

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var titleSuffix = regexp.MustCompile(`(?i)\s+\bA\b$`)

// TidyTitle trims whitespace and strips the trailing standalone "A" marker
// some catalog titles carry ("Sunscreen A" becomes "Sunscreen").
func TidyTitle(title string) string {
	t := strings.TrimSpace(title)
	for {
		stripped := strings.TrimSpace(titleSuffix.ReplaceAllString(t, ""))
		if stripped == t {
			return t
		}
		t = stripped
	}
}

// Normalize coerces every line into its canonical form and drops lines that
// cannot exist: empty id or qty <= 0. For duplicate ids the first line wins.
// Normalize(Normalize(b)) is equal to Normalize(b).
func Normalize(b Bag) Bag {
	out := make(Bag, 0, len(b))
	seen := make(map[string]struct{}, len(b))
	for _, l := range b {
		l.Title = TidyTitle(l.Title)
		l.Price = cleanPrice(l.Price)
		if l.ID == "" || l.Qty <= 0 {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Decode parses a persisted bag. Entries with the wrong shape are coerced
// or dropped; only data that is not a JSON array is reported as an error.
func Decode(data []byte) (Bag, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bag: %w", err)
	}
	lines := make(Bag, 0, len(raw))
	for _, item := range raw {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			continue
		}
		lines = append(lines, lineFromFields(fields))
	}
	return Normalize(lines), nil
}

// Encode serializes the normalized bag.
func Encode(b Bag) ([]byte, error) {
	b = Normalize(b)
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bag: %w", err)
	}
	return data, nil
}

func lineFromFields(f map[string]any) Line {
	return Line{
		ID:    asString(f["id"]),
		Title: asString(f["title"]),
		Price: asNumber(f["price"]),
		Qty:   asQty(f["qty"]),
		Img:   asString(f["img"]),
	}
}

// maxQty bounds a decoded quantity so that huge values stay positive.
const maxQty = math.MaxInt32

func asQty(v any) int {
	return int(min(math.Floor(asNumber(v)), maxQty))
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asNumber(v any) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = f
	case bool:
		if t {
			n = 1
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func cleanPrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

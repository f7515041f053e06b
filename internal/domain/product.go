package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Product is an immutable snapshot of one catalog record, keyed by Code.
// The index caches it alongside the postings so scoring never needs the
// backing store.
type Product struct {
	Code              string   `json:"product_code"`
	Description       string   `json:"description,omitempty"`
	Category          string   `json:"category,omitempty"`
	Brand             string   `json:"brand,omitempty"`
	PartNumbers       []string `json:"part_numbers,omitempty"`
	CurrentPrice      float64  `json:"current_price"`
	QuantityAvailable int      `json:"quantity_available"`
	UnitOfMeasure     string   `json:"unit_of_measure,omitempty"`
	IsAvailable       bool     `json:"is_available"`
}

// Valid reports whether the product can be indexed.
func (p *Product) Valid() bool {
	return strings.TrimSpace(p.Code) != ""
}

// Clone returns a deep copy so callers cannot mutate a cached snapshot.
func (p Product) Clone() Product {
	if p.PartNumbers != nil {
		parts := make([]string, len(p.PartNumbers))
		copy(parts, p.PartNumbers)
		p.PartNumbers = parts
	}
	return p
}

// ProductFromMap converts a loosely typed catalog record into a Product.
// Values of unexpected types are coerced to text; part_numbers may be a
// single string or a list. IsAvailable defaults to true when absent.
func ProductFromMap(m map[string]any) Product {
	p := Product{
		Code:          textOf(m["product_code"]),
		Description:   textOf(m["description"]),
		Category:      textOf(m["category"]),
		Brand:         textOf(m["brand"]),
		UnitOfMeasure: textOf(m["unit_of_measure"]),
		IsAvailable:   true,
	}

	switch parts := m["part_numbers"].(type) {
	case string:
		if parts != "" {
			p.PartNumbers = []string{parts}
		}
	case []string:
		p.PartNumbers = append(p.PartNumbers, parts...)
	case []any:
		for _, v := range parts {
			if s := textOf(v); s != "" {
				p.PartNumbers = append(p.PartNumbers, s)
			}
		}
	}

	if v, ok := numberOf(m["current_price"]); ok {
		p.CurrentPrice = v
	} else if v, ok := numberOf(m["price"]); ok {
		p.CurrentPrice = v
	}
	if v, ok := numberOf(m["quantity_available"]); ok {
		p.QuantityAvailable = int(v)
	}
	if v, ok := m["is_available"].(bool); ok {
		p.IsAvailable = v
	}

	return p
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func numberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

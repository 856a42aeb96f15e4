package order

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// RawItem is one entry of a submitted cart payload. Storefront clients have
// historically sent two shapes: a nested item object carrying the catalog
// snapshot, or the same fields flattened onto the entry itself. Both are
// accepted; NormalizeItems resolves the precedence.
type RawItem struct {
	Item     *RawItemDetails `json:"item,omitempty"`
	Name     string          `json:"name,omitempty"`
	Price    json.RawMessage `json:"price,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
}

// RawItemDetails is the nested catalog snapshot inside a RawItem.
type RawItemDetails struct {
	Name     string          `json:"name,omitempty"`
	Price    json.RawMessage `json:"price,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// NormalizeItems converts a raw cart payload into the canonical line-item
// sequence. It is a pure transform: no I/O, no mutation of the input.
//
// Resolution order per field:
//   - name:     item.name, then name, then "Unknown"
//   - price:    item.price when the nested object carries one (even zero),
//     otherwise price; non-numeric or negative values degrade to 0
//   - imageUrl: item.imageUrl, then imageUrl, then ""
//   - quantity: quantity; non-numeric values degrade to 0
//
// Malformed numeric input degrading to zero instead of failing the whole
// request is a deliberate policy: a cart with one corrupt entry still checks
// out, and the zero amounts are visible in the stored snapshot.
func NormalizeItems(raw []RawItem) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyItems
	}

	items := make([]LineItem, len(raw))
	for i, r := range raw {
		name := r.Name
		price := r.Price
		imageURL := r.ImageURL
		if r.Item != nil {
			if r.Item.Name != "" {
				name = r.Item.Name
			}
			if len(r.Item.Price) > 0 {
				price = r.Item.Price
			}
			if r.Item.ImageURL != "" {
				imageURL = r.Item.ImageURL
			}
		}
		if name == "" {
			name = "Unknown"
		}

		items[i] = LineItem{
			Name:      name,
			UnitPrice: coercePrice(price),
			ImageURL:  imageURL,
			Quantity:  coerceQuantity(r.Quantity),
		}
	}
	return items, nil
}

// coercePrice parses a raw JSON value (number, quoted number, or anything
// else) into a non-negative decimal, degrading to zero on garbage.
func coercePrice(raw json.RawMessage) decimal.Decimal {
	s := rawScalar(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// coerceQuantity parses a raw JSON value into an integer quantity, degrading
// to zero on garbage. Fractional quantities truncate.
func coerceQuantity(raw json.RawMessage) int {
	s := rawScalar(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// rawScalar unwraps a JSON scalar to its textual form: numbers verbatim,
// strings without quotes, everything else (objects, arrays, null) empty.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	if raw[0] == '{' || raw[0] == '[' || raw[0] == 'n' || raw[0] == 't' || raw[0] == 'f' {
		return ""
	}
	return string(raw)
}

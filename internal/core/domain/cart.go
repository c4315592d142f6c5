package domain

import (
	"encoding/json"
	"strconv"
)

// Amount is a monetary value that tolerates corrupted persisted data:
// non-numeric JSON decodes as zero instead of failing the whole snapshot.
// Numeric strings are accepted.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*a = Amount(f)
			return nil
		}
	}
	*a = 0
	return nil
}

// Count is a quantity with the same decoding tolerance as Amount.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = Count(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*c = Count(f)
			return nil
		}
	}
	*c = 0
	return nil
}

// CartEntry is one line of the persisted cart snapshot. A snapshot holds at
// most one entry per ID.
type CartEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Price           Amount   `json:"price"`
	Quantity        Count    `json:"quantity"`
	SelectedSize    string   `json:"selectedSize,omitempty"`
	SelectedOptions []string `json:"selectedOptions"`
}

// CartEntryID is the content-addressed merge key: adds for the same item
// name and size collapse into one entry.
func CartEntryID(name, selectedSize string) string {
	return name + selectedSize
}

// CartTotal sums price*quantity over the snapshot. Corrupt values were
// already coerced to zero on decode, so the result is always a number.
func CartTotal(entries []CartEntry) float64 {
	var total float64
	for _, e := range entries {
		total += float64(e.Price) * float64(e.Quantity)
	}
	return total
}

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PriceSpec is either a flat price or a price-by-size map on the wire.
type PriceSpec struct {
	Flat   float64
	BySize map[string]float64
}

func (p *PriceSpec) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		p.Flat = f
		p.BySize = nil
		return nil
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err == nil {
		p.Flat = 0
		p.BySize = m
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			p.Flat = f
			p.BySize = nil
			return nil
		}
	}
	return fmt.Errorf("unsupported price shape: %s", data)
}

func (p PriceSpec) MarshalJSON() ([]byte, error) {
	if p.BySize != nil {
		return json.Marshal(p.BySize)
	}
	return json.Marshal(p.Flat)
}

// Resolve returns the price for the selected size, falling back to the flat
// price when the item is not sized. ok is false when the item is sized but
// the selected size has no price.
func (p PriceSpec) Resolve(size string) (price float64, ok bool) {
	if p.BySize != nil {
		v, found := p.BySize[size]
		return v, found
	}
	return p.Flat, true
}

// MenuItem is a single orderable item.
type MenuItem struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       PriceSpec `json:"price"`
	Category    string    `json:"category,omitempty"`
}

// Addon is an extra that can be attached to an item.
type Addon struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Menu is the normalized menu model.
type Menu struct {
	DrinkOfTheDay *MenuItem  `json:"drink_of_the_day,omitempty"`
	Items         []MenuItem `json:"menu"`
	Addons        []Addon    `json:"addons"`
}

// ParseMenu builds a Menu from a JSON payload. It accepts both the wire
// shape, where items sit under full_menu, and an already-normalized Menu
// serialization, so parsing a parsed menu again yields an equal menu.
func ParseMenu(payload []byte) (*Menu, error) {
	var wire struct {
		DrinkOfTheDay *MenuItem `json:"drink_of_the_day"`
		FullMenu      *struct {
			Menu   []MenuItem `json:"menu"`
			Addons []Addon    `json:"addons"`
		} `json:"full_menu"`
		Menu   []MenuItem `json:"menu"`
		Addons []Addon    `json:"addons"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("parse menu payload: %w", err)
	}

	m := &Menu{DrinkOfTheDay: wire.DrinkOfTheDay}
	if wire.FullMenu != nil {
		m.Items = wire.FullMenu.Menu
		m.Addons = wire.FullMenu.Addons
	} else {
		m.Items = wire.Menu
		m.Addons = wire.Addons
	}
	return m, nil
}

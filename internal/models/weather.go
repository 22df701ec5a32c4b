package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// RawRecord is a decoded OpenWeatherMap payload. Any key at any level may be
// absent or have an unexpected shape. A nil RawRecord is an absent document.
type RawRecord map[string]any

// Unavailable is the placeholder rendered for fields the upstream did not supply.
const Unavailable = "N/A"

// Reading is a numeric observation or the unavailable sentinel.
// The zero value is unavailable, which keeps it distinct from a real 0.
type Reading struct {
	Value float64
	Valid bool
}

// Available returns a valid Reading holding v.
func Available(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

func (r Reading) String() string {
	if !r.Valid {
		return Unavailable
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

// MarshalJSON encodes an unavailable reading as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// WeatherView is the fully defaulted view model for one city.
type WeatherView struct {
	City        string    `json:"city"`
	Description string    `json:"description"`
	Temperature Reading   `json:"temperature"`
	Humidity    Reading   `json:"humidity"`
	WindSpeed   Reading   `json:"windSpeed"`
	Sunrise     string    `json:"sunrise"`
	Sunset      string    `json:"sunset"`
	SunriseTime time.Time `json:"-"`
	SunsetTime  time.Time `json:"-"`
	Units       string    `json:"units"`
	UnitsLetter string    `json:"unitsLetter"`
	// Defaulted names the fields that fell back to their default.
	Defaulted   []string  `json:"-"`
}

// CurrentPage is the context for the single-city results page.
type CurrentPage struct {
	Date    time.Time   `json:"date"`
	Weather WeatherView `json:"weather"`
}

// Comparison holds two independently normalized cities.
type Comparison struct {
	Date        time.Time   `json:"date"`
	City1       WeatherView `json:"city1"`
	City2       WeatherView `json:"city2"`
	Units       string      `json:"units"`
	UnitsLetter string      `json:"unitsLetter"`
}

// HomePage is the context for the landing page forms.
type HomePage struct {
	Date    time.Time
	MinDate time.Time
	MaxDate time.Time
}

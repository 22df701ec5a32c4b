// Package normalize turns loosely structured OpenWeatherMap payloads into
// fully defaulted view models.
//
// Every field of the view is read through a declared path with a declared
// default. An absent key and a value of the wrong shape are handled the same
// way: the default is substituted. Normalize never fails.
package normalize

import (
	"encoding/json"
	"math"
	"time"

	"github.com/kjstillabower/weather-compare/internal/models"
)

// TimeLayout is the display format for sunrise and sunset.
const TimeLayout = "2006-01-02 15:04:05"

// Field identifies a view model field sourced from the raw record.
type Field string

const (
	FieldDescription Field = "description"
	FieldTemperature Field = "temperature"
	FieldHumidity    Field = "humidity"
	FieldWindSpeed   Field = "wind_speed"
	FieldSunrise     Field = "sunrise"
	FieldSunset      Field = "sunset"
)

// Rule is the source path of a field and the value used when the path does
// not resolve. Path segments are object keys (string) or sequence indexes (int).
type Rule struct {
	Path    []any
	Default any
}

// Rules is the complete extraction table.
var Rules = map[Field]Rule{
	FieldDescription: {Path: []any{"weather", 0, "description"}, Default: models.Unavailable},
	FieldTemperature: {Path: []any{"main", "temp"}, Default: models.Reading{}},
	FieldHumidity:    {Path: []any{"main", "humidity"}, Default: models.Reading{}},
	FieldWindSpeed:   {Path: []any{"wind", "speed"}, Default: models.Reading{}},
	FieldSunrise:     {Path: []any{"sys", "sunrise"}, Default: int64(0)},
	FieldSunset:      {Path: []any{"sys", "sunset"}, Default: int64(0)},
}

// Normalizer formats timestamps in a fixed location. The zero value formats in UTC.
// A Normalizer holds no per-call state and is safe for concurrent use.
type Normalizer struct {
	Location *time.Location
}

// New returns a Normalizer that formats timestamps in loc (UTC when nil).
func New(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc}
}

var utc = New(time.UTC)

// Normalize normalizes raw with timestamps formatted in UTC.
func Normalize(raw models.RawRecord, city, units string) models.WeatherView {
	return utc.Normalize(raw, city, units)
}

// Normalize builds a WeatherView for city from raw. A nil raw record is
// treated as a document with every field absent. units defaults to metric.
func (n *Normalizer) Normalize(raw models.RawRecord, city, units string) models.WeatherView {
	units = ResolveUnits(units)
	var missed []string
	miss := func(f Field, ok bool) {
		if !ok {
			missed = append(missed, string(f))
		}
	}

	description, ok := text(raw, FieldDescription)
	miss(FieldDescription, ok)
	temperature, ok := reading(raw, FieldTemperature)
	miss(FieldTemperature, ok)
	humidity, ok := reading(raw, FieldHumidity)
	miss(FieldHumidity, ok)
	wind, ok := reading(raw, FieldWindSpeed)
	miss(FieldWindSpeed, ok)
	sunrise, ok := n.timestamp(raw, FieldSunrise)
	miss(FieldSunrise, ok)
	sunset, ok := n.timestamp(raw, FieldSunset)
	miss(FieldSunset, ok)

	return models.WeatherView{
		City:        city,
		Description: description,
		Temperature: temperature,
		Humidity:    humidity,
		WindSpeed:   wind,
		Sunrise:     sunrise.Format(TimeLayout),
		Sunset:      sunset.Format(TimeLayout),
		SunriseTime: sunrise,
		SunsetTime:  sunset,
		Units:       units,
		UnitsLetter: Letter(units),
		Defaulted:   missed,
	}
}

// Zone returns the location timestamps are formatted in.
func (n *Normalizer) Zone() *time.Location {
	return n.location()
}

// Defaulted lists the fields of v whose source path did not resolve during
// normalization, in extraction order.
func Defaulted(v models.WeatherView) []Field {
	if len(v.Defaulted) == 0 {
		return nil
	}
	out := make([]Field, len(v.Defaulted))
	for i, f := range v.Defaulted {
		out[i] = Field(f)
	}
	return out
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Location == nil {
		return time.UTC
	}
	return n.Location
}

func text(raw models.RawRecord, f Field) (string, bool) {
	rule := Rules[f]
	if v, ok := lookup(raw, rule.Path); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return rule.Default.(string), false
}

func reading(raw models.RawRecord, f Field) (models.Reading, bool) {
	rule := Rules[f]
	if v, ok := lookup(raw, rule.Path); ok {
		if x, ok := number(v); ok {
			return models.Available(x), true
		}
	}
	return rule.Default.(models.Reading), false
}

func (n *Normalizer) timestamp(raw models.RawRecord, f Field) (time.Time, bool) {
	rule := Rules[f]
	sec, found := rule.Default.(int64), false
	if v, ok := lookup(raw, rule.Path); ok {
		if x, ok := number(v); ok && x >= math.MinInt64 && x < math.MaxInt64 {
			sec, found = int64(x), true
		}
	}
	return time.Unix(sec, 0).In(n.location()), found
}

// lookup walks path through raw. It reports false when any segment is
// missing, has the wrong container type, or resolves to JSON null.
func lookup(raw models.RawRecord, path []any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	var cur any = map[string]any(raw)
	for _, seg := range path {
		var ok bool
		switch key := seg.(type) {
		case string:
			cur, ok = field(cur, key)
		case int:
			cur, ok = index(cur, key)
		}
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func field(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out, ok := m[key]
		return out, ok
	case models.RawRecord:
		out, ok := m[key]
		return out, ok
	}
	return nil, false
}

func index(v any, i int) (any, bool) {
	switch s := v.(type) {
	case []any:
		if i >= 0 && i < len(s) {
			return s[i], true
		}
	case []map[string]any:
		if i >= 0 && i < len(s) {
			return s[i], true
		}
	}
	return nil, false
}

// number accepts decoded JSON numbers and Go numeric kinds. Strings are not
// coerced, and non-finite values are rejected.
func number(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

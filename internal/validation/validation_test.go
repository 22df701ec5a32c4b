package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateLocation_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLocation(tc.input, 1, 100)
			if !errors.Is(err, ErrLocationEmpty) {
				t.Errorf("error = %v, want ErrLocationEmpty", err)
			}
		})
	}
}

func TestValidateLocation_Bounds(t *testing.T) {
	if _, err := ValidateLocation("x", 2, 100); !errors.Is(err, ErrLocationTooShort) {
		t.Errorf("short: error = %v, want ErrLocationTooShort", err)
	}
	if got, err := ValidateLocation("ab", 2, 100); err != nil || got != "ab" {
		t.Errorf("min boundary: got (%q, %v)", got, err)
	}

	s100 := strings.Repeat("a", 100)
	if _, err := ValidateLocation(s100, 1, 100); err != nil {
		t.Errorf("max boundary: err = %v", err)
	}
	if _, err := ValidateLocation(s100+"a", 1, 100); !errors.Is(err, ErrLocationTooLong) {
		t.Errorf("over max: err = %v, want ErrLocationTooLong", err)
	}
	// Length counts runes, not bytes.
	if _, err := ValidateLocation(strings.Repeat("ü", 100), 1, 100); err != nil {
		t.Errorf("100 multibyte runes: err = %v", err)
	}
}

func TestValidateLocation_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "sea/ttle"},
		{"backslash", "sea\\ttle"},
		{"question", "sea?ttle"},
		{"hash", "sea#ttle"},
		{"control", "sea\x00ttle"},
		{"percent", "sea%ttle"},
		{"ampersand", "sea&ttle"},
		{"angle", "<script>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLocation(tc.input, 1, 100)
			if !errors.Is(err, ErrLocationInvalidChars) {
				t.Errorf("error = %v, want ErrLocationInvalidChars", err)
			}
		})
	}
}

func TestValidateLocation_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Seattle", "Seattle"},
		{"with space", "New York", "New York"},
		{"comma", "London,uk", "London,uk"},
		{"hyphen", "Saint-Étienne", "Saint-Étienne"},
		{"period and apostrophe", "St. John's", "St. John's"},
		{"typographic apostrophe", "L’Aquila", "L’Aquila"},
		{"trimmed", "  Boston  ", "Boston"},
		{"case preserved", "rOmE", "rOmE"},
		{"digits", "Area51", "Area51"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocation(tc.input, 1, 100)
			if err != nil {
				t.Fatalf("ValidateLocation() err = %v", err)
			}
			if got != tc.want {
				t.Errorf("ValidateLocation() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateField_NamesParameter(t *testing.T) {
	_, err := ValidateField("city2", "", 1, 100)
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FieldError", err)
	}
	if fe.Field != "city2" {
		t.Errorf("Field = %q, want city2", fe.Field)
	}
	if !errors.Is(err, ErrLocationEmpty) {
		t.Errorf("error = %v, want to wrap ErrLocationEmpty", err)
	}
	if err.Error() != "city2: city is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

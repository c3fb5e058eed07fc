package dateutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, time.March, 7, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		pattern string
		want    string
		wantErr error
	}{
		// Single tokens
		{name: "YYYY renders four-digit year", pattern: "YYYY", want: "2025"},
		{name: "YY renders two-digit year", pattern: "YY", want: "25"},
		{name: "MMMM renders full month", pattern: "MMMM", want: "March"},
		{name: "MMM renders short month", pattern: "MMM", want: "Mar"},
		{name: "MM renders padded month", pattern: "MM", want: "03"},
		{name: "M renders bare month", pattern: "M", want: "3"},
		{name: "DD renders padded day", pattern: "DD", want: "07"},
		{name: "D renders bare day", pattern: "D", want: "7"},

		// Combined patterns
		{name: "compact date", pattern: "YYYYMMDD", want: "20250307"},
		{name: "iso-like date", pattern: "YYYY-MM-DD", want: "2025-03-07"},
		{name: "default filename suffix", pattern: DefaultFilenamePattern, want: "_Linecard_20250307"},
		{name: "default title", pattern: DefaultTitlePattern, want: "2025 Line Card"},

		// Literals
		{name: "bracketed text is literal", pattern: "[Day] D", want: "Day 7"},
		{name: "empty brackets are dropped", pattern: "YYYY[]MM", want: "202503"},
		{name: "digits in brackets stay literal", pattern: "[Q2 ]YYYY", want: "Q2 2025"},
		{name: "unknown characters pass through", pattern: "YYYY_x", want: "2025_x"},

		// Errors
		{name: "empty pattern", pattern: "", wantErr: ErrInvalidDateFormat},
		{name: "unclosed bracket", pattern: "YYYY [Line", wantErr: ErrInvalidDateFormat},
		{name: "too long", pattern: strings.Repeat("Y", MaxPatternLength+1), wantErr: ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Format(tt.pattern, ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Format(%q) error = %v, want %v", tt.pattern, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Format(%q) unexpected error: %v", tt.pattern, err)
			}
			if got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate(DefaultTitlePattern); err != nil {
		t.Errorf("Validate(%q) = %v, want nil", DefaultTitlePattern, err)
	}
	if err := Validate("[oops"); !errors.Is(err, ErrInvalidDateFormat) {
		t.Errorf("Validate(%q) = %v, want ErrInvalidDateFormat", "[oops", err)
	}
}

package deploy

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"simple", "Smith Plumbing", "smith-plumbing"},
		{"apostrophe", "O'Brien & Sons Builders", "obrien-sons-builders"},
		{"curly apostrophe", "Murphy’s Drainage", "murphys-drainage"},
		{"diacritics", "Kāpiti Fencing Ltd", "kapiti-fencing-ltd"},
		{"punctuation runs", "A+B  --  Electrical!!", "a-b-electrical"},
		{"leading trailing", "  -Smith-  ", "smith"},
		{"already clean", "waikato-roofing", "waikato-roofing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	got := Slugify(strings.Repeat("plumber ", 20))
	if len(got) > 63 {
		t.Errorf("len = %d, want <= 63", len(got))
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("truncation left a stray hyphen: %q", got)
	}
}

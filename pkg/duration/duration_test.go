package duration

import "testing"

func TestParseMinutes_Structured(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"PT1H30M", 90, true},
		{"PT45M", 45, true},
		{"P1D", 1440, true},
		{"P1DT2H", 1560, true},
		{"pt1h30m", 90, true},
		{"PT30S", 1, true},
		{"PT90S", 2, true},
		{"PT0M", 0, false},
		{"P", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMinutes(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseMinutes(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMinutes(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseMinutes_Loose(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"45", 45, true},
		{"0", 0, false},
		{"2:15", 135, true},
		{"2 : 15", 135, true},
		{"2:15:30", 135, true},
		{"1 hour 30 minutes", 90, true},
		{"30 min prep, 1 hr cook", 90, true},
		{"1.5h", 90, true},
		{"90s", 2, true},
		{"2 days", 2880, true},
		{"0 minutes", 0, false},
		{"about an hour", 0, false},
		{"   ", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMinutes(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseMinutes(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMinutes(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseMinutesNumber(t *testing.T) {
	if got, ok := ParseMinutesNumber(42); !ok || got != 42 {
		t.Errorf("ParseMinutesNumber(42) = %d, %v, want 42, true", got, ok)
	}
	if got, ok := ParseMinutesNumber(42.6); !ok || got != 43 {
		t.Errorf("ParseMinutesNumber(42.6) = %d, %v, want 43, true", got, ok)
	}
	if _, ok := ParseMinutesNumber(0); ok {
		t.Error("ParseMinutesNumber(0) ok = true, want false")
	}
	if _, ok := ParseMinutesNumber(-5); ok {
		t.Error("ParseMinutesNumber(-5) ok = true, want false")
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PT1H30M", "1 hour 30 minutes"},
		{"PT2H", "2 hours 0 minutes"},
		{"PT45M", "45 minutes"},
		{"PT1M", "1 minute"},
		{"PT30S", "30 seconds"},
		{"PT1S", "1 second"},
		{"P1DT1H", "25 hours 0 minutes"},
		{"45 minutes or so", "45 minutes or so"},
		{"overnight", "overnight"},
		{"P", "P"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatMinutes(tt.input); got != tt.want {
			t.Errorf("FormatMinutes(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatServings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4", "4 servings"},
		{"Makes 12 muffins", "12 servings"},
		{"serves 6-8", "6 servings"},
		{"a crowd", "a crowd"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatServings(tt.input); got != tt.want {
			t.Errorf("FormatServings(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

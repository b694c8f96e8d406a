package snapshot

import (
	"testing"
	"time"
)

func TestParseTimestamp_WholeSeconds(t *testing.T) {
	ts, err := ParseTimestamp("1000000000")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}

	if ts.Unix() != 1000000000 {
		t.Errorf("Expected seconds 1000000000, got %d", ts.Unix())
	}
	if ts.Fraction() != "" {
		t.Errorf("Expected empty fraction, got %q", ts.Fraction())
	}
}

func TestParseTimestamp_FractionPreservesWidth(t *testing.T) {
	tests := []struct {
		input string
		sec   int64
		frac  string
	}{
		{"1000000000.1", 1000000000, "1"},
		{"1000000000.123", 1000000000, "123"},
		{"1000000000.123456", 1000000000, "123456"},
		{"1000000000.000", 1000000000, "000"},
	}

	for _, tt := range tests {
		ts, err := ParseTimestamp(tt.input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) failed: %v", tt.input, err)
		}
		if ts.Unix() != tt.sec {
			t.Errorf("ParseTimestamp(%q) seconds = %d, expected %d", tt.input, ts.Unix(), tt.sec)
		}
		if ts.Fraction() != tt.frac {
			t.Errorf("ParseTimestamp(%q) fraction = %q, expected %q", tt.input, ts.Fraction(), tt.frac)
		}
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "123.4x", "12.3.4"} {
		if _, err := ParseTimestamp(input); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", input)
		}
	}
}

func TestTimestamp_StringRoundTrip(t *testing.T) {
	for _, input := range []string{"1000000000", "1000000000.123456", "1735689600.5"} {
		ts, err := ParseTimestamp(input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) failed: %v", input, err)
		}
		if ts.String() != input {
			t.Errorf("String() = %q, expected %q", ts.String(), input)
		}
	}
}

func TestFromTime_TrimsTrailingZeros(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	ts := FromTime(base.Add(123 * time.Millisecond))
	if ts.Fraction() != "123" {
		t.Errorf("Expected fraction \"123\", got %q", ts.Fraction())
	}

	ts = FromTime(base)
	if ts.Fraction() != "" {
		t.Errorf("Expected empty fraction for whole second, got %q", ts.Fraction())
	}
}

func TestFromTime_KeepsMillisecondWidth(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	// 100ms would trim down to "1"; the clock rendering must stay at least
	// three digits wide so the filename derivation accepts it.
	ts := FromTime(base.Add(100 * time.Millisecond))
	if ts.Fraction() != "100" {
		t.Errorf("Expected fraction \"100\", got %q", ts.Fraction())
	}

	if _, err := Filename(ts); err != nil {
		t.Errorf("Filename should accept clock-derived timestamps: %v", err)
	}
}

func TestCalendar_Fields(t *testing.T) {
	// 2001-09-09 01:46:40 UTC
	ts, err := ParseTimestamp("1000000000.123456")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}

	c := ts.Calendar()
	if c.Year != 2001 || c.Month != 9 || c.Day != 9 {
		t.Errorf("Wrong date: %04d-%02d-%02d", c.Year, c.Month, c.Day)
	}
	if c.Hour != 1 || c.Minute != 46 || c.Second != 40 {
		t.Errorf("Wrong time: %02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	if c.Fraction != "123456" {
		t.Errorf("Expected fraction \"123456\", got %q", c.Fraction)
	}
}

func TestCalendar_FormatKeepsFullFraction(t *testing.T) {
	// The record-store key keeps every fractional digit, even though the
	// filename derivation truncates to milliseconds.
	ts, err := ParseTimestamp("1000000000.123456")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}

	got := ts.Calendar().Format()
	expected := "2001-09-09 01:46:40.123456"
	if got != expected {
		t.Errorf("Format() = %q, expected %q", got, expected)
	}

	name, err := Filename(ts)
	if err != nil {
		t.Fatalf("Filename failed: %v", err)
	}
	if name != "46_40_123.jpg" {
		t.Errorf("Filename = %q, expected \"46_40_123.jpg\"", name)
	}
}

func TestCalendar_FormatWithoutFraction(t *testing.T) {
	ts, err := ParseTimestamp("1000000000")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}

	got := ts.Calendar().Format()
	if got != "2001-09-09 01:46:40" {
		t.Errorf("Format() = %q, expected \"2001-09-09 01:46:40\"", got)
	}
}

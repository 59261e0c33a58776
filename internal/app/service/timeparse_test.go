package service

import (
	"testing"
	"time"
)

func TestParseWhen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		dateTok string
		timeTok string
		want    time.Time
		ok      bool
	}{
		{"hoy más tarde", "hoy", "18:30", time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC), true},
		{"today en inglés", "today", "18:30", time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC), true},
		{"mañana temprano", "mañana", "08:00", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), true},
		{"manana sin tilde", "manana", "08:00", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), true},
		{"fecha ISO", "2025-12-24", "21:00", time.Date(2025, 12, 24, 21, 0, 0, 0, time.UTC), true},
		{"fecha DD/MM", "24/12/2025", "21:00", time.Date(2025, 12, 24, 21, 0, 0, 0, time.UTC), true},
		{"hoy pero ya pasó", "hoy", "09:00", time.Time{}, false},
		{"justo ahora tampoco", "hoy", "12:00", time.Time{}, false},
		{"fecha pasada", "2024-01-01", "10:00", time.Time{}, false},
		{"fecha ilegible", "pasado-mañana", "10:00", time.Time{}, false},
		{"hora ilegible", "hoy", "25:99", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseWhen(tc.dateTok, tc.timeTok, now)
			if ok != tc.ok {
				t.Fatalf("ok=%v, esperaba %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("got=%v, esperaba %v", got, tc.want)
			}
		})
	}
}

func TestParseSpan(t *testing.T) {
	cases := []struct {
		tok  string
		want time.Duration
		ok   bool
	}{
		{"45s", 45 * time.Second, true},
		{"30m", 30 * time.Minute, true},
		{"2h", 2 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"2H", 2 * time.Hour, true},
		{"0m", 0, false},
		{"-5m", 0, false},
		{"m", 0, false},
		{"10x", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseSpan(tc.tok)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseSpan(%q) = (%v, %v), esperaba (%v, %v)", tc.tok, got, ok, tc.want, tc.ok)
		}
	}
}

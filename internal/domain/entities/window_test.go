package entities

import (
	"testing"
	"time"
)

func TestDispatchWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 3, 30, 0, time.UTC)
	w := DispatchWindow(now, 5*time.Minute, time.Minute)

	if w.From != "09:58" {
		t.Fatalf("expected From 09:58, got %s", w.From)
	}
	if w.To != "10:04" {
		t.Fatalf("expected To 10:04, got %s", w.To)
	}
	if w.Wraps() {
		t.Fatal("daytime window must not wrap")
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{From: "09:58", To: "10:04"}

	cases := []struct {
		joinTime string
		want     bool
	}{
		{"09:57", false},
		{"09:58", true}, // inclusive lower bound
		{"10:00", true},
		{"10:03", true},
		{"10:04", false}, // exclusive upper bound
		{"23:00", false},
	}
	for _, c := range cases {
		if got := w.Contains(c.joinTime); got != c.want {
			t.Errorf("Contains(%q) = %v, want %v", c.joinTime, got, c.want)
		}
	}
}

func TestWindowWrapsMidnight(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 2, 0, 0, time.UTC)
	w := DispatchWindow(now, 5*time.Minute, time.Minute)

	if w.From != "23:57" || w.To != "00:03" {
		t.Fatalf("unexpected window [%s, %s)", w.From, w.To)
	}
	if !w.Wraps() {
		t.Fatal("window crossing midnight must wrap")
	}

	cases := []struct {
		joinTime string
		want     bool
	}{
		{"23:56", false},
		{"23:57", true},
		{"23:59", true},
		{"00:00", true},
		{"00:02", true},
		{"00:03", false},
		{"12:00", false},
	}
	for _, c := range cases {
		if got := w.Contains(c.joinTime); got != c.want {
			t.Errorf("Contains(%q) = %v, want %v", c.joinTime, got, c.want)
		}
	}
}

func TestTimeOfDayZeroPads(t *testing.T) {
	got := TimeOfDay(time.Date(2026, 9, 1, 7, 5, 0, 0, time.UTC))
	if got != "07:05" {
		t.Fatalf("expected 07:05, got %s", got)
	}
}

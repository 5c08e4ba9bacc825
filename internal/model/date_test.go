package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := DateOf(time.Date(2026, 10, 19, 23, 30, 0, 0, loc))
	if got.String() != "2026-10-19" {
		t.Errorf("expected 2026-10-19, got %s", got)
	}
}

func TestDateAddDaysAcrossMonth(t *testing.T) {
	d := NewDate(2026, time.October, 28)
	if got := d.AddDays(7).String(); got != "2026-11-04" {
		t.Errorf("expected 2026-11-04, got %s", got)
	}
	if got := d.AddDays(-28).String(); got != "2026-09-30" {
		t.Errorf("expected 2026-09-30, got %s", got)
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		src  any
		want string
	}{
		{"2026-10-19", "2026-10-19"},
		{[]byte("2026-01-02"), "2026-01-02"},
		{"2026-03-04 00:00:00+00:00", "2026-03-04"},
		{time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC), "2026-05-06"},
		{nil, ""},
	}

	for _, tt := range tests {
		var d Date
		if err := d.Scan(tt.src); err != nil {
			t.Errorf("Scan(%v): %v", tt.src, err)
			continue
		}
		if d.String() != tt.want {
			t.Errorf("Scan(%v) = %q, want %q", tt.src, d.String(), tt.want)
		}
	}

	var d Date
	if err := d.Scan("not a date"); err == nil {
		t.Error("expected error scanning garbage")
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Expires Date `json:"expires"`
	}
	if err := json.Unmarshal([]byte(`{"expires":"2026-12-31"}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.Expires.String() != "2026-12-31" {
		t.Errorf("expected 2026-12-31, got %s", payload.Expires)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"expires":"2026-12-31"}` {
		t.Errorf("unexpected JSON %s", out)
	}

	if err := json.Unmarshal([]byte(`{"expires":"31.12.2026"}`), &payload); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestDateComparisons(t *testing.T) {
	a := NewDate(2026, 10, 19)
	b := a.AddDays(1)
	if !a.Before(b) || !b.After(a) || a.Equal(b) {
		t.Error("unexpected ordering between consecutive dates")
	}
	if !a.Equal(NewDate(2026, 10, 19)) {
		t.Error("expected equal dates")
	}
}

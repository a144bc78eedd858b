package subjective

import (
	"errors"
	"testing"
	"time"
)

func TestNewBoundary(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		minute  int
		wantErr bool
	}{
		{"midnight", 0, 0, false},
		{"four am", 4, 0, false},
		{"last minute", 23, 59, false},
		{"hour too large", 24, 0, true},
		{"negative hour", -1, 0, true},
		{"minute too large", 4, 60, true},
		{"negative minute", 4, -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoundary(tt.hour, tt.minute)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBoundary(%d, %d) error = %v, wantErr %v", tt.hour, tt.minute, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBoundary) {
				t.Errorf("expected ErrInvalidBoundary, got %v", err)
			}
		})
	}
}

func TestParseBoundary(t *testing.T) {
	b, err := ParseBoundary("04:30")
	if err != nil {
		t.Fatalf("ParseBoundary() error = %v", err)
	}
	if b.Hour != 4 || b.Minute != 30 {
		t.Errorf("ParseBoundary() = %+v, want 4:30", b)
	}
	if b.String() != "04:30" {
		t.Errorf("String() = %q, want 04:30", b.String())
	}

	for _, in := range []string{"", "4am", "25:00", "04:61"} {
		if _, err := ParseBoundary(in); !errors.Is(err, ErrInvalidBoundary) {
			t.Errorf("ParseBoundary(%q) error = %v, want ErrInvalidBoundary", in, err)
		}
	}
}

func TestResolve(t *testing.T) {
	loc := time.FixedZone("TEST", 2*3600)
	fourAM := Boundary{Hour: 4}

	tests := []struct {
		name     string
		instant  time.Time
		boundary Boundary
		wantDay  string
		wantTime string
	}{
		{
			name:     "before boundary belongs to previous day",
			instant:  time.Date(2023, 2, 1, 2, 30, 0, 0, loc),
			boundary: fourAM,
			wantDay:  "2023-01-31",
			wantTime: "02:30",
		},
		{
			name:     "at boundary starts new day",
			instant:  time.Date(2023, 2, 1, 4, 0, 0, 0, loc),
			boundary: fourAM,
			wantDay:  "2023-02-01",
			wantTime: "04:00",
		},
		{
			name:     "afternoon",
			instant:  time.Date(2023, 2, 1, 16, 5, 0, 0, loc),
			boundary: fourAM,
			wantDay:  "2023-02-01",
			wantTime: "16:05",
		},
		{
			name:     "year rollover",
			instant:  time.Date(2024, 1, 1, 0, 15, 0, 0, loc),
			boundary: fourAM,
			wantDay:  "2023-12-31",
			wantTime: "00:15",
		},
		{
			name:     "leap day",
			instant:  time.Date(2024, 3, 1, 3, 59, 0, 0, loc),
			boundary: fourAM,
			wantDay:  "2024-02-29",
			wantTime: "03:59",
		},
		{
			name:     "midnight boundary is plain date",
			instant:  time.Date(2023, 2, 1, 0, 0, 0, 0, loc),
			boundary: Midnight,
			wantDay:  "2023-02-01",
			wantTime: "00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, tod, err := Resolve(tt.instant, tt.boundary)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if day != tt.wantDay || tod != tt.wantTime {
				t.Errorf("Resolve() = (%s, %s), want (%s, %s)", day, tod, tt.wantDay, tt.wantTime)
			}
		})
	}
}

func TestResolveInvalidBoundary(t *testing.T) {
	_, _, err := Resolve(time.Now(), Boundary{Hour: 30})
	if !errors.Is(err, ErrInvalidBoundary) {
		t.Errorf("Resolve() error = %v, want ErrInvalidBoundary", err)
	}
}

func TestMidnightMatchesCalendarDate(t *testing.T) {
	loc := time.FixedZone("TEST", -7*3600)
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, loc)
	for i := 0; i < 48*4; i++ {
		instant := start.Add(time.Duration(i) * 17 * time.Minute)
		day, _, err := Resolve(instant, Midnight)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if want := instant.Format("2006-01-02"); day != want {
			t.Fatalf("Resolve(%v, midnight) day = %s, want %s", instant, day, want)
		}
	}
}

func TestMergeIsLeftInverseOfResolve(t *testing.T) {
	loc := time.FixedZone("TEST", 9*3600)
	boundaries := []Boundary{Midnight, {Hour: 4}, {Hour: 5, Minute: 30}, {Hour: 23, Minute: 59}}
	start := time.Date(2023, 1, 30, 0, 0, 0, 0, loc)

	for _, b := range boundaries {
		for i := 0; i < 24*60; i += 7 {
			instant := start.Add(time.Duration(i) * time.Minute)
			day, tod, err := Resolve(instant, b)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			merged, err := Merge(day, tod, b, loc)
			if err != nil {
				t.Fatalf("Merge(%s, %s) error = %v", day, tod, err)
			}
			if !merged.Equal(instant.Truncate(time.Minute)) {
				t.Fatalf("boundary %s: Merge(Resolve(%v)) = %v", b, instant, merged)
			}
		}
	}
}

func TestMergeRejectsMalformedKeys(t *testing.T) {
	if _, err := Merge("2023-13-01", "10:00", Midnight, time.UTC); err == nil {
		t.Error("expected error for malformed day")
	}
	if _, err := Merge("2023-01-01", "10h", Midnight, time.UTC); err == nil {
		t.Error("expected error for malformed time")
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2023, 2, 1, 3, 0, 0, 0, time.UTC)
	day, err := Today(now, Boundary{Hour: 4})
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if day != "2023-01-31" {
		t.Errorf("Today() = %s, want 2023-01-31", day)
	}
}

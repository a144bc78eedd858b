package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestCombineDateAndTime(t *testing.T) {
	loc := time.FixedZone("TEST", -5*3600)

	got, err := CombineDateAndTime("2023-02-01", "16:05", loc)
	if err != nil {
		t.Fatalf("CombineDateAndTime() error = %v", err)
	}
	want := time.Date(2023, 2, 1, 16, 5, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("CombineDateAndTime() = %v, want %v", got, want)
	}

	if _, err := CombineDateAndTime("02/01/2023", "16:05", loc); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := CombineDateAndTime("2023-02-01", "4pm", loc); err == nil {
		t.Error("expected error for malformed time")
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"date ok", ValidateDateFormat, "2023-01-31", true},
		{"date invalid day", ValidateDateFormat, "2023-02-30", false},
		{"timezone local", ValidateTimezone, "Local", true},
		{"timezone empty", ValidateTimezone, "", true},
		{"timezone invalid", ValidateTimezone, "Mars/Olympus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("validate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

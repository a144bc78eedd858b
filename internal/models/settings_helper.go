package models

import (
	"fmt"

	"github.com/julianstephens/dcalt/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingDayStart:
			settings.DayStart = value
		case constants.SettingTargetCalories:
			if _, err := fmt.Sscanf(value, "%d", &settings.TargetCalories); err != nil {
				return Settings{}, fmt.Errorf("parsing target_calories: %w", err)
			}
		case constants.SettingAccentColor:
			settings.AccentColor = value
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingMaxDayCalories:
			if _, err := fmt.Sscanf(value, "%d", &settings.MaxDayCalories); err != nil {
				return Settings{}, fmt.Errorf("parsing max_day_calories: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingDayStart:       settings.DayStart,
		constants.SettingTargetCalories: fmt.Sprintf("%d", settings.TargetCalories),
		constants.SettingAccentColor:    settings.AccentColor,
		constants.SettingTimezone:       settings.Timezone,
		constants.SettingMaxDayCalories: fmt.Sprintf("%d", settings.MaxDayCalories),
	}
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings() Settings {
	s := Settings{}
	ApplyDefaultSettings(&s)
	return s
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.DayStart == "" {
		settings.DayStart = constants.DefaultDayStart
	}
	if settings.TargetCalories == 0 {
		settings.TargetCalories = constants.DefaultTargetCalories
	}
	if settings.AccentColor == "" {
		settings.AccentColor = constants.DefaultAccentColor
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.MaxDayCalories == 0 {
		settings.MaxDayCalories = constants.MaxDayCalories
	}
}

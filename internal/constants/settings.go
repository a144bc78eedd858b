package constants

const (
	SettingDayStart       = "day_start"
	SettingTargetCalories = "target_calories"
	SettingAccentColor    = "accent_color"
	SettingTimezone       = "timezone"
	SettingMaxDayCalories = "max_day_calories"

	// Default Settings Values
	DefaultDayStart       = "04:00"
	DefaultTargetCalories = 2000
	DefaultAccentColor    = "#1E90FF"
	DefaultTimezone       = "Local" // Use system local timezone by default
)

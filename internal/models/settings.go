package models

// Settings represents installation-wide settings
type Settings struct {
	DayStart       string `json:"day_start"`        // the time the subjective day starts, e.g. "04:00"
	TargetCalories int    `json:"target_calories"`  // daily calorie goal shown by the widget
	AccentColor    string `json:"accent_color"`     // display colour passed through to day runs and the widget
	Timezone       string `json:"timezone"`         // IANA timezone name, or "Local" for the system timezone
	MaxDayCalories int    `json:"max_day_calories"` // upper bound for a day total before overflow is reported
}

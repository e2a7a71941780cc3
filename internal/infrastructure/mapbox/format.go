package mapbox

import (
	"fmt"
	"math"
)

const metersPerMile = 1609.344

// FormatMiles - текст расстояния в стиле Distance Matrix с units=imperial
func FormatMiles(meters float64) string {
	miles := meters / metersPerMile
	switch {
	case miles < 0.1:
		return fmt.Sprintf("%d ft", int(math.Round(meters*3.28084)))
	case miles < 100:
		return fmt.Sprintf("%.1f mi", miles)
	default:
		return fmt.Sprintf("%d mi", int(math.Round(miles)))
	}
}

// FormatDuration - "1 min", "12 mins", "1 hour 5 mins", "2 days 3 hours"
func FormatDuration(seconds float64) string {
	minutes := int(math.Round(seconds / 60))
	if minutes < 1 {
		minutes = 1
	}

	days := minutes / (24 * 60)
	hours := (minutes % (24 * 60)) / 60
	mins := minutes % 60

	switch {
	case days > 0:
		if hours == 0 {
			return plural(days, "day")
		}
		return plural(days, "day") + " " + plural(hours, "hour")
	case hours > 0:
		if mins == 0 {
			return plural(hours, "hour")
		}
		return plural(hours, "hour") + " " + plural(mins, "min")
	default:
		return plural(mins, "min")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

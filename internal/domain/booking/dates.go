package booking

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// RelativePrefix prefixes relative weekday expressions such as "neste-onsdag".
const RelativePrefix = "neste-"

var ukedager = map[string]time.Weekday{
	"mandag":  time.Monday,
	"tirsdag": time.Tuesday,
	"onsdag":  time.Wednesday,
	"torsdag": time.Thursday,
	"fredag":  time.Friday,
	"lørdag":  time.Saturday,
	"søndag":  time.Sunday,
}

// Ukedager returns the weekday names accepted after RelativePrefix, monday first.
func Ukedager() []string {
	return []string{"mandag", "tirsdag", "onsdag", "torsdag", "fredag", "lørdag", "søndag"}
}

var weekdayNames = [...]string{"søndag", "mandag", "tirsdag", "onsdag", "torsdag", "fredag", "lørdag"}

var monthNames = [...]string{"januar", "februar", "mars", "april", "mai", "juni", "juli", "august", "september", "oktober", "november", "desember"}

// ClockTime converts the short time tokens used by the booking site to a clock time.
// "07" -> "07:00", "7" -> "07:00", "8.5" -> "08:30". Only half hours are understood.
func ClockTime(token string) string {
	parts := strings.Split(token, ".")
	hour := parts[0]
	for len(hour) < 2 {
		hour = "0" + hour
	}
	minute := "00"
	if len(parts) > 1 {
		minute = strings.Replace(parts[1], "5", "30", 1)
	}
	return hour + ":" + minute
}

// NextWeekday returns the next date falling on target, strictly after from's calendar day.
// The result is pinned to midday so DST shifts never move it to another date.
func NextWeekday(target time.Weekday, from time.Time) time.Time {
	noon := time.Date(from.Year(), from.Month(), from.Day(), 12, 0, 0, 0, from.Location())
	offset := (int(target) - int(noon.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return noon.AddDate(0, 0, offset)
}

// ResolveDate turns either an ISO date or a "neste-<ukedag>" expression into an ISO date.
// relative is set to the original expression when one was given.
func ResolveDate(value string, now time.Time) (date, relative string, err error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, RelativePrefix) {
		day := strings.TrimPrefix(value, RelativePrefix)
		wd, ok := ukedager[day]
		if !ok {
			return "", "", fmt.Errorf("invalid ukedag %q", day)
		}
		return NextWeekday(wd, now).Format(dateLayout), value, nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", "", fmt.Errorf("invalid date %q (want YYYY-MM-DD or %s<ukedag>)", value, RelativePrefix)
	}
	return value, "", nil
}

// FormatDateNO formats an ISO date the way Norwegian long dates are written,
// e.g. "søndag 10. mars 2024". Unparseable input is returned unchanged.
func FormatDateNO(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d. %s %d", weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// FormatTimeAndPlace renders "08:30 søndag 10. mars 2024 på Sukkerbiten".
func FormatTimeAndPlace(place Place, date, timeToken string) string {
	return fmt.Sprintf("%s %s på %s", ClockTime(timeToken), FormatDateNO(date), place.Title())
}

package timezone

import "time"

// Location is the portal's timezone, dates scraped from it carry no zone.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in Paris because the machine running an extraction
// may not be, which shifts <time.Time>.Day() around midnight
func Now() time.Time {
	return time.Now().In(Location)
}

// Day truncates t to midnight of its calendar day in Location.
func Day(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// Tomorrow is the default delivery date to filter on.
func Tomorrow(now time.Time) time.Time {
	return Day(now).AddDate(0, 0, 1)
}

// GetWeek returns the monday and sunday of the week containing `now`.
func GetWeek(now time.Time) (time.Time, time.Time) {
	day := Day(now)
	// time.Sunday is 0, shift so that monday is 0
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

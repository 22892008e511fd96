package domain

import "time"

// nyc is the pipeline's reference timezone. Every derived temporal feature and
// the default extraction window are defined in NYC local time.
var nyc = mustLoadNYC()

func mustLoadNYC() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("load America/New_York timezone: " + err.Error())
	}
	return loc
}

// NYCLocation returns the America/New_York timezone.
func NYCLocation() *time.Location {
	return nyc
}

// Season is a meteorological season derived from the month.
type Season string

const (
	Winter Season = "WINTER"
	Spring Season = "SPRING"
	Summer Season = "SUMMER"
	Fall   Season = "FALL"
)

// SeasonOf maps a month to its meteorological season: DJF winter, MAM spring,
// JJA summer, SON fall.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	}
	return Fall
}

// TimeFeatures holds the calendar attributes derived from a local timestamp.
// The same derivation feeds both cleaned weather rows and datetime dimension
// rows so the two can never disagree.
type TimeFeatures struct {
	Hour       int
	DayOfWeek  string
	DayOfMonth int
	Month      time.Month
	Year       int
	Quarter    int
	IsWeekend  bool
	IsRushHour bool
	IsNight    bool
	Season     Season
}

// rushHours are the NYC commute hours: 7-9 in the morning, 16-19 in the evening.
var rushHours = map[int]bool{7: true, 8: true, 9: true, 16: true, 17: true, 18: true, 19: true}

// DeriveTimeFeatures computes calendar attributes from a local timestamp.
// Weekend uses the Monday=0 day index convention, so Saturday and Sunday are
// indices 5 and 6. Night spans 20:00 through 05:59.
func DeriveTimeFeatures(t time.Time) TimeFeatures {
	hour := t.Hour()
	// Monday=0 .. Sunday=6.
	dayIndex := (int(t.Weekday()) + 6) % 7

	return TimeFeatures{
		Hour:       hour,
		DayOfWeek:  t.Weekday().String(),
		DayOfMonth: t.Day(),
		Month:      t.Month(),
		Year:       t.Year(),
		Quarter:    (int(t.Month())-1)/3 + 1,
		IsWeekend:  dayIndex >= 5,
		IsRushHour: rushHours[hour],
		IsNight:    hour >= 20 || hour < 6,
		Season:     SeasonOf(t.Month()),
	}
}

// DefaultDateRange returns the most recent complete 30-day window in NYC local
// time: yesterday as the end date and 29 days earlier as the start date, both
// truncated to midnight.
func DefaultDateRange() (start, end time.Time) {
	now := clock.Now().In(nyc)
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, nyc).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -29)
	return start, end
}

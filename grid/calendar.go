package grid

// Calendar holds the static time-of-day / weekend / holiday background
// load model for a resource (spec.md §3 "Resource calendar"). Weekday
// and holiday vectors are 24-slot arrays in [0, 0.95].
type Calendar struct {
	WeekdayLoad [24]float64
	HolidayLoad [24]float64

	// Holidays is the set of day-of-year values (1-366) treated as
	// holidays.
	Holidays map[int]bool

	// WeekendDays is the set of day-of-week values (0=Sunday..6=Saturday)
	// treated as weekend.
	WeekendDays map[int]bool

	TimeZoneOffset int // hours, in [-12, 12]
	Seed           int64
}

// NewCalendar creates a Calendar with zero background load and the
// conventional Saturday/Sunday weekend.
func NewCalendar(seed int64) *Calendar {
	return &Calendar{
		Holidays:       make(map[int]bool),
		WeekendDays:    map[int]bool{0: true, 6: true},
		TimeZoneOffset: 0,
		Seed:           seed,
	}
}

// dayInfo is the calendar coordinates of a point in simulated time,
// assuming t is seconds since simulation init and day 0 starts at t=0.
type dayInfo struct {
	dayOfYear int
	dayOfWeek int
	hour      int
}

func (c *Calendar) coordinatesAt(t float64) dayInfo {
	totalSeconds := int64(t)
	secondsPerDay := int64(24 * 3600)
	day := totalSeconds / secondsPerDay
	secondsIntoDay := totalSeconds % secondsPerDay
	if secondsIntoDay < 0 {
		secondsIntoDay += secondsPerDay
		day--
	}
	hour := int(secondsIntoDay / 3600)
	return dayInfo{
		dayOfYear: int(day%365) + 1,
		dayOfWeek: int(((day % 7) + 7) % 7),
		hour:      hour,
	}
}

// BackgroundLoadAt returns the calendar-derived background utilization at
// simulated time t, in [0, 0.95] (spec.md §4.5 load accounting).
//
// SPEC_FULL.md supplemented feature #3: a day that is both a configured
// holiday and falls on a weekend day-of-week uses the holiday vector —
// holiday takes precedence over weekend, and weekend takes precedence
// over an ordinary weekday, matching the original GridSim
// ResourceCalendar's lookup order.
func (c *Calendar) BackgroundLoadAt(t float64) float64 {
	info := c.coordinatesAt(t)
	if c.Holidays[info.dayOfYear] || c.WeekendDays[info.dayOfWeek] {
		return c.HolidayLoad[info.hour]
	}
	return c.WeekdayLoad[info.hour]
}

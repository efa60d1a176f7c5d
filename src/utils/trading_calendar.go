package utils

import (
	"strings"
	"time"

	"trading-backend/src/logger"

	"github.com/scmhub/calendar"
)

const defaultMIC = "xnys"

// TradingCalendar answers market-hours questions for one exchange using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// NewTradingCalendar loads the calendar for an ISO 10383 MIC (xnys, xnas, ...).
// Unknown MICs fall back to xnys, and a missing calendar falls back to
// Mon-Fri 09:30-16:00 New York time.
func NewTradingCalendar(mic string, log *logger.Logger) *TradingCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = defaultMIC
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		log.Warning("TradingCalendar: unknown MIC '%s', using %s", mic, defaultMIC)
		mic = defaultMIC
		cal = calendar.GetCalendar(mic)
	}

	if cal == nil {
		log.Warning("TradingCalendar: failed to load calendar '%s'. Using simple fallback (Mon-Fri 09:30-16:00 New York).", mic)
		nyLoc, err := time.LoadLocation("America/New_York")
		if err != nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}

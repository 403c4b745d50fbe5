/*
schedule.go - Normal-hours schedule and entry ceilings

PURPOSE:
  ScheduleConfig answers two questions for the rest of the engine:
  what counts as "normal" time on a given weekday, and how many hours an
  employee may log per day and per week.

DEFAULTS:
  Monday-Thursday  07:30-17:30
  Friday           07:30-16:30
  Saturday         07:30-12:00
  Sunday           no normal window (all time is overtime)
  Weekly limit     44h
  Daily maximum    9h every day

SETTINGS KEYS:
  normal_hours_start       weekday + Friday window start
  normal_hours_end         Monday-Thursday window end
  normal_hours_end_friday  Friday window end
  saturday_hours_start     Saturday window start
  saturday_hours_end       Saturday window end
  weekly_limit             weekly ceiling in hours
  daily_limit              per-day maximum for every day
  max_hours_<weekday>      per-day override, e.g. max_hours_sunday ("0" closes the day)

FALLBACKS:
  An absent key resolves to its default. The key is recorded in
  Fallbacks and logged with source=default so operators can tell it
  apart from a configured value. It never blocks operation.
*/
package timesheet

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings keys understood by ScheduleFromSettings.
const (
	KeyNormalStart     = "normal_hours_start"
	KeyNormalEnd       = "normal_hours_end"
	KeyNormalEndFriday = "normal_hours_end_friday"
	KeySaturdayStart   = "saturday_hours_start"
	KeySaturdayEnd     = "saturday_hours_end"
	KeyWeeklyLimit     = "weekly_limit"
	KeyDailyLimit      = "daily_limit"
	keyMaxHoursPrefix  = "max_hours_"
)

// Default values used when a setting is absent.
var (
	DefaultNormalStart     = NewClock(7, 30)
	DefaultNormalEnd       = NewClock(17, 30)
	DefaultNormalEndFriday = NewClock(16, 30)
	DefaultSaturdayStart   = NewClock(7, 30)
	DefaultSaturdayEnd     = NewClock(12, 0)
	DefaultWeeklyLimit     = decimal.NewFromInt(44)
	DefaultDailyLimit      = decimal.NewFromInt(9)
)

// MaxHoursKey returns the per-day maximum key for a weekday.
func MaxHoursKey(wd time.Weekday) string {
	return keyMaxHoursPrefix + strings.ToLower(wd.String())
}

// IsSettingKey reports whether key is one ScheduleFromSettings reads.
func IsSettingKey(key string) bool {
	switch key {
	case KeyNormalStart, KeyNormalEnd, KeyNormalEndFriday, KeySaturdayStart,
		KeySaturdayEnd, KeyWeeklyLimit, KeyDailyLimit:
		return true
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if key == MaxHoursKey(wd) {
			return true
		}
	}
	return false
}

// ScheduleConfig is read-only for the duration of an evaluation.
type ScheduleConfig struct {
	Weekday  Window
	Friday   Window
	Saturday Window

	Weekly decimal.Decimal
	Daily  [7]decimal.Decimal // indexed by time.Weekday

	// Fallbacks lists the settings keys that resolved to defaults.
	Fallbacks []string
}

// DefaultSchedule returns the schedule with every documented default.
func DefaultSchedule() ScheduleConfig {
	cfg := ScheduleConfig{
		Weekday:  Window{Start: DefaultNormalStart, End: DefaultNormalEnd},
		Friday:   Window{Start: DefaultNormalStart, End: DefaultNormalEndFriday},
		Saturday: Window{Start: DefaultSaturdayStart, End: DefaultSaturdayEnd},
		Weekly:   DefaultWeeklyLimit,
	}
	for i := range cfg.Daily {
		cfg.Daily[i] = DefaultDailyLimit
	}
	return cfg
}

// NormalWindow returns the normal-hours window for a calendar weekday.
// Sunday has none.
func (c ScheduleConfig) NormalWindow(wd time.Weekday) (Window, bool) {
	switch wd {
	case time.Sunday:
		return Window{}, false
	case time.Friday:
		return c.Friday, true
	case time.Saturday:
		return c.Saturday, true
	default:
		return c.Weekday, true
	}
}

// WeeklyLimit is the ceiling for a Monday to Sunday week.
func (c ScheduleConfig) WeeklyLimit() decimal.Decimal { return c.Weekly }

// DailyMax is the ceiling for a calendar weekday. Zero means closed.
func (c ScheduleConfig) DailyMax(wd time.Weekday) decimal.Decimal { return c.Daily[wd] }

// IsFallback reports whether key resolved to its default.
func (c ScheduleConfig) IsFallback(key string) bool {
	for _, k := range c.Fallbacks {
		if k == key {
			return true
		}
	}
	return false
}

// =============================================================================
// SETTINGS RESOLUTION
// =============================================================================

// ScheduleFromSettings resolves a settings map into a ScheduleConfig.
// logger may be nil.
func ScheduleFromSettings(settings map[string]string, logger *slog.Logger) (ScheduleConfig, error) {
	r := resolver{settings: settings, logger: logger}
	cfg := DefaultSchedule()

	start := r.clock(KeyNormalStart, DefaultNormalStart)
	cfg.Weekday = Window{Start: start, End: r.clock(KeyNormalEnd, DefaultNormalEnd)}
	cfg.Friday = Window{Start: start, End: r.clock(KeyNormalEndFriday, DefaultNormalEndFriday)}
	cfg.Saturday = Window{
		Start: r.clock(KeySaturdayStart, DefaultSaturdayStart),
		End:   r.clock(KeySaturdayEnd, DefaultSaturdayEnd),
	}
	cfg.Weekly = r.hours(KeyWeeklyLimit, DefaultWeeklyLimit)

	daily := r.hours(KeyDailyLimit, DefaultDailyLimit)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		cfg.Daily[wd] = r.hours(MaxHoursKey(wd), daily)
	}

	if r.err != nil {
		return ScheduleConfig{}, r.err
	}
	cfg.Fallbacks = r.fallbacks
	return cfg, nil
}

// Settings renders the schedule back into a settings map.
func (c ScheduleConfig) Settings() map[string]string {
	m := map[string]string{
		KeyNormalStart:     c.Weekday.Start.String(),
		KeyNormalEnd:       c.Weekday.End.String(),
		KeyNormalEndFriday: c.Friday.End.String(),
		KeySaturdayStart:   c.Saturday.Start.String(),
		KeySaturdayEnd:     c.Saturday.End.String(),
		KeyWeeklyLimit:     c.Weekly.String(),
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		m[MaxHoursKey(wd)] = c.Daily[wd].String()
	}
	return m
}

type resolver struct {
	settings  map[string]string
	logger    *slog.Logger
	fallbacks []string
	err       error
}

func (r *resolver) lookup(key string) (string, bool) {
	v, ok := r.settings[key]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		r.fallbacks = append(r.fallbacks, key)
		if r.logger != nil {
			r.logger.Debug("schedule setting resolved", "key", key, "source", "default")
		}
		return "", false
	}
	if r.logger != nil {
		r.logger.Debug("schedule setting resolved", "key", key, "source", "settings", "value", v)
	}
	return v, true
}

func (r *resolver) clock(key string, def Clock) Clock {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	c, err := ParseClock(v)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return c
}

func (r *resolver) hours(key string, def decimal.Decimal) decimal.Decimal {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		r.fail(key, v)
		return def
	}
	return d
}

func (r *resolver) fail(key, value string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q", ErrMalformedSetting, key, value)
	}
}

package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepeatType describes how often a routine recurs.
type RepeatType string

const (
	RepeatDaily    RepeatType = "daily"
	RepeatWeekly   RepeatType = "weekly"
	RepeatMonthly  RepeatType = "monthly"
	RepeatWeekdays RepeatType = "weekdays"
	RepeatWeekends RepeatType = "weekends"
	RepeatCustom   RepeatType = "custom"
)

func (rt RepeatType) IsValid() bool {
	switch rt {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatWeekdays, RepeatWeekends, RepeatCustom:
		return true
	default:
		return false
	}
}

// TaskTemplate is the blueprint a routine instantiates tasks from.
type TaskTemplate struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// TaskTemplates is stored as a JSON text column.
type TaskTemplates []TaskTemplate

func (t TaskTemplates) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal task templates: %w", err)
	}
	return string(b), nil
}

func (t *TaskTemplates) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan task templates: unsupported type %T", src)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, t)
}

// Weekdays is a set of custom repeat days, stored as a JSON text column.
// Values follow time.Weekday (Sunday = 0).
type Weekdays []time.Weekday

func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal weekdays: %w", err)
	}
	return string(b), nil
}

func (w *Weekdays) Scan(src any) error {
	if src == nil {
		*w = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan weekdays: unsupported type %T", src)
	}
	if len(data) == 0 {
		*w = nil
		return nil
	}
	return json.Unmarshal(data, w)
}

// Routine generates tasks on a recurring schedule. Generation is pulled, not
// scheduled: callers ask for the tasks due on a given date and the routine
// remembers the last date it produced anything for.
type Routine struct {
	ID             int64         `json:"id" db:"id"`
	OwnerID        uuid.UUID     `json:"owner_id" db:"owner_id"`
	Name           string        `json:"name" db:"name"`
	Description    string        `json:"description" db:"description"`
	RepeatType     RepeatType    `json:"repeat_type" db:"repeat_type"`
	RepeatInterval int           `json:"repeat_interval" db:"repeat_interval"`
	CustomDays     Weekdays      `json:"custom_days,omitempty" db:"custom_days"`
	StartDate      time.Time     `json:"start_date" db:"start_date"`
	EndDate        *time.Time    `json:"end_date" db:"end_date"`
	PreferredTime  *string       `json:"preferred_time" db:"preferred_time"` // "HH:MM"
	IsActive       bool          `json:"is_active" db:"is_active"`
	LastGenerated  *time.Time    `json:"last_generated" db:"last_generated"`
	Templates      TaskTemplates `json:"templates" db:"templates"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

func (r *Routine) interval() int {
	if r.RepeatInterval < 1 {
		return 1
	}
	return r.RepeatInterval
}

// ShouldGenerate reports whether the routine is due to produce tasks for the
// given date. A routine generates at most once per calendar day.
func (r *Routine) ShouldGenerate(date time.Time) bool {
	if !r.IsActive || len(r.Templates) == 0 {
		return false
	}

	day := truncateDay(date)
	if day.Before(truncateDay(r.StartDate)) {
		return false
	}
	if r.EndDate != nil && day.After(truncateDay(*r.EndDate)) {
		return false
	}
	if r.LastGenerated != nil && sameDay(*r.LastGenerated, day) {
		return false
	}

	return r.matchesPattern(day)
}

func (r *Routine) matchesPattern(day time.Time) bool {
	start := truncateDay(r.StartDate)
	weekday := day.Weekday()

	switch r.RepeatType {
	case RepeatDaily:
		days := int(day.Sub(start).Hours() / 24)
		return days%r.interval() == 0
	case RepeatWeekly:
		days := int(day.Sub(start).Hours() / 24)
		return (days/7)%r.interval() == 0 && weekday == start.Weekday()
	case RepeatMonthly:
		months := (day.Year()-start.Year())*12 + int(day.Month()) - int(start.Month())
		return day.Day() == start.Day() && months%r.interval() == 0
	case RepeatWeekdays:
		return weekday >= time.Monday && weekday <= time.Friday
	case RepeatWeekends:
		return weekday == time.Saturday || weekday == time.Sunday
	case RepeatCustom:
		for _, d := range r.CustomDays {
			if d == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// DueTimeOn resolves the routine's preferred time of day on the given date,
// or nil when no preference is set.
func (r *Routine) DueTimeOn(date time.Time) *time.Time {
	if r.PreferredTime == nil {
		return nil
	}
	var hour, min int
	if _, err := fmt.Sscanf(*r.PreferredTime, "%d:%d", &hour, &min); err != nil {
		return nil
	}
	due := time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, date.Location())
	return &due
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

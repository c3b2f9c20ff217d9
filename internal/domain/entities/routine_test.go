package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeRoutine(rt RepeatType, start time.Time) Routine {
	return Routine{
		RepeatType: rt,
		StartDate:  start,
		IsActive:   true,
		Templates:  TaskTemplates{{Title: "do it"}},
	}
}

func TestRoutineShouldGenerateDaily(t *testing.T) {
	// 2024-06-03 is a Monday.
	start := day(2024, 6, 3)
	r := activeRoutine(RepeatDaily, start)

	assert.True(t, r.ShouldGenerate(start))
	assert.True(t, r.ShouldGenerate(day(2024, 6, 4)))
	assert.False(t, r.ShouldGenerate(day(2024, 6, 2)), "before start date")

	r.RepeatInterval = 2
	assert.True(t, r.ShouldGenerate(day(2024, 6, 5)))
	assert.False(t, r.ShouldGenerate(day(2024, 6, 4)))
}

func TestRoutineShouldGenerateWeekly(t *testing.T) {
	start := day(2024, 6, 3)
	r := activeRoutine(RepeatWeekly, start)

	assert.True(t, r.ShouldGenerate(day(2024, 6, 10)), "next Monday")
	assert.False(t, r.ShouldGenerate(day(2024, 6, 11)), "Tuesday")

	r.RepeatInterval = 2
	assert.False(t, r.ShouldGenerate(day(2024, 6, 10)), "off week")
	assert.True(t, r.ShouldGenerate(day(2024, 6, 17)))
}

func TestRoutineShouldGenerateMonthly(t *testing.T) {
	start := day(2024, 1, 15)
	r := activeRoutine(RepeatMonthly, start)

	assert.True(t, r.ShouldGenerate(day(2024, 2, 15)))
	assert.False(t, r.ShouldGenerate(day(2024, 2, 14)))
	assert.False(t, r.ShouldGenerate(day(2024, 2, 16)))
}

func TestRoutineShouldGenerateWeekdaysAndWeekends(t *testing.T) {
	start := day(2024, 6, 1)

	weekdays := activeRoutine(RepeatWeekdays, start)
	assert.True(t, weekdays.ShouldGenerate(day(2024, 6, 3)), "Monday")
	assert.False(t, weekdays.ShouldGenerate(day(2024, 6, 8)), "Saturday")

	weekends := activeRoutine(RepeatWeekends, start)
	assert.False(t, weekends.ShouldGenerate(day(2024, 6, 3)), "Monday")
	assert.True(t, weekends.ShouldGenerate(day(2024, 6, 8)), "Saturday")
	assert.True(t, weekends.ShouldGenerate(day(2024, 6, 9)), "Sunday")
}

func TestRoutineShouldGenerateCustomDays(t *testing.T) {
	r := activeRoutine(RepeatCustom, day(2024, 6, 1))
	r.CustomDays = Weekdays{time.Tuesday, time.Thursday}

	assert.True(t, r.ShouldGenerate(day(2024, 6, 4)), "Tuesday")
	assert.True(t, r.ShouldGenerate(day(2024, 6, 6)), "Thursday")
	assert.False(t, r.ShouldGenerate(day(2024, 6, 5)), "Wednesday")
}

func TestRoutineShouldGenerateGuards(t *testing.T) {
	start := day(2024, 6, 3)

	inactive := activeRoutine(RepeatDaily, start)
	inactive.IsActive = false
	assert.False(t, inactive.ShouldGenerate(start))

	empty := activeRoutine(RepeatDaily, start)
	empty.Templates = nil
	assert.False(t, empty.ShouldGenerate(start))

	ended := activeRoutine(RepeatDaily, start)
	end := day(2024, 6, 5)
	ended.EndDate = &end
	assert.True(t, ended.ShouldGenerate(day(2024, 6, 5)))
	assert.False(t, ended.ShouldGenerate(day(2024, 6, 6)))

	generated := activeRoutine(RepeatDaily, start)
	last := day(2024, 6, 4)
	generated.LastGenerated = &last
	assert.False(t, generated.ShouldGenerate(day(2024, 6, 4)), "already generated today")
	assert.True(t, generated.ShouldGenerate(day(2024, 6, 5)))
}

func TestRoutineDueTimeOn(t *testing.T) {
	r := Routine{}
	assert.Nil(t, r.DueTimeOn(day(2024, 6, 3)))

	preferred := "09:30"
	r.PreferredTime = &preferred
	due := r.DueTimeOn(day(2024, 6, 3))
	require.NotNil(t, due)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC), *due)

	bad := "morning"
	r.PreferredTime = &bad
	assert.Nil(t, r.DueTimeOn(day(2024, 6, 3)))
}

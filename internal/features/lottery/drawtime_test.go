package lottery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleNext(t *testing.T) {
	s := NewSchedule([]int{14, 16}, time.UTC)

	day := func(h, m int) time.Time {
		return time.Date(2026, 3, 1, h, m, 0, 0, time.UTC)
	}

	// Утро: ближайший час — 14:00
	assert.Equal(t, day(14, 0), s.Next(day(9, 30)))

	// Между окнами — 16:00
	assert.Equal(t, day(16, 0), s.Next(day(14, 30)))

	// Ровно в 14:00 — строго после, значит 16:00
	assert.Equal(t, day(16, 0), s.Next(day(14, 0)))

	// Вечер: первый час следующего дня
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), s.Next(day(17, 0)))
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), s.Next(day(16, 0)))
}

func TestScheduleNextUnsortedHours(t *testing.T) {
	// Часы сортируются при создании
	s := NewSchedule([]int{16, 14}, time.UTC)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 14, s.Next(now).Hour())
}

func TestScheduleNextTimezone(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	s := NewSchedule([]int{14, 16}, loc)

	// 05:00 UTC = 13:00 по поясу лотереи → ближайший час 14:00 местного
	now := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)
	next := s.Next(now)
	assert.Equal(t, 14, next.In(loc).Hour())
	assert.Equal(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC).Unix(), next.Unix())
}

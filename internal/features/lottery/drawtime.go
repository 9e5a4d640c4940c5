// Package lottery — drawtime.go вычисляет время следующего тиража.
// Правило фиксированное: ближайший из настроенных часов розыгрыша
// (по умолчанию 14:00 и 16:00 по часовому поясу лотереи), чистая функция.
package lottery

import (
	"sort"
	"time"
)

// Schedule — суточное расписание тиражей.
type Schedule struct {
	Hours []int          // Часы розыгрыша по местному времени, 0–23
	Loc   *time.Location // Часовой пояс расписания
}

// NewSchedule создаёт расписание с отсортированными часами.
func NewSchedule(hours []int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]int, len(hours))
	copy(sorted, hours)
	sort.Ints(sorted)
	return Schedule{Hours: sorted, Loc: loc}
}

// Next возвращает ближайший будущий момент розыгрыша строго после now.
// Если все часы на сегодня уже прошли — первый час завтрашнего дня.
func (s Schedule) Next(now time.Time) time.Time {
	local := now.In(s.Loc)

	for _, h := range s.Hours {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, s.Loc)
		if candidate.After(local) {
			return candidate
		}
	}

	// Все часы сегодня прошли — берём первый час завтра
	tomorrow := local.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), s.Hours[0], 0, 0, 0, s.Loc)
}

// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм и времени.
package common

import (
	"fmt"
	"strconv"
	"time"
)

// PluralizeCrystals возвращает правильную форму слова «кристалл» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "кристалл" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "кристалла" (2, 3, 4, 22, ...)
//   - Остальные случаи → "кристаллов" (0, 5-20, 25-30, 100, ...)
func PluralizeCrystals(n int64) string {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "кристалл"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "кристалла"
	}

	return "кристаллов"
}

// PluralizeTickets возвращает правильную форму слова «билет».
func PluralizeTickets(n int64) string {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "билет"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "билета"
	}
	return "билетов"
}

// GroupDigits форматирует число с разделителями тысяч: 1200000000 → "1 200 000 000".
// Суммы лотереи измеряются в мелких единицах, без разделителей они нечитаемы.
func GroupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// FormatAmount форматирует сумму в читабельную строку.
// Пример: FormatAmount(150) → "150 кристаллов"
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%s %s", GroupDigits(amount), PluralizeCrystals(amount))
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в заданном часовом поясе.
// Используется для отображения времени тиражей и транзакций.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// LoadLocation загружает часовой пояс по имени.
// Если не удалось загрузить — используем фиксированное смещение.
func LoadLocation(name string, fallbackOffsetHours int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, fallbackOffsetHours*60*60)
	}
	return loc
}

// Package leaderboard ведёт таблицу рекордов: счётчики билетов, донатов
// и побед по каждому игроку. Данные производные и не авторитетные —
// их пополняют остальные модули по ходу своих операций.
package leaderboard

import "time"

// Entry — строка таблицы рекордов одного игрока.
// Все счётчики монотонно растут; запись создаётся лениво при
// первой активности игрока.
type Entry struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`         // Telegram user ID
	TicketsBought  int64     `db:"tickets_bought"`  // Куплено билетов за всё время
	DonationsGiven int64     `db:"donations_given"` // Сумма донатов за всё время
	DrawsWon       int64     `db:"draws_won"`       // Выиграно тиражей
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// TopEntry — строка топа с отображаемым именем игрока.
type TopEntry struct {
	UserID         int64
	DisplayName    string
	TicketsBought  int64
	DonationsGiven int64
	DrawsWon       int64
}

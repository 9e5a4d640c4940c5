// Package treasury управляет кристаллами: балансами игроков и общей казной
// лотереи. models.go описывает структуры для таблиц balances, treasury_pool
// и transactions.
package treasury

import "time"

// PoolID — id единственной строки казны.
const PoolID = 1

// Balance представляет баланс игрока.
// Каждый участник имеет ровно одну запись в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`           // ID записи
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс
	TotalEarned int64     `db:"total_earned"` // Сколько всего получено
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего потрачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Pool — общая казна лотереи: выручка с билетов плюс донаты.
// Неснижаемый резерв живёт в цикле лотереи, движок проверяет его там.
type Pool struct {
	ID        int64     `db:"id"`
	Balance   int64     `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию с кристаллами.
// Все движения средств (билеты, призы, донаты, выводы) записываются сюда.
type Transaction struct {
	ID              int64     `db:"id"`               // ID транзакции
	FromUserID      *int64    `db:"from_user_id"`     // Отправитель (nil — казна или система)
	ToUserID        *int64    `db:"to_user_id"`       // Получатель (nil — казна)
	Amount          int64     `db:"amount"`           // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"` // Тип операции
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`       // Время транзакции
}

// TransactionTypes — допустимые типы транзакций
const (
	TxTypeTicket        = "ticket_purchase" // Покупка билета
	TxTypePrize         = "prize"           // Приз за совпадение чисел
	TxTypeAirdrop       = "airdrop"         // Бонусный аирдроп
	TxTypeDonation      = "donation"        // Донат в казну
	TxTypeWithdraw      = "withdraw"        // Вывод остатка владельцем
	TxTypeTransfer      = "transfer"        // Перевод между игроками
	TxTypeStartingGrant = "starting_grant"  // Стартовое начисление новичку
)

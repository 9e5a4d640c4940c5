// Package donations — models.go описывает записи донатов.
package donations

import "time"

// Record — один принятый донат. Суммы донатов текущего тиража
// дополнительно агрегируются в цикле лотереи и наполняют аирдроп.
type Record struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	DrawNonce uint64    `db:"draw_nonce"`
	CreatedAt time.Time `db:"created_at"`
}

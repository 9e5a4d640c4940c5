// Package lottery — repository.go выполняет операции с таблицами
// lottery_cycle, lottery_tickets и lottery_draws.
//
// Строка цикла одна (id = 1). Каждая операция лотереи начинается с её
// блокировки FOR UPDATE: хостящая БД сериализует операции так же, как
// блокчейн сериализует транзакции, — одна мутация цикла за раз.
package lottery

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CycleID — id единственной строки цикла.
const CycleID = 1

// Repository работает с состоянием цикла, билетами и историей тиражей.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий лотереи.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// WithCycle выполняет fn внутри транзакции с эксклюзивно заблокированным
// циклом. fn получает цикл с загруженными билетами; после fn цикл и билеты
// сохраняются, транзакция фиксируется. Любая ошибка — полный откат:
// ни мутаций состояния, ни переводов не останется.
func (r *Repository) WithCycle(ctx context.Context, fn func(tx pgx.Tx, c *Cycle) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	cycle, err := r.lockCycle(ctx, tx)
	if err != nil {
		return err
	}

	if err := fn(tx, cycle); err != nil {
		return err
	}

	if err := r.saveCycle(ctx, tx, cycle); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockCycle читает строку цикла FOR UPDATE и загружает билеты.
func (r *Repository) lockCycle(ctx context.Context, tx pgx.Tx) (*Cycle, error) {
	var c Cycle
	err := tx.QueryRow(ctx, `
		SELECT id, authority_id, oracle_id, ticket_price, draw_time, draw_nonce,
		       draw_executed, funds_withdrawn, reserve_floor,
		       win_number1, win_number2, donation_sum, ticket_count, updated_at
		FROM lottery_cycle
		WHERE id = $1
		FOR UPDATE
	`, CycleID).Scan(
		&c.ID, &c.Authority, &c.Oracle, &c.TicketPrice, &c.DrawTime, &c.DrawNonce,
		&c.DrawExecuted, &c.FundsWithdrawn, &c.ReserveFloor,
		&c.WinNumber1, &c.WinNumber2, &c.DonationSum, &c.TicketCount, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения цикла: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, owner_id, number1, number2, purchased_at, nonce
		FROM lottery_tickets
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения билетов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Owner, &t.Number1, &t.Number2, &t.PurchasedAt, &t.Nonce); err != nil {
			return nil, fmt.Errorf("ошибка сканирования билета: %w", err)
		}
		c.Tickets = append(c.Tickets, t)
	}

	return &c, nil
}

// saveCycle записывает цикл и приводит таблицу билетов к его состоянию.
func (r *Repository) saveCycle(ctx context.Context, tx pgx.Tx, c *Cycle) error {
	_, err := tx.Exec(ctx, `
		UPDATE lottery_cycle
		SET authority_id = $2, oracle_id = $3, ticket_price = $4, draw_time = $5,
		    draw_nonce = $6, draw_executed = $7, funds_withdrawn = $8,
		    reserve_floor = $9, win_number1 = $10, win_number2 = $11,
		    donation_sum = $12, ticket_count = $13, updated_at = NOW()
		WHERE id = $1
	`, CycleID, c.Authority, c.Oracle, c.TicketPrice, c.DrawTime,
		c.DrawNonce, c.DrawExecuted, c.FundsWithdrawn,
		c.ReserveFloor, c.WinNumber1, c.WinNumber2,
		c.DonationSum, c.TicketCount)
	if err != nil {
		return fmt.Errorf("ошибка сохранения цикла: %w", err)
	}

	// Цикл сброшен — чистим билеты целиком
	if c.TicketCount == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM lottery_tickets`); err != nil {
			return fmt.Errorf("ошибка очистки билетов: %w", err)
		}
		return nil
	}

	// Новые билеты (ID == 0) дописываем в конец
	for i := range c.Tickets {
		t := &c.Tickets[i]
		if t.ID != 0 {
			continue
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO lottery_tickets (owner_id, number1, number2, purchased_at, nonce)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, t.Owner, t.Number1, t.Number2, t.PurchasedAt, t.Nonce).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("ошибка сохранения билета: %w", err)
		}
	}

	return nil
}

// InsertDrawTx публикует результат тиража в историю.
// UNIQUE(nonce) гарантирует «ровно один раз» на уровне БД.
func (r *Repository) InsertDrawTx(ctx context.Context, tx pgx.Tx, d *DrawRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lottery_draws
			(nonce, draw_time, number1, number2, airdrop_winner, airdrop_amount,
			 total_paid, fallback, settled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.Nonce, d.DrawTime, d.Number1, d.Number2, d.AirdropWinner, d.AirdropAmount,
		d.TotalPaid, d.Fallback, d.Settled)
	if err != nil {
		return fmt.Errorf("ошибка публикации результата тиража: %w", err)
	}
	return nil
}

// EnsureCycle создаёт строку цикла с параметрами развертывания,
// если её ещё нет. Существующий цикл не трогается: владение и оракул
// после первого запуска живут в БД и меняются командами.
func (r *Repository) EnsureCycle(ctx context.Context, authority, oracle, ticketPrice, reserveFloor int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lottery_cycle (id, authority_id, oracle_id, ticket_price, reserve_floor)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		CycleID, authority, oracle, ticketPrice, reserveFloor)
	if err != nil {
		return fmt.Errorf("ошибка инициализации цикла лотереи: %w", err)
	}
	return nil
}

// GetCycle возвращает цикл без блокировки (для просмотра статуса).
func (r *Repository) GetCycle(ctx context.Context) (*Cycle, error) {
	var c Cycle
	err := r.db.QueryRow(ctx, `
		SELECT id, authority_id, oracle_id, ticket_price, draw_time, draw_nonce,
		       draw_executed, funds_withdrawn, reserve_floor,
		       win_number1, win_number2, donation_sum, ticket_count, updated_at
		FROM lottery_cycle
		WHERE id = $1
	`, CycleID).Scan(
		&c.ID, &c.Authority, &c.Oracle, &c.TicketPrice, &c.DrawTime, &c.DrawNonce,
		&c.DrawExecuted, &c.FundsWithdrawn, &c.ReserveFloor,
		&c.WinNumber1, &c.WinNumber2, &c.DonationSum, &c.TicketCount, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения цикла: %w", err)
	}
	return &c, nil
}

// CountTicketsOf возвращает число билетов игрока в текущем цикле.
func (r *Repository) CountTicketsOf(ctx context.Context, owner int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM lottery_tickets WHERE owner_id = $1`, owner,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта билетов: %w", err)
	}
	return n, nil
}

// TicketsOf возвращает билеты игрока в текущем цикле.
func (r *Repository) TicketsOf(ctx context.Context, owner int64) ([]*Ticket, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, number1, number2, purchased_at, nonce
		FROM lottery_tickets
		WHERE owner_id = $1
		ORDER BY id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения билетов: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Owner, &t.Number1, &t.Number2, &t.PurchasedAt, &t.Nonce); err != nil {
			return nil, fmt.Errorf("ошибка сканирования билета: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, nil
}

// GetRecentDraws возвращает последние результаты тиражей.
func (r *Repository) GetRecentDraws(ctx context.Context, limit int) ([]*DrawRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nonce, draw_time, number1, number2, airdrop_winner,
		       airdrop_amount, total_paid, fallback, settled, created_at
		FROM lottery_draws
		ORDER BY nonce DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории тиражей: %w", err)
	}
	defer rows.Close()

	var draws []*DrawRecord
	for rows.Next() {
		var d DrawRecord
		err := rows.Scan(&d.ID, &d.Nonce, &d.DrawTime, &d.Number1, &d.Number2,
			&d.AirdropWinner, &d.AirdropAmount, &d.TotalPaid, &d.Fallback, &d.Settled, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования тиража: %w", err)
		}
		draws = append(draws, &d)
	}
	return draws, nil
}

// Package leaderboard — repository.go выполняет операции с таблицей leaderboard.
// Инкременты с суффиксом Tx вызываются из транзакций лотереи, чтобы счётчики
// не разъезжались с фактическими покупками и выплатами.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей leaderboard.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий таблицы рекордов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AddTicketsTx увеличивает счётчик купленных билетов.
// Запись создаётся лениво при первой активности.
func (r *Repository) AddTicketsTx(ctx context.Context, tx pgx.Tx, userID int64, n int64) error {
	query := `
		INSERT INTO leaderboard (user_id, tickets_bought)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET tickets_bought = leaderboard.tickets_bought + $2, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, userID, n); err != nil {
		return fmt.Errorf("ошибка обновления счётчика билетов: %w", err)
	}
	return nil
}

// AddDonationTx увеличивает сумму донатов игрока.
func (r *Repository) AddDonationTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) error {
	query := `
		INSERT INTO leaderboard (user_id, donations_given)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET donations_given = leaderboard.donations_given + $2, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("ошибка обновления счётчика донатов: %w", err)
	}
	return nil
}

// AddWinTx увеличивает счётчик выигранных тиражей.
func (r *Repository) AddWinTx(ctx context.Context, tx pgx.Tx, userID int64) error {
	query := `
		INSERT INTO leaderboard (user_id, draws_won)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET draws_won = leaderboard.draws_won + 1, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка обновления счётчика побед: %w", err)
	}
	return nil
}

// GetByUserID возвращает строку рекордов игрока.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Entry, error) {
	query := `
		SELECT id, user_id, tickets_bought, donations_given, draws_won, created_at, updated_at
		FROM leaderboard WHERE user_id = $1
	`
	var e Entry
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&e.ID, &e.UserID, &e.TicketsBought, &e.DonationsGiven, &e.DrawsWon,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Нет активности — нулевая запись
			return &Entry{UserID: userID}, nil
		}
		return nil, fmt.Errorf("ошибка чтения рекордов: %w", err)
	}
	return &e, nil
}

// GetTop возвращает топ игроков, отсортированный по победам,
// затем по билетам и донатам. Имена подтягиваются из members.
func (r *Repository) GetTop(ctx context.Context, limit int) ([]*TopEntry, error) {
	query := `
		SELECT l.user_id,
		       COALESCE(NULLIF(m.username, ''), m.first_name) AS display_name,
		       l.tickets_bought, l.donations_given, l.draws_won
		FROM leaderboard l
		LEFT JOIN members m ON m.user_id = l.user_id
		ORDER BY l.draws_won DESC, l.tickets_bought DESC, l.donations_given DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения топа: %w", err)
	}
	defer rows.Close()

	var top []*TopEntry
	for rows.Next() {
		var e TopEntry
		var name *string
		if err := rows.Scan(&e.UserID, &name, &e.TicketsBought, &e.DonationsGiven, &e.DrawsWon); err != nil {
			return nil, fmt.Errorf("ошибка сканирования топа: %w", err)
		}
		if name != nil {
			e.DisplayName = *name
		}
		top = append(top, &e)
	}
	return top, nil
}

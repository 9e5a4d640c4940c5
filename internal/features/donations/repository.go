// Package donations — repository.go сохраняет историю донатов.
package donations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей donations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий донатов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert записывает принятый донат.
func (r *Repository) Insert(ctx context.Context, userID, amount int64, drawNonce uint64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO donations (user_id, amount, draw_nonce)
		VALUES ($1, $2, $3)`,
		userID, amount, drawNonce)
	if err != nil {
		return fmt.Errorf("ошибка записи доната: %w", err)
	}
	return nil
}

// TotalOf возвращает сумму всех донатов пользователя за всё время.
func (r *Repository) TotalOf(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM donations WHERE user_id = $1`,
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта донатов: %w", err)
	}
	return total, nil
}

// Recent возвращает последние донаты для сводки.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, draw_nonce, created_at
		FROM donations
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения донатов: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.Amount, &rec.DrawNonce, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения доната: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

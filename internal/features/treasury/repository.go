// Package treasury — repository.go выполняет все операции с таблицами
// balances, treasury_pool и transactions.
//
// Методы с суффиксом Tx работают внутри чужой транзакции: лотерея вызывает
// их в той же транзакции, где меняет цикл и билеты, поэтому «изменение
// состояния + перевод» фиксируются или откатываются как одно целое.
package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hiperia.app/lottery-bot/internal/common"
)

// Repository предоставляет методы для работы с балансами и казной.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий казны.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateBalance создаёт баланс для нового участника со стартовым начислением.
func (r *Repository) CreateBalance(ctx context.Context, userID int64, starting int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, starting)
	if err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}

	// Стартовое начисление записываем только при реальном создании
	if tag.RowsAffected() > 0 && starting > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (to_user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, $4)
		`, userID, starting, TxTypeStartingGrant, "Стартовые кристаллы")
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetBalance возвращает текущий баланс игрока.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT balance FROM balances WHERE user_id = $1`
	var balance int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetPool возвращает состояние казны.
func (r *Repository) GetPool(ctx context.Context) (*Pool, error) {
	query := `SELECT id, balance, updated_at FROM treasury_pool WHERE id = $1`
	var p Pool
	err := r.db.QueryRow(ctx, query, PoolID).Scan(&p.ID, &p.Balance, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения казны: %w", err)
	}
	return &p, nil
}

// PoolBalanceTx читает баланс казны с блокировкой строки.
// Вызывается первой в транзакции розыгрыша: пока она не завершится,
// никто другой не изменит казну.
func (r *Repository) PoolBalanceTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM treasury_pool WHERE id = $1 FOR UPDATE`, PoolID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения казны: %w", err)
	}
	return balance, nil
}

// ChargeToPoolTx списывает сумму со счёта игрока в казну.
// Проверка баланса идёт под блокировкой строки (FOR UPDATE).
func (r *Repository) ChargeToPoolTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64, txType, description string) error {
	var current int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if current < amount {
		return common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE treasury_pool SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, PoolID, amount)
	if err != nil {
		return fmt.Errorf("ошибка пополнения казны: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return nil
}

// PayoutFromPoolTx выплачивает сумму из казны игроку.
// Баланс казны не должен уйти в минус — это последний рубеж после
// проверки сохранения средств в движке.
func (r *Repository) PayoutFromPoolTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64, txType, description string) error {
	var poolBalance int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM treasury_pool WHERE id = $1 FOR UPDATE`, PoolID,
	).Scan(&poolBalance)
	if err != nil {
		return fmt.Errorf("ошибка чтения казны: %w", err)
	}
	if poolBalance < amount {
		return common.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE treasury_pool SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, PoolID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания из казны: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}
	if tag.RowsAffected() != 1 {
		// Казна уже списана в этой же транзакции: без отката
		// выплата исчезла бы вместе со списанной суммой
		return fmt.Errorf("начисление игроку %d: счёт не найден: %w", userID, common.ErrUserNotFound)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return nil
}

// Transfer переводит кристаллы от одного игрока к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку отправителя и проверяем баланс
	var senderBalance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE`, fromUserID,
	).Scan(&senderBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("отправитель не найден: %w", err)
	}
	if senderBalance < amount {
		return common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, fromUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, toUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления получателю: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, fromUserID, toUserID, amount, TxTypeTransfer, fmt.Sprintf("Перевод %d кристаллов", amount))
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions возвращает последние N транзакций игрока.
// Включает как входящие, так и исходящие операции.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, nil
}

// BalanceExists проверяет, есть ли у игрока запись баланса.
func (r *Repository) BalanceExists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM balances WHERE user_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

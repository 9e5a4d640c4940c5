// Package treasury — service.go содержит бизнес-логику казны:
// валидация сумм, переводы, баланс, история транзакций.
package treasury

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
)

// Service управляет кристаллами и казной.
type Service struct {
	repo           *Repository
	startingCredit int64
}

// NewService создаёт сервис казны.
func NewService(repo *Repository, startingCredit int64) *Service {
	return &Service{repo: repo, startingCredit: startingCredit}
}

// Repo возвращает репозиторий — лотерея использует его Tx-методы
// внутри собственной транзакции розыгрыша.
func (s *Service) Repo() *Repository {
	return s.repo
}

// GetBalance возвращает текущий баланс игрока.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// GetPool возвращает состояние казны.
func (s *Service) GetPool(ctx context.Context) (*Pool, error) {
	return s.repo.GetPool(ctx)
}

// CreateBalance создаёт баланс для нового участника со стартовым начислением.
func (s *Service) CreateBalance(ctx context.Context, userID int64) error {
	return s.repo.CreateBalance(ctx, userID, s.startingCredit)
}

// Transfer переводит кристаллы от одного игрока к другому.
// Выполняет все необходимые проверки:
//   - Нельзя переводить себе
//   - Сумма должна быть положительной
//   - У отправителя должно быть достаточно кристаллов
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.repo.Transfer(ctx, fromUserID, toUserID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")

	return nil
}

// GetTransactionHistory возвращает форматированную историю транзакций.
// Последние 10 операций. Если больше 5 — оборачивает хвост в спойлер.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, 10)
	if err != nil {
		return "", err
	}

	if len(transactions) == 0 {
		return "📋 У вас пока нет транзакций", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d транзакций:\n\n", len(transactions)))

	var lines []string
	for i, tx := range transactions {
		// Определяем знак: + если получили, - если отправили
		sign := "+"
		if tx.FromUserID != nil && *tx.FromUserID == userID {
			sign = "-"
		}

		line := fmt.Sprintf("%d. %s%s %s | %s",
			i+1,
			sign,
			common.GroupDigits(tx.Amount),
			common.PluralizeCrystals(tx.Amount),
			tx.Description,
		)
		lines = append(lines, line)
	}

	// Если больше 5 — оборачиваем хвост в спойлер (||текст||)
	if len(lines) > 5 {
		for _, line := range lines[:5] {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n||")
		for _, line := range lines[5:] {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("||")
	} else {
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
	}

	return sb.String(), nil
}

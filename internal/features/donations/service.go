// Package donations — service.go принимает донаты в казну лотереи.
package donations

import (
	"context"

	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/lottery"
)

// Service принимает донаты и ведёт их историю.
// Списание средств и учёт в цикле делает сервис лотереи,
// здесь остаётся только валидация и запись в историю.
type Service struct {
	repo        *Repository
	lottery     *lottery.Service
	maxDonation int64
}

// NewService создаёт сервис донатов.
func NewService(repo *Repository, lotteryService *lottery.Service, maxDonation int64) *Service {
	return &Service{repo: repo, lottery: lotteryService, maxDonation: maxDonation}
}

// Donate принимает донат от пользователя.
func (s *Service) Donate(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if amount > s.maxDonation {
		return common.ErrDonationTooLarge
	}

	if err := s.lottery.Donate(ctx, userID, amount); err != nil {
		return err
	}

	cycle, err := s.lottery.GetCycle(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, userID, amount, cycle.DrawNonce); err != nil {
		// Донат уже проведён, потеря строки истории не критична
		log.WithError(err).Error("Ошибка записи истории доната")
	}

	return nil
}

// TotalOf возвращает сумму донатов пользователя за всё время.
func (s *Service) TotalOf(ctx context.Context, userID int64) (int64, error) {
	return s.repo.TotalOf(ctx, userID)
}

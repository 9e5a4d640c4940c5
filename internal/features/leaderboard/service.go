// Package leaderboard — service.go формирует отображение таблицы рекордов.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"hiperia.app/lottery-bot/internal/common"
)

// Service управляет таблицей рекордов.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис таблицы рекордов.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Repo возвращает репозиторий для Tx-инкрементов из других модулей.
func (s *Service) Repo() *Repository {
	return s.repo
}

// GetEntry возвращает рекорды игрока.
func (s *Service) GetEntry(ctx context.Context, userID int64) (*Entry, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// FormatTop возвращает готовый текст топа игроков.
func (s *Service) FormatTop(ctx context.Context, limit int) (string, error) {
	top, err := s.repo.GetTop(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "🏆 Таблица рекордов пока пуста", nil
	}

	var sb strings.Builder
	sb.WriteString("🏆 Топ игроков:\n\n")
	for i, e := range top {
		name := e.DisplayName
		if name == "" {
			name = fmt.Sprintf("id%d", e.UserID)
		}
		sb.WriteString(fmt.Sprintf("%d. %s — побед: %d, билетов: %d, донатов: %s\n",
			i+1, name, e.DrawsWon, e.TicketsBought, common.GroupDigits(e.DonationsGiven)))
	}
	return sb.String(), nil
}

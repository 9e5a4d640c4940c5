// Package members — service.go регистрирует участников и выдаёт стартовый счёт.
package members

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

// BalanceOpener открывает счёт новому участнику.
// Реализуется сервисом казны.
type BalanceOpener interface {
	CreateBalance(ctx context.Context, userID int64) error
}

// Service управляет участниками.
type Service struct {
	repo     *Repository
	balances BalanceOpener
}

// NewService создаёт сервис участников.
func NewService(repo *Repository, balances BalanceOpener) *Service {
	return &Service{repo: repo, balances: balances}
}

// Register регистрирует участника (или обновляет его имя) и открывает
// стартовый счёт, если его ещё нет. Вызывается из бота на каждую команду.
func (s *Service) Register(ctx context.Context, m *Member) error {
	if err := s.repo.Upsert(ctx, m); err != nil {
		return err
	}
	if err := s.balances.CreateBalance(ctx, m.UserID); err != nil {
		return err
	}
	return nil
}

// EnsureMember регистрирует участника по данным из сообщения Telegram.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	return s.Register(ctx, &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// IsMember проверяет, зарегистрирован ли пользователь.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает участника по Telegram ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ResolveUsername находит участника по @username (ведущая @ отбрасывается).
func (s *Service) ResolveUsername(ctx context.Context, username string) (*Member, error) {
	username = strings.TrimPrefix(username, "@")
	m, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		log.WithField("username", username).Debug("Участник не найден по username")
		return nil, err
	}
	return m, nil
}

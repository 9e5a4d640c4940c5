// Package members — handlers.go обрабатывает команду !профиль.
package members

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/leaderboard"
)

// BalanceReader отдаёт текущий баланс участника.
// Реализуется сервисом казны.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

// Handler обрабатывает команды участников.
type Handler struct {
	service     *Service
	balances    BalanceReader
	leaderboard *leaderboard.Service
	bot         *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик участников.
func NewHandler(service *Service, balances BalanceReader, lb *leaderboard.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, balances: balances, leaderboard: lb, bot: bot}
}

// HandleProfile обрабатывает команду !профиль — сводка игрока.
//
// Формат ответа:
//
//	👤 @username
//
//	💰 Баланс: 9 000 000 000 кристаллов
//	🎟 Куплено билетов: 14
//	🏆 Выиграно тиражей: 2
//	💝 Задонатил: 500 000 000 кристаллов
func (h *Handler) HandleProfile(ctx context.Context, chatID int64, userID int64) {
	member, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ Участник не найден")
		return
	}

	balance, err := h.balances.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Ошибка получения профиля")
		return
	}

	entry, err := h.leaderboard.GetEntry(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения рекордов")
		h.sendMessage(chatID, "❌ Ошибка получения профиля")
		return
	}

	text := fmt.Sprintf(
		"👤 %s\n\n"+
			"💰 Баланс: %s\n"+
			"🎟 Куплено билетов: %d\n"+
			"🏆 Выиграно тиражей: %d\n"+
			"💝 Задонатил: %s",
		member.DisplayName(),
		common.FormatAmount(balance),
		entry.TicketsBought,
		entry.DrawsWon,
		common.FormatAmount(entry.DonationsGiven),
	)

	h.sendMessage(chatID, text)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

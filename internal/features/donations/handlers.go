// Package donations — handlers.go обрабатывает команду !донат.
package donations

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/lottery"
)

// Handler обрабатывает команды донатов.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик донатов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleDonate обрабатывает команду !донат сумма — донат в казну лотереи.
// Донаты увеличивают бонусный аирдроп следующего тиража.
func (h *Handler) HandleDonate(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !донат сумма")
		return
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	if err := h.service.Donate(ctx, userID, amount); err != nil {
		if !common.IsBusinessError(err) {
			log.WithError(err).Error("Ошибка приёма доната")
		}
		h.sendMessage(chatID, lottery.DescribeError(err))
		return
	}

	total, _ := h.service.TotalOf(ctx, userID)
	h.sendMessage(chatID, fmt.Sprintf(
		"💝 Донат принят: %s\nВсего задонатил: %s\n\nПоловина донатов тиража уходит в бонусный аирдроп!",
		common.FormatAmount(amount), common.FormatAmount(total)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// Package treasury — handlers.go обрабатывает команды:
// !баланс, !отсыпать (перевод), !транзакции (история).
package treasury

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/members"
)

// Handler обрабатывает команды счетов.
type Handler struct {
	service       *Service
	memberService *members.Service // Для поиска получателя перевода
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд счетов.
func NewHandler(service *Service, memberService *members.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		bot:           bot,
	}
}

// HandleBalance обрабатывает команду !баланс.
//
// Формат ответа:
//
//	💰 Баланс: 9 000 000 000 кристаллов
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Ошибка получения баланса")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("💰 Баланс: %s", common.FormatAmount(balance)))
}

// HandleTransfer обрабатывает команду !отсыпать @username сумма.
func (h *Handler) HandleTransfer(ctx context.Context, chatID int64, fromUserID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !отсыпать @username сумма")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sendMessage(chatID, "❌ Укажите @username получателя")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, err := h.memberService.ResolveUsername(ctx, username)
	if err != nil {
		h.sendMessage(chatID, "❌ Пользователь не найден")
		return
	}

	err = h.service.Transfer(ctx, fromUserID, recipient.UserID, amount)
	if err != nil {
		switch err {
		case common.ErrSelfTransfer:
			h.sendMessage(chatID, "❌ Нельзя переводить кристаллы самому себе")
		case common.ErrInsufficientBalance:
			h.sendMessage(chatID, "❌ Недостаточно кристаллов на счёте")
		case common.ErrInvalidAmount:
			h.sendMessage(chatID, "❌ Сумма должна быть положительной")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	newBalance, _ := h.service.GetBalance(ctx, fromUserID)

	h.sendMessage(chatID, fmt.Sprintf("✅ Переведено %s @%s\nТвой баланс: %s",
		common.FormatAmount(amount), username, common.FormatAmount(newBalance)))
}

// HandleTransactions обрабатывает команду !транзакции — показывает историю.
func (h *Handler) HandleTransactions(ctx context.Context, chatID int64, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(chatID, "❌ Ошибка получения истории транзакций")
		return
	}

	// Отправляем с MarkdownV2 для поддержки спойлеров
	msg := tgbotapi.NewMessage(chatID, history)
	msg.ParseMode = "MarkdownV2"
	if _, err := h.bot.Send(msg); err != nil {
		// Если MarkdownV2 не сработал — отправляем без форматирования
		h.sendMessage(chatID, history)
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// Package lottery — handlers.go обрабатывает команды !лотерея, !билет,
// !моибилеты и !тиражи.
package lottery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
)

// Handler обрабатывает команды лотереи.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	loc     *time.Location
}

// NewHandler создаёт обработчик лотереи.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, loc *time.Location) *Handler {
	return &Handler{service: service, bot: bot, loc: loc}
}

// HandleStatus обрабатывает команду !лотерея — статус текущего тиража.
//
// Формат ответа:
//
//	🎰 ЛОТЕРЕЯ
//
//	Билетов продано: 7 / 1000
//	Цена билета: 1 000 000 000 кристаллов
//	Донатов собрано: 150 000 000 кристаллов
//	Тираж №4: 29.08.2026 16:00
func (h *Handler) HandleStatus(ctx context.Context, chatID int64) {
	c, err := h.service.GetCycle(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статуса лотереи")
		h.sendMessage(chatID, "❌ Ошибка получения статуса лотереи")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎰 ЛОТЕРЕЯ\n\n")
	sb.WriteString(fmt.Sprintf("Билетов продано: %d / %d\n", c.TicketCount, h.service.engine.Params().MaxTotal))
	sb.WriteString(fmt.Sprintf("Цена билета: %s\n", common.FormatAmount(c.TicketPrice)))
	if c.DonationSum > 0 {
		sb.WriteString(fmt.Sprintf("Донатов собрано: %s\n", common.FormatAmount(c.DonationSum)))
	}

	switch {
	case c.DrawTime == 0:
		sb.WriteString(fmt.Sprintf("\nТираж ещё не назначен. Ближайшее окно: %s",
			common.FormatDateTime(h.service.NextDrawTime(), h.loc)))
	case c.DrawExecuted:
		sb.WriteString(fmt.Sprintf("\nТираж №%d разыгран: выпали числа %d-%d",
			c.DrawNonce, c.WinNumber1, c.WinNumber2))
	default:
		sb.WriteString(fmt.Sprintf("\nТираж №%d: %s",
			c.DrawNonce, common.FormatDateTime(time.Unix(c.DrawTime, 0), h.loc)))
	}

	h.sendMessage(chatID, sb.String())
}

// HandleBuy обрабатывает команду !билет число1 число2 — покупка билета.
func (h *Handler) HandleBuy(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !билет число1 число2 (от 1 до 31, числа разные)")
		return
	}

	n1, err1 := strconv.ParseUint(args[0], 10, 8)
	n2, err2 := strconv.ParseUint(args[1], 10, 8)
	if err1 != nil || err2 != nil {
		h.sendMessage(chatID, "❌ Числа должны быть от 1 до 31")
		return
	}

	ticket, err := h.service.BuyTicket(ctx, userID, uint8(n1), uint8(n2))
	if err != nil {
		if !common.IsBusinessError(err) {
			log.WithError(err).Error("Ошибка покупки билета")
		}
		h.sendMessage(chatID, DescribeError(err))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎟 Билет куплен: %d-%d\n💰 Списано: %s\n\nТочное совпадение пары даёт главный приз, обратный порядок — утешительный.",
		ticket.Number1, ticket.Number2,
		common.FormatAmount(h.service.engine.Params().TicketPrice)))
}

// HandleMyTickets обрабатывает команду !моибилеты.
func (h *Handler) HandleMyTickets(ctx context.Context, chatID int64, userID int64) {
	tickets, err := h.service.TicketsOf(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения билетов")
		h.sendMessage(chatID, "❌ Ошибка получения билетов")
		return
	}
	if len(tickets) == 0 {
		h.sendMessage(chatID, "🎟 У тебя нет билетов на текущий тираж. Купи: !билет число1 число2")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎟 Твои билеты (%d %s):\n\n",
		len(tickets), common.PluralizeTickets(int64(len(tickets)))))
	for i, t := range tickets {
		sb.WriteString(fmt.Sprintf("%d. %d-%d\n", i+1, t.Number1, t.Number2))
	}

	h.sendMessage(chatID, sb.String())
}

// HandleDraws обрабатывает команду !тиражи — последние результаты.
func (h *Handler) HandleDraws(ctx context.Context, chatID int64) {
	draws, err := h.service.RecentDraws(ctx, 5)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории тиражей")
		h.sendMessage(chatID, "❌ Ошибка получения истории тиражей")
		return
	}
	if len(draws) == 0 {
		h.sendMessage(chatID, "📜 Тиражей ещё не было")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 ПОСЛЕДНИЕ ТИРАЖИ\n\n")
	for _, d := range draws {
		sb.WriteString(fmt.Sprintf("№%d — числа %d-%d, %s\n",
			d.Nonce, d.Number1, d.Number2,
			common.FormatDateTime(time.Unix(d.DrawTime, 0), h.loc)))
		if d.AirdropAmount > 0 {
			sb.WriteString(fmt.Sprintf("   🎁 Аирдроп: %s\n", common.FormatAmount(d.AirdropAmount)))
		}
		sb.WriteString(fmt.Sprintf("   💰 Выплачено: %s\n", common.FormatAmount(d.TotalPaid)))
	}

	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// Package admin — handlers.go обрабатывает панель оператора лотереи.
// Панель работает в личных сообщениях.
// Поток: аутентификация → команды управления тиражом.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/lottery"
	"hiperia.app/lottery-bot/internal/features/members"
	"hiperia.app/lottery-bot/internal/features/treasury"
)

// Handler обрабатывает команды панели оператора.
type Handler struct {
	service       *Service
	memberService *members.Service
	lottery       *lottery.Service
	treasury      *treasury.Service
	bot           *tgbotapi.BotAPI
	loc           *time.Location
}

// NewHandler создаёт обработчик панели оператора.
func NewHandler(service *Service, memberService *members.Service, lotteryService *lottery.Service, treasuryService *treasury.Service, bot *tgbotapi.BotAPI, loc *time.Location) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		lottery:       lotteryService,
		treasury:      treasuryService,
		bot:           bot,
		loc:           loc,
	}
}

// HandleAdminMessage обрабатывает любое сообщение оператору в DM.
// Возвращает true, если сообщение было обработано панелью.
//
// Права на сами операции панель не решает: владельца и оракула
// проверяет движок лотереи по состоянию цикла. Сессия защищает
// только вход в панель.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	state := h.service.GetState(userID)

	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	if !h.service.HasActiveSession(ctx, userID) {
		if !isPanelInvocation(text) {
			return false
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к панели оператора:")
		h.service.SetState(userID, StateAwaitingPassword)
		return true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "панель", "помощь":
		h.showHelp(chatID)
	case "казна":
		h.handlePool(ctx, chatID)
	case "запросить":
		h.handleRequestDraw(ctx, chatID, userID)
	case "розыгрыш":
		h.handleFulfill(ctx, chatID, userID, args)
	case "вывести":
		h.handleWithdraw(ctx, chatID, userID, args)
	case "оракул":
		h.handleSetOracle(ctx, chatID, userID, args)
	case "владелец":
		h.handleChangeAuthority(ctx, chatID, userID, args)
	case "выход":
		h.service.Logout(ctx, userID)
		h.sendMessage(chatID, "👋 Сессия закрыта")
	default:
		return false
	}

	return true
}

func isPanelInvocation(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "панель", "админ":
		return true
	}
	return false
}

func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	h.service.ClearState(userID)

	if err := h.service.VerifyPassword(ctx, userID, password); err != nil {
		switch err {
		case common.ErrTooManyAttempts:
			h.sendMessage(chatID, "⛔ Слишком много попыток. Подождите 1 час.")
		case common.ErrWrongPassword:
			h.sendMessage(chatID, "❌ Неверный пароль")
		default:
			log.WithError(err).Error("Ошибка проверки пароля")
			h.sendMessage(chatID, "❌ Ошибка аутентификации")
		}
		return
	}

	log.WithField("user_id", userID).Info("Оператор вошёл в панель")
	h.showHelp(chatID)
}

func (h *Handler) showHelp(chatID int64) {
	h.sendMessage(chatID,
		"🔧 ПАНЕЛЬ ОПЕРАТОРА\n\n"+
			"казна — баланс казны лотереи\n"+
			"запросить — запросить тираж\n"+
			"розыгрыш nonce число1 число2 aux — провести розыгрыш (оракул)\n"+
			"вывести @username сумма — вывести остаток\n"+
			"оракул telegram_id — назначить оракула (0 — хеш-фолбэк)\n"+
			"владелец telegram_id — передать владение\n"+
			"выход — закрыть сессию")
}

func (h *Handler) handlePool(ctx context.Context, chatID int64) {
	pool, err := h.treasury.GetPool(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения казны")
		h.sendMessage(chatID, "❌ Ошибка получения казны")
		return
	}
	cycle, err := h.lottery.GetCycle(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения цикла")
		h.sendMessage(chatID, "❌ Ошибка получения цикла")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🏦 КАЗНА ЛОТЕРЕИ\n\n"+
			"Баланс: %s\n"+
			"Резерв: %s\n"+
			"Билетов в тираже: %d\n"+
			"Донатов в тираже: %s\n"+
			"Текущий nonce: %d",
		common.FormatAmount(pool.Balance),
		common.FormatAmount(cycle.ReserveFloor),
		cycle.TicketCount,
		common.FormatAmount(cycle.DonationSum),
		cycle.DrawNonce))
}

func (h *Handler) handleRequestDraw(ctx context.Context, chatID int64, userID int64) {
	drawTime, nonce, err := h.lottery.RequestDraw(ctx, userID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка запроса тиража")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"📅 Тираж №%d назначен на %s",
		nonce, common.FormatDateTime(time.Unix(drawTime, 0), h.loc)))
}

// handleFulfill — команда оракула: розыгрыш nonce число1 число2 aux.
// aux выбирает победителя аирдропа среди билетов.
func (h *Handler) handleFulfill(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 4 {
		h.sendMessage(chatID, "❌ Формат: розыгрыш nonce число1 число2 aux")
		return
	}

	nonce, err0 := strconv.ParseUint(args[0], 10, 64)
	n1, err1 := strconv.ParseUint(args[1], 10, 8)
	n2, err2 := strconv.ParseUint(args[2], 10, 8)
	aux, err3 := strconv.ParseUint(args[3], 10, 64)
	if err0 != nil || err1 != nil || err2 != nil || err3 != nil {
		h.sendMessage(chatID, "❌ Все аргументы должны быть числами")
		return
	}

	settlement, err := h.lottery.FulfillFromOracle(ctx, userID, nonce, uint8(n1), uint8(n2), aux)
	if err != nil {
		h.replyError(chatID, err, "Ошибка розыгрыша")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎲 Тираж №%d разыгран: числа %d-%d\n",
		settlement.Nonce, settlement.Numbers[0], settlement.Numbers[1]))
	sb.WriteString(fmt.Sprintf("Победителей: %d\n", len(settlement.Payouts)))
	if settlement.AirdropAmount > 0 {
		sb.WriteString(fmt.Sprintf("Аирдроп: %s\n", common.FormatAmount(settlement.AirdropAmount)))
	}
	sb.WriteString(fmt.Sprintf("Всего к выплате: %s", common.FormatAmount(settlement.Total)))
	if !settlement.SettledNow {
		sb.WriteString("\n\n⚠️ Выплаты отложены: закройте тираж командой «вывести»")
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleWithdraw(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: вывести @username сумма")
		return
	}

	dest, err := h.memberService.ResolveUsername(ctx, args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Получатель не найден")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	if err := h.lottery.Withdraw(ctx, userID, dest.UserID, amount); err != nil {
		h.replyError(chatID, err, "Ошибка вывода средств")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("💸 Выведено %s на счёт %s",
		common.FormatAmount(amount), dest.DisplayName()))
}

func (h *Handler) handleSetOracle(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: оракул telegram_id (0 — хеш-фолбэк)")
		return
	}

	oracle, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || oracle < 0 {
		h.sendMessage(chatID, "❌ Некорректный telegram_id")
		return
	}

	if err := h.lottery.SetOracle(ctx, userID, oracle); err != nil {
		h.replyError(chatID, err, "Ошибка назначения оракула")
		return
	}

	if oracle == 0 {
		h.sendMessage(chatID, "🎲 Оракул отключён: тиражи проводит хеш-фолбэк по расписанию")
	} else {
		h.sendMessage(chatID, fmt.Sprintf("🎲 Оракул назначен: %d", oracle))
	}
}

func (h *Handler) handleChangeAuthority(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: владелец telegram_id")
		return
	}

	newAuthority, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || newAuthority <= 0 {
		h.sendMessage(chatID, "❌ Некорректный telegram_id")
		return
	}

	if err := h.lottery.ChangeAuthority(ctx, userID, newAuthority); err != nil {
		h.replyError(chatID, err, "Ошибка передачи владения")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("👑 Владение лотереей передано: %d", newAuthority))
}

func (h *Handler) replyError(chatID int64, err error, logMsg string) {
	if !common.IsBusinessError(err) {
		log.WithError(err).Error(logMsg)
	}
	h.sendMessage(chatID, lottery.DescribeError(err))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

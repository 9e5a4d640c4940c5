// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики лотереи и запускает polling.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/bot/filters"
	"hiperia.app/lottery-bot/internal/bot/middleware"
	"hiperia.app/lottery-bot/internal/config"
	"hiperia.app/lottery-bot/internal/features/admin"
	"hiperia.app/lottery-bot/internal/features/donations"
	"hiperia.app/lottery-bot/internal/features/leaderboard"
	"hiperia.app/lottery-bot/internal/features/lottery"
	"hiperia.app/lottery-bot/internal/features/members"
	"hiperia.app/lottery-bot/internal/features/treasury"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberHandler   *members.Handler
	treasuryHandler *treasury.Handler
	lotteryHandler  *lottery.Handler
	donationHandler *donations.Handler
	adminHandler    *admin.Handler

	memberService      *members.Service
	treasuryService    *treasury.Service
	lotteryService     *lottery.Service
	leaderboardService *leaderboard.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	memberHandler *members.Handler,
	treasuryService *treasury.Service,
	treasuryHandler *treasury.Handler,
	lotteryService *lottery.Service,
	lotteryHandler *lottery.Handler,
	leaderboardService *leaderboard.Service,
	donationHandler *donations.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                api,
		cfg:                cfg,
		chatFilter:         chatFilter,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberHandler:      memberHandler,
		treasuryHandler:    treasuryHandler,
		lotteryHandler:     lotteryHandler,
		donationHandler:    donationHandler,
		adminHandler:       adminHandler,
		memberService:      memberService,
		treasuryService:    treasuryService,
		lotteryService:     lotteryService,
		leaderboardService: leaderboardService,
		parser:             NewCommandParser(),
		inflight:           make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	// Регистрируем новых участников лобби
	if update.Message != nil && update.Message.NewChatMembers != nil {
		if update.Message.Chat != nil && update.Message.Chat.ID == b.cfg.LobbyChatID {
			b.handleNewMembers(ctx, update.Message.NewChatMembers)
		}
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	middleware.LogMessage(message)

	// Доступ: лобби-чат или DM участника
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	// Rate limiting
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// Регистрация участника и стартовый счёт — на каждое сообщение,
	// ошибки нельзя игнорировать молча
	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	// В DM сначала панель оператора
	if message.Chat.IsPrivate() {
		if b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(chatID,
			"🎰 Бот-лотерея. Команды:\n"+
				"!лотерея — статус тиража\n"+
				"!билет число1 число2 — купить билет (1–31, числа разные)\n"+
				"!моибилеты — твои билеты\n"+
				"!тиражи — последние результаты\n"+
				"!баланс — счёт в кристаллах\n"+
				"!отсыпать @username сумма — перевод\n"+
				"!транзакции — история операций\n"+
				"!донат сумма — донат в казну (наполняет аирдроп)\n"+
				"!топ — таблица рекордов\n"+
				"!профиль — твоя сводка")

	case "лотерея":
		b.lotteryHandler.HandleStatus(ctx, chatID)

	case "билет":
		b.lotteryHandler.HandleBuy(ctx, chatID, userID, args)

	case "моибилеты":
		b.lotteryHandler.HandleMyTickets(ctx, chatID, userID)

	case "тиражи":
		b.lotteryHandler.HandleDraws(ctx, chatID)

	case "баланс", "кристаллы":
		b.treasuryHandler.HandleBalance(ctx, chatID, userID)

	case "отсыпать":
		b.treasuryHandler.HandleTransfer(ctx, chatID, userID, args)

	case "транзакции":
		b.treasuryHandler.HandleTransactions(ctx, chatID, userID)

	case "донат":
		if b.cfg.FeatureDonationsEnabled {
			b.donationHandler.HandleDonate(ctx, chatID, userID, args)
		} else {
			b.sendMessage(chatID, "💝 Донаты временно отключены")
		}

	case "топ":
		if b.cfg.FeatureLeaderboardEnabled {
			b.handleTop(ctx, chatID)
		}

	case "профиль":
		b.memberHandler.HandleProfile(ctx, chatID, userID)
	}
}

func (b *Bot) handleTop(ctx context.Context, chatID int64) {
	text, err := b.leaderboardService.FormatTop(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения таблицы рекордов")
		b.sendMessage(chatID, "❌ Ошибка получения таблицы рекордов")
		return
	}
	b.sendMessage(chatID, text)
}

// handleNewMembers обрабатывает вступление новых участников.
func (b *Bot) handleNewMembers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if err := b.memberService.EnsureMember(ctx, user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("EnsureMember failed")
			continue
		}
		log.WithField("user", user.UserName).Info("Новый участник обработан")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToChat отправляет сообщение в произвольный чат (для анонсов).
func (b *Bot) SendMessageToChat(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

// CommandParser парсит русские команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}

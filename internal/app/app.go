// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/bot"
	"hiperia.app/lottery-bot/internal/bot/filters"
	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/config"
	"hiperia.app/lottery-bot/internal/db/postgres"
	"hiperia.app/lottery-bot/internal/features/admin"
	"hiperia.app/lottery-bot/internal/features/donations"
	"hiperia.app/lottery-bot/internal/features/leaderboard"
	"hiperia.app/lottery-bot/internal/features/lottery"
	"hiperia.app/lottery-bot/internal/features/members"
	"hiperia.app/lottery-bot/internal/features/treasury"
	"hiperia.app/lottery-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	treasuryRepo := treasury.NewRepository(pool)
	leaderboardRepo := leaderboard.NewRepository(pool)
	lotteryRepo := lottery.NewRepository(pool)
	donationRepo := donations.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	treasuryService := treasury.NewService(treasuryRepo, cfg.LotteryStartingCredit)
	memberService := members.NewService(memberRepo, treasuryService)
	leaderboardService := leaderboard.NewService(leaderboardRepo)

	loc := common.LoadLocation(cfg.DrawTimezone, cfg.DrawTimezoneFallback)
	engine := lottery.NewEngine(lottery.Params{
		MaxPerUser:     cfg.LotteryMaxPerUser,
		MaxTotal:       cfg.LotteryMaxTotal,
		DrawThreshold:  cfg.LotteryDrawThreshold,
		TicketPrice:    cfg.LotteryTicketPrice,
		PrizeExact:     cfg.LotteryPrizeExact,
		PrizePartial:   cfg.LotteryPrizePartial,
		BaseAirdrop:    cfg.LotteryBaseAirdrop,
		AirdropCap:     cfg.LotteryAirdropCap,
		MaxDonation:    cfg.LotteryMaxDonation,
		ReserveFloor:   cfg.LotteryReserveFloor,
		AutoSettle:     cfg.LotteryAutoSettle,
		AirdropByOwner: cfg.LotteryAirdropByOwner,
		Schedule:       lottery.NewSchedule(cfg.DrawHours, loc),
	})
	fallback := lottery.DigestFallback{Key: fmt.Sprintf("lottery:%d", cfg.LobbyChatID)}
	lotteryService := lottery.NewService(lotteryRepo, treasuryRepo, leaderboardRepo, engine, fallback)

	donationService := donations.NewService(donationRepo, lotteryService, cfg.LotteryMaxDonation)
	adminService := admin.NewService(adminRepo, cfg.AdminPasswordHash)

	// Строка цикла создаётся при первом запуске развертывания
	if err := lotteryService.EnsureCycle(ctx,
		cfg.LotteryAuthorityID, cfg.LotteryOracleID,
		cfg.LotteryTicketPrice, cfg.LotteryReserveFloor,
	); err != nil {
		return nil, fmt.Errorf("ошибка инициализации цикла лотереи: %w", err)
	}

	// === 5. Обработчики ===
	treasuryHandler := treasury.NewHandler(treasuryService, memberService, botAPI)
	memberHandler := members.NewHandler(memberService, treasuryService, leaderboardService, botAPI)
	lotteryHandler := lottery.NewHandler(lotteryService, botAPI, loc)
	donationHandler := donations.NewHandler(donationService, botAPI)
	adminHandler := admin.NewHandler(adminService, memberService, lotteryService, treasuryService, botAPI, loc)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.LobbyChatID, memberService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		memberService, memberHandler,
		treasuryService, treasuryHandler,
		lotteryService, lotteryHandler,
		leaderboardService,
		donationHandler,
		adminHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(lotteryService, loc, cfg.LobbyChatID, b.SendMessageToChat)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Members},
		{2, migration002Treasury},
		{3, migration003Lottery},
		{4, migration004Donations},
		{5, migration005Leaderboard},
		{6, migration006Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(username);
`

var migration002Treasury = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES members(user_id),
    balance BIGINT DEFAULT 0,
    total_earned BIGINT DEFAULT 0,
    total_spent BIGINT DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS treasury_pool (
    id BIGINT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT NOW()
);
INSERT INTO treasury_pool (id, balance)
VALUES (1, 0)
ON CONFLICT (id) DO NOTHING;
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT REFERENCES members(user_id),
    to_user_id BIGINT REFERENCES members(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Lottery = `
CREATE TABLE IF NOT EXISTS lottery_cycle (
    id BIGINT PRIMARY KEY,
    authority_id BIGINT NOT NULL,
    oracle_id BIGINT NOT NULL DEFAULT 0,
    ticket_price BIGINT NOT NULL,
    draw_time BIGINT NOT NULL DEFAULT 0,
    draw_nonce BIGINT NOT NULL DEFAULT 0,
    draw_executed BOOLEAN NOT NULL DEFAULT FALSE,
    funds_withdrawn BOOLEAN NOT NULL DEFAULT FALSE,
    reserve_floor BIGINT NOT NULL DEFAULT 0,
    win_number1 SMALLINT NOT NULL DEFAULT 0,
    win_number2 SMALLINT NOT NULL DEFAULT 0,
    donation_sum BIGINT NOT NULL DEFAULT 0,
    ticket_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS lottery_tickets (
    id BIGSERIAL PRIMARY KEY,
    owner_id BIGINT NOT NULL REFERENCES members(user_id),
    number1 SMALLINT NOT NULL,
    number2 SMALLINT NOT NULL,
    purchased_at BIGINT NOT NULL,
    nonce BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lottery_tickets_owner ON lottery_tickets(owner_id);
CREATE TABLE IF NOT EXISTS lottery_draws (
    id BIGSERIAL PRIMARY KEY,
    nonce BIGINT UNIQUE NOT NULL,
    draw_time BIGINT NOT NULL,
    number1 SMALLINT NOT NULL,
    number2 SMALLINT NOT NULL,
    airdrop_winner BIGINT NOT NULL DEFAULT 0,
    airdrop_amount BIGINT NOT NULL DEFAULT 0,
    total_paid BIGINT NOT NULL DEFAULT 0,
    fallback BOOLEAN NOT NULL DEFAULT FALSE,
    settled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_lottery_draws_created_at ON lottery_draws(created_at DESC);
`

var migration004Donations = `
CREATE TABLE IF NOT EXISTS donations (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    amount BIGINT NOT NULL,
    draw_nonce BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_donations_user_id ON donations(user_id);
`

var migration005Leaderboard = `
CREATE TABLE IF NOT EXISTS leaderboard (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES members(user_id),
    tickets_bought INTEGER NOT NULL DEFAULT 0,
    donations_given BIGINT NOT NULL DEFAULT 0,
    draws_won INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT REFERENCES members(user_id),
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user ON admin_login_attempts(user_id, attempt_time DESC);
`

// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// ID чата, в котором бот работает (единственный разрешённый групповой чат)
	LobbyChatID int64 `envconfig:"LOBBY_CHAT_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"lottery_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Lottery: владелец и оракул ---
	// Владелец лотереи (Telegram user ID). Только он может запросить тираж и вывести средства.
	LotteryAuthorityID int64 `envconfig:"LOTTERY_AUTHORITY_ID" required:"true"`
	// Оракул случайности (Telegram user ID). 0 = оракул не настроен,
	// тиражи проводит планировщик на хеш-фолбэке (НЕ для реальных денег).
	LotteryOracleID int64 `envconfig:"LOTTERY_ORACLE_ID" default:"0"`

	// --- Lottery: лимиты и цены (в кристаллах) ---
	LotteryTicketPrice    int64 `envconfig:"LOTTERY_TICKET_PRICE" default:"1000000000"`
	LotteryMaxPerUser     int   `envconfig:"LOTTERY_MAX_PER_USER" default:"10"`
	LotteryMaxTotal       int   `envconfig:"LOTTERY_MAX_TOTAL" default:"1000"`
	LotteryDrawThreshold  int   `envconfig:"LOTTERY_DRAW_THRESHOLD" default:"10"`
	LotteryPrizeExact     int64 `envconfig:"LOTTERY_PRIZE_EXACT" default:"1200000000"`
	LotteryPrizePartial   int64 `envconfig:"LOTTERY_PRIZE_PARTIAL" default:"600000000"`
	LotteryBaseAirdrop    int64 `envconfig:"LOTTERY_BASE_AIRDROP" default:"0"`
	LotteryAirdropCap     int64 `envconfig:"LOTTERY_AIRDROP_CAP" default:"500000000"`
	LotteryMaxDonation    int64 `envconfig:"LOTTERY_MAX_DONATION" default:"1000000000000"`
	LotteryReserveFloor   int64 `envconfig:"LOTTERY_RESERVE_FLOOR" default:"0"`
	LotteryStartingCredit int64 `envconfig:"LOTTERY_STARTING_CREDIT" default:"10000000000"`

	// --- Lottery: расписание тиражей ---
	// Часы розыгрыша (по местному времени лотереи), через запятую
	DrawHoursRaw string `envconfig:"LOTTERY_DRAW_HOURS" default:"14,16"`
	DrawHours    []int  `envconfig:"-"` // заполним вручную
	// Часовой пояс расписания тиражей
	DrawTimezone string `envconfig:"LOTTERY_DRAW_TIMEZONE" default:"Asia/Shanghai"`
	// Смещение (часы) на случай, если пояс не загрузился
	DrawTimezoneFallback int `envconfig:"LOTTERY_DRAW_TZ_FALLBACK" default:"8"`

	// --- Lottery: режим расчёта ---
	// true — выплаты победителям проходят автоматически внутри розыгрыша;
	// false — розыгрыш только публикует числа, выплаты делает владелец командой вывода.
	LotteryAutoSettle bool `envconfig:"LOTTERY_AUTO_SETTLE" default:"true"`
	// true — аирдроп разыгрывается по игрокам (один шанс на игрока);
	// false — по билетам (больше билетов = больше шансов).
	LotteryAirdropByOwner bool `envconfig:"LOTTERY_AIRDROP_BY_OWNER" default:"false"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureDonationsEnabled   bool `envconfig:"FEATURE_DONATIONS_ENABLED" default:"true"`
	FeatureLeaderboardEnabled bool `envconfig:"FEATURE_LEADERBOARD_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.LobbyChatID == 0 {
		return fmt.Errorf("LOBBY_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.LotteryAuthorityID == 0 {
		return fmt.Errorf("LOTTERY_AUTHORITY_ID не задан")
	}
	if c.LotteryTicketPrice <= 0 {
		return fmt.Errorf("LOTTERY_TICKET_PRICE должна быть > 0")
	}
	if c.LotteryMaxPerUser <= 0 || c.LotteryMaxTotal <= 0 || c.LotteryMaxPerUser > c.LotteryMaxTotal {
		return fmt.Errorf("некорректные лимиты билетов")
	}
	if c.LotteryDrawThreshold <= 0 || c.LotteryDrawThreshold > c.LotteryMaxTotal {
		return fmt.Errorf("некорректный LOTTERY_DRAW_THRESHOLD")
	}
	if c.LotteryPrizeExact <= 0 || c.LotteryPrizePartial <= 0 {
		return fmt.Errorf("призы должны быть > 0")
	}
	if c.LotteryBaseAirdrop < 0 || c.LotteryAirdropCap < 0 || c.LotteryReserveFloor < 0 {
		return fmt.Errorf("аирдроп и резерв не могут быть отрицательными")
	}
	if len(c.DrawHours) == 0 {
		return fmt.Errorf("LOTTERY_DRAW_HOURS пуст")
	}
	for _, h := range c.DrawHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("час тиража %d вне диапазона 0-23", h)
		}
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	hours, err := parseIntCSV(cfg.DrawHoursRaw)
	if err != nil {
		return nil, fmt.Errorf("LOTTERY_DRAW_HOURS parse: %w", err)
	}
	cfg.DrawHours = hours

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseIntCSV(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

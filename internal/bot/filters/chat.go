// Package filters решает, кому бот вообще отвечает: лобби-чату лотереи
// и личным сообщениям его участников.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/features/members"
)

type ChatFilter struct {
	lobbyChatID   int64
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

func NewChatFilter(lobbyChatID int64, memberService *members.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		lobbyChatID:   lobbyChatID,
		memberService: memberService,
		bot:           bot,
	}
}

// CheckAccess пропускает сообщения из лобби-чата и личные сообщения
// участников лобби. Остальное игнорируется.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		return false
	}
	if f.lobbyChatID == 0 {
		log.WithField("component", "ChatFilter").Error("lobbyChatID is 0 (config bug)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chatID,
		"user_id":   userID,
	})

	// 1) Лобби-чат лотереи
	if chatID == f.lobbyChatID {
		return true
	}

	// 2) Личка: сначала быстро по БД
	if message.Chat.IsPrivate() {
		isMember, err := f.memberService.IsMember(ctx, userID)
		if err != nil {
			logger.WithError(err).Error("Ошибка проверки участника в БД")
			return false
		}
		if isMember {
			return true
		}

		// 2.1) БД не знает пользователя: проверяем членство через Telegram API
		cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: f.lobbyChatID,
				UserID: userID,
			},
		})
		if err != nil {
			logger.WithError(err).Error("Ошибка проверки участника через Telegram")
			return false
		}

		switch cm.Status {
		case "creator", "administrator", "member", "restricted":
			if err := f.memberService.EnsureMember(
				ctx, userID,
				message.From.UserName,
				message.From.FirstName,
				message.From.LastName,
			); err != nil {
				logger.WithError(err).Warn("Не удалось дозаписать участника в БД")
			}
			return true

		default:
			logger.WithField("tg_status", cm.Status).Info("Отказ: не участник лобби")
			msg := tgbotapi.NewMessage(chatID, "❌ Бот работает только для участников чата лотереи")
			if _, sendErr := f.bot.Send(msg); sendErr != nil {
				logger.WithError(sendErr).Warn("Не удалось отправить отказ")
			}
			return false
		}
	}

	// 3) Остальные чаты игнорируем
	return false
}

// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежеминутная проверка созревших
// тиражей (хеш-фолбэк) и ежедневный анонс ближайшего розыгрыша.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/lottery"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	lotteryService *lottery.Service
	loc            *time.Location
	lobbyChatID    int64
	sendFunc       func(chatID int64, text string)
}

// NewScheduler создаёт планировщик задач в часовом поясе лотереи.
func NewScheduler(lotteryService *lottery.Service, loc *time.Location, lobbyChatID int64, sendFunc func(chatID int64, text string)) *Scheduler {
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:           c,
		lotteryService: lotteryService,
		loc:            loc,
		lobbyChatID:    lobbyChatID,
		sendFunc:       sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Каждую минуту — проверка созревшего тиража (только хеш-фолбэк)
	s.cron.AddFunc("* * * * *", func() {
		settlement, err := s.lotteryService.AutoDraw(ctx)
		if err != nil {
			if !common.IsBusinessError(err) {
				log.WithError(err).Error("[CRON] Ошибка автоматического розыгрыша")
			}
			return
		}
		if settlement == nil {
			return
		}
		s.announceSettlement(settlement)
	})

	// Ежедневный анонс ближайшего розыгрыша в 10:00
	s.cron.AddFunc("0 10 * * *", func() {
		next := s.lotteryService.NextDrawTime()
		s.sendFunc(s.lobbyChatID, fmt.Sprintf(
			"🎰 Ближайшее окно тиража: %s\nУспей купить билет: !билет число1 число2",
			common.FormatDateTime(next, s.loc)))
	})

	s.cron.Start()
	log.WithField("tz", s.loc.String()).Info("Планировщик задач запущен")
}

// announceSettlement публикует результат тиража в лобби-чат.
func (s *Scheduler) announceSettlement(st *lottery.Settlement) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎲 ТИРАЖ №%d РАЗЫГРАН!\n\n", st.Nonce))
	sb.WriteString(fmt.Sprintf("Выпали числа: %d-%d\n", st.Numbers[0], st.Numbers[1]))

	if len(st.Payouts) == 0 {
		sb.WriteString("Победителей по числам нет 😔\n")
	} else {
		sb.WriteString(fmt.Sprintf("Победителей: %d\n", len(st.Payouts)))
	}
	if st.AirdropAmount > 0 {
		sb.WriteString(fmt.Sprintf("🎁 Аирдроп: %s\n", common.FormatAmount(st.AirdropAmount)))
	}
	sb.WriteString(fmt.Sprintf("💰 Всего выплачено: %s", common.FormatAmount(st.Total)))

	s.sendFunc(s.lobbyChatID, sb.String())
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

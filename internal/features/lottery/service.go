// Package lottery — service.go связывает движок цикла с казной и БД.
//
// Каждая операция: заблокировать цикл → прогнать движок → провести переводы
// Tx-методами казны → сохранить цикл — всё в одной транзакции БД.
// Откат транзакции отменяет и мутацию состояния, и переводы разом.
package lottery

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/leaderboard"
	"hiperia.app/lottery-bot/internal/features/treasury"
)

// Service управляет лотереей.
type Service struct {
	repo        *Repository
	treasury    *treasury.Repository
	leaderboard *leaderboard.Repository
	engine      *Engine
	fallback    Source

	// источник времени, подменяется в тестах
	now func() time.Time
}

// NewService создаёт сервис лотереи.
func NewService(repo *Repository, tr *treasury.Repository, lb *leaderboard.Repository, engine *Engine, fallback Source) *Service {
	return &Service{
		repo:        repo,
		treasury:    tr,
		leaderboard: lb,
		engine:      engine,
		fallback:    fallback,
		now:         time.Now,
	}
}

// EnsureCycle создаёт строку цикла при первом запуске развертывания.
func (s *Service) EnsureCycle(ctx context.Context, authority, oracle, ticketPrice, reserveFloor int64) error {
	return s.repo.EnsureCycle(ctx, authority, oracle, ticketPrice, reserveFloor)
}

// BuyTicket покупает билет с парой чисел для игрока.
// Проверки движка, списание цены в казну и счётчик рекордов — одна транзакция.
func (s *Service) BuyTicket(ctx context.Context, owner int64, n1, n2 uint8) (*Ticket, error) {
	var bought Ticket
	err := s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		t, err := s.engine.BuyTicket(c, owner, n1, n2, s.now())
		if err != nil {
			return err
		}

		err = s.treasury.ChargeToPoolTx(ctx, tx, owner, c.TicketPrice, treasury.TxTypeTicket,
			fmt.Sprintf("Билет %d-%d, тираж №%d", n1, n2, c.DrawNonce+1))
		if err != nil {
			return err
		}

		if err := s.leaderboard.AddTicketsTx(ctx, tx, owner, 1); err != nil {
			return err
		}

		bought = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"owner":   owner,
		"numbers": fmt.Sprintf("%d-%d", n1, n2),
	}).Info("Билет куплен")

	return &bought, nil
}

// Donate принимает донат в казну. Донаты наполняют бонусный аирдроп.
func (s *Service) Donate(ctx context.Context, donor int64, amount int64) error {
	err := s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		if err := s.engine.Donate(c, amount); err != nil {
			return err
		}
		err := s.treasury.ChargeToPoolTx(ctx, tx, donor, amount, treasury.TxTypeDonation, "Донат в казну лотереи")
		if err != nil {
			return err
		}
		return s.leaderboard.AddDonationTx(ctx, tx, donor, amount)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"donor": donor, "amount": amount}).Info("Донат принят")
	return nil
}

// RequestDraw запрашивает тираж от имени владельца.
// Возвращает назначенное время розыгрыша и новый nonce.
func (s *Service) RequestDraw(ctx context.Context, caller int64) (int64, uint64, error) {
	var drawTime int64
	var nonce uint64
	err := s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		if err := s.engine.RequestDraw(c, caller, s.now()); err != nil {
			return err
		}
		drawTime = c.DrawTime
		nonce = c.DrawNonce
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	log.WithFields(log.Fields{"draw_time": drawTime, "nonce": nonce}).Info("Тираж запрошен")
	return drawTime, nonce, nil
}

// FulfillFromOracle проводит розыгрыш с числами, присланными оракулом.
// nonce из сообщения оракула обязан совпасть с текущим запросом.
func (s *Service) FulfillFromOracle(ctx context.Context, caller int64, nonce uint64, n1, n2 uint8, aux uint64) (*Settlement, error) {
	rnd, err := OracleRandomness(n1, n2, aux)
	if err != nil {
		return nil, err
	}
	return s.fulfill(ctx, caller, nonce, rnd)
}

// AutoDraw — тик планировщика. В фолбэк-режиме (оракул не настроен)
// проводит созревший тираж на хеш-случайности. Возвращает nil без ошибки,
// если проводить нечего.
func (s *Service) AutoDraw(ctx context.Context) (*Settlement, error) {
	cycle, err := s.repo.GetCycle(ctx)
	if err != nil {
		return nil, err
	}
	if cycle.Oracle != 0 {
		// Настоящий оракул настроен — фолбэк запрещён
		return nil, nil
	}
	if cycle.DrawTime == 0 || s.now().Unix() < cycle.DrawTime || cycle.DrawExecuted {
		return nil, nil
	}

	rnd, err := s.fallback.Draw(cycle, s.now().Unix())
	if err != nil {
		return nil, err
	}

	settlement, err := s.fulfill(ctx, cycle.Oracle, cycle.DrawNonce, rnd)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"nonce":    settlement.Nonce,
		"fallback": true,
	}).Warn("Тираж проведён на хеш-фолбэке — случайность предсказуема, не для реальных денег")

	return settlement, nil
}

// fulfill — общий путь розыгрыша: расчёт движком, выплаты, публикация.
func (s *Service) fulfill(ctx context.Context, caller int64, nonce uint64, rnd Randomness) (*Settlement, error) {
	var settlement *Settlement
	err := s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		poolBalance, err := s.treasury.PoolBalanceTx(ctx, tx)
		if err != nil {
			return err
		}

		settlement, err = s.engine.FulfillDraw(c, caller, nonce, rnd, s.now(), poolBalance)
		if err != nil {
			return err
		}

		if settlement.SettledNow {
			if err := s.paySettlement(ctx, tx, settlement); err != nil {
				return err
			}
		}

		return s.repo.InsertDrawTx(ctx, tx, &DrawRecord{
			Nonce:         settlement.Nonce,
			DrawTime:      settlement.DrawTime,
			Number1:       settlement.Numbers[0],
			Number2:       settlement.Numbers[1],
			AirdropWinner: settlement.AirdropWinner,
			AirdropAmount: settlement.AirdropAmount,
			TotalPaid:     settlement.Total,
			Fallback:      settlement.Fallback,
			Settled:       settlement.SettledNow,
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"nonce":   settlement.Nonce,
		"numbers": fmt.Sprintf("%d-%d", settlement.Numbers[0], settlement.Numbers[1]),
		"total":   settlement.Total,
		"winners": len(settlement.Payouts),
	}).Info("Тираж разыгран")

	return settlement, nil
}

// paySettlement проводит все выплаты расчёта и обновляет рекорды.
// Каждый оплаченный игрок получает +1 к победам, ровно один раз за тираж.
func (s *Service) paySettlement(ctx context.Context, tx pgx.Tx, st *Settlement) error {
	paid := make(map[int64]bool)

	for _, p := range st.Payouts {
		desc := fmt.Sprintf("Приз тиража №%d за числа %d-%d", st.Nonce, st.Numbers[0], st.Numbers[1])
		if err := s.treasury.PayoutFromPoolTx(ctx, tx, p.Owner, p.Amount, treasury.TxTypePrize, desc); err != nil {
			return err
		}
		if err := s.leaderboard.AddWinTx(ctx, tx, p.Owner); err != nil {
			return err
		}
		paid[p.Owner] = true
	}

	if st.AirdropAmount > 0 {
		desc := fmt.Sprintf("Аирдроп тиража №%d", st.Nonce)
		err := s.treasury.PayoutFromPoolTx(ctx, tx, st.AirdropWinner, st.AirdropAmount, treasury.TxTypeAirdrop, desc)
		if err != nil {
			return err
		}
		if !paid[st.AirdropWinner] {
			if err := s.leaderboard.AddWinTx(ctx, tx, st.AirdropWinner); err != nil {
				return err
			}
		}
	}

	return nil
}

// Withdraw выводит незадействованный остаток казны на счёт dest.
// Только владелец, только после розыгрыша, не ниже резерва.
func (s *Service) Withdraw(ctx context.Context, caller, dest int64, amount int64) error {
	err := s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		poolBalance, err := s.treasury.PoolBalanceTx(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.engine.Withdraw(c, caller, amount, poolBalance); err != nil {
			return err
		}
		return s.treasury.PayoutFromPoolTx(ctx, tx, dest, amount, treasury.TxTypeWithdraw,
			fmt.Sprintf("Вывод остатка тиража №%d", c.DrawNonce))
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"caller": caller, "dest": dest, "amount": amount}).Info("Средства выведены")
	return nil
}

// SetOracle назначает оракула случайности. Только владелец.
func (s *Service) SetOracle(ctx context.Context, caller, oracle int64) error {
	return s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		return s.engine.SetOracle(c, caller, oracle)
	})
}

// ChangeAuthority передаёт владение лотереей. Только текущий владелец.
func (s *Service) ChangeAuthority(ctx context.Context, caller, newAuthority int64) error {
	return s.repo.WithCycle(ctx, func(tx pgx.Tx, c *Cycle) error {
		return s.engine.ChangeAuthority(c, caller, newAuthority)
	})
}

// GetCycle возвращает цикл для просмотра статуса.
func (s *Service) GetCycle(ctx context.Context) (*Cycle, error) {
	return s.repo.GetCycle(ctx)
}

// TicketsOf возвращает билеты игрока в текущем цикле.
func (s *Service) TicketsOf(ctx context.Context, owner int64) ([]*Ticket, error) {
	return s.repo.TicketsOf(ctx, owner)
}

// RecentDraws возвращает последние результаты тиражей.
func (s *Service) RecentDraws(ctx context.Context, limit int) ([]*DrawRecord, error) {
	return s.repo.GetRecentDraws(ctx, limit)
}

// NextDrawTime возвращает ближайший момент расписания тиражей.
func (s *Service) NextDrawTime() time.Time {
	return s.engine.Params().Schedule.Next(s.now())
}

// DescribeError переводит ошибку операции в сообщение для чата.
func DescribeError(err error) string {
	switch err {
	case common.ErrInvalidNumber:
		return "❌ Числа должны быть от 1 до 31"
	case common.ErrDuplicateNumber:
		return "❌ Числа билета не должны совпадать"
	case common.ErrSalesClosed:
		return "❌ Продажа билетов на этот тираж закрыта"
	case common.ErrMaxTicketsPerUser:
		return "❌ У вас уже максимум билетов на этот тираж"
	case common.ErrMaxSupplyReached:
		return "❌ Все билеты тиража проданы"
	case common.ErrInsufficientBalance:
		return "❌ Недостаточно кристаллов на счёте"
	case common.ErrInsufficientTickets:
		return "❌ Продано недостаточно билетов для тиража"
	case common.ErrDrawNotReady:
		return "❌ Тираж ещё не готов к розыгрышу"
	case common.ErrInvalidNonce:
		return "❌ Неверный nonce тиража (повтор или устаревший запрос)"
	case common.ErrNoTickets:
		return "❌ В тираже нет билетов"
	case common.ErrInsufficientFunds:
		return "❌ В казне недостаточно средств"
	case common.ErrUnauthorized:
		return "❌ Операция доступна только владельцу лотереи"
	case common.ErrNotOracle:
		return "❌ Результат тиража принимается только от оракула"
	case common.ErrDrawNotExecuted:
		return "❌ Розыгрыш ещё не проведён"
	case common.ErrFundsWithdrawn:
		return "❌ Средства тиража уже выведены"
	case common.ErrDonationTooLarge:
		return "❌ Донат превышает допустимый максимум"
	case common.ErrInvalidAmount:
		return "❌ Сумма должна быть положительной"
	default:
		return "❌ Не удалось выполнить операцию"
	}
}

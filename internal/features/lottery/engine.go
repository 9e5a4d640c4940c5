// Package lottery — engine.go содержит движок цикла лотереи.
//
// Движок — чистая state-машина над явно переданным *Cycle: никаких
// скрытых глобальных состояний, никакой работы с БД и переводов.
// Каждая операция сначала выполняет ВСЕ проверки и только потом мутирует
// цикл; при ошибке цикл остаётся нетронутым. Сервис (service.go) держит
// монопольную блокировку строки цикла и проводит переводы в той же
// транзакции БД, поэтому «проверил → изменил → перевёл» атомарно целиком.
package lottery

import (
	"math"
	"time"

	"hiperia.app/lottery-bot/internal/common"
)

// Engine — движок лотереи с фиксированными параметрами развертывания.
type Engine struct {
	p Params
}

// NewEngine создаёт движок.
func NewEngine(p Params) *Engine {
	return &Engine{p: p}
}

// Params возвращает параметры движка.
func (e *Engine) Params() Params {
	return e.p
}

// BuyTicket проверяет покупку и добавляет билет в цикл.
//
// Порядок проверок фиксирован: диапазон чисел, различность, окно продаж
// (продажи открыты, пока тираж не запрошен или его время не наступило),
// лимит на игрока, общий лимит. Списание цены билета делает казна —
// в той же транзакции, что и эта мутация.
func (e *Engine) BuyTicket(c *Cycle, owner int64, n1, n2 uint8, now time.Time) (*Ticket, error) {
	if err := ValidateNumbers([2]uint8{n1, n2}); err != nil {
		return nil, err
	}

	nowUnix := now.Unix()
	if c.DrawTime != 0 && nowUnix >= c.DrawTime {
		return nil, common.ErrSalesClosed
	}
	if c.CountTicketsOf(owner) >= e.p.MaxPerUser {
		return nil, common.ErrMaxTicketsPerUser
	}
	if c.TicketCount >= e.p.MaxTotal {
		return nil, common.ErrMaxSupplyReached
	}
	if c.TicketCount == math.MaxInt32 {
		return nil, common.ErrMathOverflow
	}

	ticket := Ticket{
		Owner:       owner,
		Number1:     n1,
		Number2:     n2,
		PurchasedAt: nowUnix,
		Nonce:       c.DrawNonce,
	}
	c.Tickets = append(c.Tickets, ticket)
	c.TicketCount++

	return &c.Tickets[len(c.Tickets)-1], nil
}

// RequestDraw переводит цикл из ожидания в состояние «тираж запрошен».
//
// Только владелец; нужен минимум билетов. Время розыгрыша — ближайший
// момент расписания, nonce увеличивается, флаги прошлого тиража
// сбрасываются. Повторный запрос до розыгрыша допустим: он выдаёт новый
// nonce и тем самым обесценивает ответ оракула на старый.
func (e *Engine) RequestDraw(c *Cycle, caller int64, now time.Time) error {
	if caller != c.Authority {
		return common.ErrUnauthorized
	}
	if c.TicketCount < e.p.DrawThreshold {
		return common.ErrInsufficientTickets
	}
	if c.DrawNonce == math.MaxUint64 {
		return common.ErrMathOverflow
	}

	c.DrawTime = e.p.Schedule.Next(now).Unix()
	c.DrawNonce++
	c.DrawExecuted = false
	c.FundsWithdrawn = false
	c.WinNumber1 = 0
	c.WinNumber2 = 0

	return nil
}

// Donate учитывает донат в цикле. Сам перевод средств делает казна.
func (e *Engine) Donate(c *Cycle, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if amount > e.p.MaxDonation {
		return common.ErrDonationTooLarge
	}
	sum, err := addChecked(c.DonationSum, amount)
	if err != nil {
		return err
	}
	c.DonationSum = sum
	return nil
}

// FulfillDraw проводит розыгрыш: принимает случайность, считает призы
// и возвращает готовый расчёт. Вызывающий обязан провести все переводы
// из Settlement в той же транзакции, в которой сохранит цикл.
//
// Защита от повтора — ТОЛЬКО равенство nonce: устаревший или продублированный
// ответ оракула отбрасывается, даже если пришёл в правильное время окна.
//
// poolBalance — баланс казны на момент вызова; проверка сохранения средств
// (сумма выплат ≤ казна) выполняется до каких-либо мутаций.
func (e *Engine) FulfillDraw(c *Cycle, caller int64, nonce uint64, rnd Randomness, now time.Time, poolBalance int64) (*Settlement, error) {
	if caller != c.Oracle {
		return nil, common.ErrNotOracle
	}
	if c.DrawTime == 0 {
		return nil, common.ErrDrawNotReady
	}
	if nonce != c.DrawNonce {
		return nil, common.ErrInvalidNonce
	}
	if c.DrawExecuted {
		return nil, common.ErrInvalidNonce
	}
	if now.Unix() < c.DrawTime {
		return nil, common.ErrDrawNotReady
	}
	if c.TicketCount == 0 {
		return nil, common.ErrNoTickets
	}
	if err := ValidateNumbers(rnd.Numbers); err != nil {
		return nil, err
	}

	payouts, err := ResolveWinners(c.Tickets, rnd.Numbers, e.p.PrizeExact, e.p.PrizePartial)
	if err != nil {
		return nil, err
	}

	airdrop, err := AirdropBudget(poolBalance, c.TicketPrice, c.TicketCount, e.p.BaseAirdrop, e.p.AirdropCap)
	if err != nil {
		return nil, err
	}

	winner, err := SelectAirdropWinner(c.Tickets, rnd.Aux, e.p.AirdropByOwner)
	if err != nil {
		return nil, err
	}

	total := airdrop
	for i := range payouts {
		total, err = addChecked(total, payouts[i].Amount)
		if err != nil {
			return nil, err
		}
	}
	if total > poolBalance {
		return nil, common.ErrInsufficientFunds
	}

	settlement := &Settlement{
		Nonce:          c.DrawNonce,
		DrawTime:       c.DrawTime,
		Numbers:        rnd.Numbers,
		Payouts:        payouts,
		AirdropWinner:  winner,
		AirdropAmount:  airdrop,
		Total:          total,
		Fallback:       rnd.Fallback,
		SettledNow:     e.p.AutoSettle,
		TicketsInCycle: c.TicketCount,
	}

	// Все проверки пройдены — мутируем цикл
	c.WinNumber1 = rnd.Numbers[0]
	c.WinNumber2 = rnd.Numbers[1]
	c.DrawExecuted = true

	if e.p.AutoSettle {
		// Выплаты проходят сразу, цикл начинается заново
		e.reset(c)
	}
	// В отложенном режиме билеты и флаг executed остаются:
	// их закроет вывод средств владельцем (Withdraw).

	return settlement, nil
}

// Withdraw — вывод незадействованного остатка владельцем (отложенный режим).
//
// Требует проведённого розыгрыша и невыведенных средств; сумма ограничена
// казной за вычетом неснижаемого резерва. После вывода цикл сбрасывается.
func (e *Engine) Withdraw(c *Cycle, caller int64, amount int64, poolBalance int64) error {
	if caller != c.Authority {
		return common.ErrUnauthorized
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if c.FundsWithdrawn {
		return common.ErrFundsWithdrawn
	}
	if !c.DrawExecuted {
		return common.ErrDrawNotExecuted
	}

	available := poolBalance - c.ReserveFloor
	if available < 0 {
		available = 0
	}
	if amount > available {
		return common.ErrInsufficientFunds
	}

	// Цикл закрывается полностью, из флагов переживает только
	// FundsWithdrawn: executed без drawTime — противоречивое состояние.
	e.reset(c)
	c.FundsWithdrawn = true

	return nil
}

// SetOracle меняет оракула. Только владелец.
func (e *Engine) SetOracle(c *Cycle, caller, oracle int64) error {
	if caller != c.Authority {
		return common.ErrUnauthorized
	}
	c.Oracle = oracle
	return nil
}

// ChangeAuthority передаёт владение лотереей. Только текущий владелец.
func (e *Engine) ChangeAuthority(c *Cycle, caller, newAuthority int64) error {
	if caller != c.Authority {
		return common.ErrUnauthorized
	}
	if newAuthority == 0 {
		return common.ErrUserNotFound
	}
	c.Authority = newAuthority
	return nil
}

// reset возвращает цикл в исходное состояние для следующего тиража.
func (e *Engine) reset(c *Cycle) {
	c.Tickets = nil
	c.TicketCount = 0
	c.DonationSum = 0
	c.DrawTime = 0
	c.DrawExecuted = false
	c.FundsWithdrawn = false
	c.WinNumber1 = 0
	c.WinNumber2 = 0
}

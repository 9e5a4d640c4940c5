package lottery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiperia.app/lottery-bot/internal/common"
)

func testParams() Params {
	return Params{
		MaxPerUser:    10,
		MaxTotal:      1000,
		DrawThreshold: 10,
		TicketPrice:   1_000_000_000,
		PrizeExact:    1_200_000_000,
		PrizePartial:  600_000_000,
		BaseAirdrop:   0,
		AirdropCap:    500_000_000,
		MaxDonation:   1_000_000_000_000,
		ReserveFloor:  0,
		AutoSettle:    true,
		Schedule:      NewSchedule([]int{14, 16}, time.UTC),
	}
}

func testCycle() *Cycle {
	return &Cycle{
		ID:          1,
		Authority:   100,
		Oracle:      200,
		TicketPrice: 1_000_000_000,
	}
}

// buyN покупает n билетов с различными числами от имени разных игроков.
func buyN(t *testing.T, e *Engine, c *Cycle, n int, now time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		owner := int64(1000 + i)
		n1 := uint8(i%MaxNumber) + 1
		n2 := uint8((i+1)%MaxNumber) + 1
		_, err := e.BuyTicket(c, owner, n1, n2, now)
		require.NoError(t, err)
	}
}

func TestBuyTicketValidation(t *testing.T) {
	e := NewEngine(testParams())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		n1, n2 uint8
		want   error
	}{
		{"ноль", 0, 5, common.ErrInvalidNumber},
		{"больше 31", 32, 5, common.ErrInvalidNumber},
		{"второе вне диапазона", 5, 0, common.ErrInvalidNumber},
		{"одинаковые", 7, 7, common.ErrDuplicateNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCycle()
			_, err := e.BuyTicket(c, 1, tt.n1, tt.n2, now)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, c.Tickets)
			assert.Zero(t, c.TicketCount)
		})
	}

	c := testCycle()
	ticket, err := e.BuyTicket(c, 1, 31, 1, now)
	require.NoError(t, err)
	assert.Equal(t, uint8(31), ticket.Number1)
	assert.Equal(t, uint8(1), ticket.Number2)
	assert.Equal(t, 1, c.TicketCount)
}

func TestBuyTicketPerUserCap(t *testing.T) {
	p := testParams()
	p.MaxPerUser = 3
	e := NewEngine(p)
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := e.BuyTicket(c, 1, uint8(i+1), uint8(i+10), now)
		require.NoError(t, err)
	}

	_, err := e.BuyTicket(c, 1, 20, 21, now)
	assert.ErrorIs(t, err, common.ErrMaxTicketsPerUser)

	// Другой игрок покупает свободно
	_, err = e.BuyTicket(c, 2, 20, 21, now)
	assert.NoError(t, err)
	assert.Equal(t, 4, c.TicketCount)
}

func TestBuyTicketGlobalCap(t *testing.T) {
	p := testParams()
	p.MaxTotal = 5
	e := NewEngine(p)
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 5, now)

	_, err := e.BuyTicket(c, 9999, 3, 9, now)
	assert.ErrorIs(t, err, common.ErrMaxSupplyReached)
	assert.Equal(t, 5, c.TicketCount)
}

func TestBuyTicketSalesWindow(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	drawTime := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	c.DrawTime = drawTime.Unix()

	// До времени розыгрыша продажи открыты
	_, err := e.BuyTicket(c, 1, 3, 7, drawTime.Add(-time.Second))
	assert.NoError(t, err)

	// Ровно в момент розыгрыша — уже закрыты
	_, err = e.BuyTicket(c, 2, 3, 7, drawTime)
	assert.ErrorIs(t, err, common.ErrSalesClosed)

	// После — тем более
	_, err = e.BuyTicket(c, 2, 3, 7, drawTime.Add(time.Hour))
	assert.ErrorIs(t, err, common.ErrSalesClosed)
}

func TestRequestDraw(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Не владелец
	err := e.RequestDraw(c, 999, now)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// Мало билетов: 9 при пороге 10
	buyN(t, e, c, 9, now)
	err = e.RequestDraw(c, c.Authority, now)
	assert.ErrorIs(t, err, common.ErrInsufficientTickets)
	assert.Zero(t, c.DrawNonce)

	// Десятый билет открывает тираж
	_, err = e.BuyTicket(c, 42, 5, 6, now)
	require.NoError(t, err)
	err = e.RequestDraw(c, c.Authority, now)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), c.DrawNonce)
	assert.False(t, c.DrawExecuted)
	assert.False(t, c.FundsWithdrawn)
	// Ближайший час расписания: 14:00 того же дня
	assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC).Unix(), c.DrawTime)
}

func TestRequestDrawSupersedes(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	buyN(t, e, c, 10, now)

	require.NoError(t, e.RequestDraw(c, c.Authority, now))
	require.NoError(t, e.RequestDraw(c, c.Authority, now))
	assert.Equal(t, uint64(2), c.DrawNonce)

	// Ответ оракула на устаревший nonce отбрасывается
	rnd := Randomness{Numbers: [2]uint8{3, 7}}
	_, err := e.FulfillDraw(c, c.Oracle, 1, rnd, time.Unix(c.DrawTime, 0), 1_000_000_000_000)
	assert.ErrorIs(t, err, common.ErrInvalidNonce)
}

func TestDonate(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()

	assert.ErrorIs(t, e.Donate(c, 0), common.ErrInvalidAmount)
	assert.ErrorIs(t, e.Donate(c, -5), common.ErrInvalidAmount)
	assert.ErrorIs(t, e.Donate(c, 1_000_000_000_001), common.ErrDonationTooLarge)
	assert.Zero(t, c.DonationSum)

	require.NoError(t, e.Donate(c, 300_000_000))
	require.NoError(t, e.Donate(c, 200_000_000))
	assert.Equal(t, int64(500_000_000), c.DonationSum)
}

func TestFulfillDrawAutoSettle(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	// Игрок 1: точное совпадение, игрок 2: перестановка, игрок 3: мимо
	_, err := e.BuyTicket(c, 1, 3, 7, now)
	require.NoError(t, err)
	_, err = e.BuyTicket(c, 2, 7, 3, now)
	require.NoError(t, err)
	_, err = e.BuyTicket(c, 3, 4, 8, now)
	require.NoError(t, err)

	require.NoError(t, e.RequestDraw(c, c.Authority, now))
	nonce := c.DrawNonce
	drawMoment := time.Unix(c.DrawTime, 0)

	// Казна: выручка с 13 билетов
	pool := int64(13) * 1_000_000_000

	rnd := Randomness{Numbers: [2]uint8{3, 7}, Aux: 5}
	st, err := e.FulfillDraw(c, c.Oracle, nonce, rnd, drawMoment, pool)
	require.NoError(t, err)

	assert.Equal(t, nonce, st.Nonce)
	assert.True(t, st.SettledNow)
	assert.Equal(t, 13, st.TicketsInCycle)

	// Точное — 1.2 млрд, перестановка — 0.6 млрд
	require.Len(t, st.Payouts, 2)
	assert.Equal(t, int64(1), st.Payouts[0].Owner)
	assert.Equal(t, int64(1_200_000_000), st.Payouts[0].Amount)
	assert.Equal(t, 1, st.Payouts[0].Exact)
	assert.Equal(t, int64(2), st.Payouts[1].Owner)
	assert.Equal(t, int64(600_000_000), st.Payouts[1].Amount)
	assert.Equal(t, 1, st.Payouts[1].Partial)

	// Донатов нет — казна равна выручке, аирдроп нулевой
	assert.Zero(t, st.AirdropAmount)
	assert.Equal(t, int64(1_800_000_000), st.Total)

	// Автоматический режим: цикл сброшен для следующего тиража
	assert.Empty(t, c.Tickets)
	assert.Zero(t, c.TicketCount)
	assert.Zero(t, c.DrawTime)
	assert.False(t, c.DrawExecuted)
	// Nonce не сбрасывается: защита от повтора переживает цикл
	assert.Equal(t, nonce, c.DrawNonce)
}

func TestFulfillDrawSameOwnerBothMatches(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	// Один игрок держит и точный билет, и перестановку
	_, err := e.BuyTicket(c, 7, 3, 7, now)
	require.NoError(t, err)
	_, err = e.BuyTicket(c, 7, 7, 3, now)
	require.NoError(t, err)

	require.NoError(t, e.RequestDraw(c, c.Authority, now))

	rnd := Randomness{Numbers: [2]uint8{3, 7}}
	st, err := e.FulfillDraw(c, c.Oracle, c.DrawNonce, rnd, time.Unix(c.DrawTime, 0), 100_000_000_000)
	require.NoError(t, err)

	require.Len(t, st.Payouts, 1)
	assert.Equal(t, int64(7), st.Payouts[0].Owner)
	assert.Equal(t, int64(1_800_000_000), st.Payouts[0].Amount)
	assert.Equal(t, 1, st.Payouts[0].Exact)
	assert.Equal(t, 1, st.Payouts[0].Partial)
}

func TestFulfillDrawChecks(t *testing.T) {
	e := NewEngine(testParams())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rnd := Randomness{Numbers: [2]uint8{3, 7}}

	t.Run("не оракул", func(t *testing.T) {
		c := testCycle()
		_, err := e.FulfillDraw(c, 999, 0, rnd, now, 0)
		assert.ErrorIs(t, err, common.ErrNotOracle)
	})

	t.Run("тираж не запрошен", func(t *testing.T) {
		c := testCycle()
		_, err := e.FulfillDraw(c, c.Oracle, 0, rnd, now, 0)
		assert.ErrorIs(t, err, common.ErrDrawNotReady)
	})

	t.Run("время не наступило", func(t *testing.T) {
		c := testCycle()
		buyN(t, e, c, 10, now)
		require.NoError(t, e.RequestDraw(c, c.Authority, now))
		_, err := e.FulfillDraw(c, c.Oracle, c.DrawNonce, rnd, time.Unix(c.DrawTime, 0).Add(-time.Second), 100_000_000_000)
		assert.ErrorIs(t, err, common.ErrDrawNotReady)
		assert.False(t, c.DrawExecuted)
	})

	t.Run("некорректные числа от оракула", func(t *testing.T) {
		c := testCycle()
		buyN(t, e, c, 10, now)
		require.NoError(t, e.RequestDraw(c, c.Authority, now))
		bad := Randomness{Numbers: [2]uint8{3, 3}}
		_, err := e.FulfillDraw(c, c.Oracle, c.DrawNonce, bad, time.Unix(c.DrawTime, 0), 100_000_000_000)
		assert.ErrorIs(t, err, common.ErrDuplicateNumber)
	})
}

func TestFulfillDrawInsufficientPool(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	_, err := e.BuyTicket(c, 1, 3, 7, now)
	require.NoError(t, err)
	require.NoError(t, e.RequestDraw(c, c.Authority, now))

	// Казна меньше причитающегося приза
	rnd := Randomness{Numbers: [2]uint8{3, 7}}
	_, err = e.FulfillDraw(c, c.Oracle, c.DrawNonce, rnd, time.Unix(c.DrawTime, 0), 1_000_000_000)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	// Цикл не тронут: розыгрыш можно повторить, когда казна пополнится
	assert.False(t, c.DrawExecuted)
	assert.Equal(t, 11, c.TicketCount)
	assert.Zero(t, c.WinNumber1)
}

func TestFulfillDrawReplayDeferred(t *testing.T) {
	p := testParams()
	p.AutoSettle = false
	e := NewEngine(p)
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	require.NoError(t, e.RequestDraw(c, c.Authority, now))
	nonce := c.DrawNonce
	drawMoment := time.Unix(c.DrawTime, 0)

	rnd := Randomness{Numbers: [2]uint8{3, 7}}
	st, err := e.FulfillDraw(c, c.Oracle, nonce, rnd, drawMoment, 100_000_000_000)
	require.NoError(t, err)
	assert.False(t, st.SettledNow)
	assert.True(t, c.DrawExecuted)
	assert.Equal(t, uint8(3), c.WinNumber1)
	assert.Equal(t, uint8(7), c.WinNumber2)

	// Отложенный режим: билеты остаются до вывода средств
	assert.Equal(t, 10, c.TicketCount)

	// Повторный ответ оракула с тем же nonce отбрасывается
	_, err = e.FulfillDraw(c, c.Oracle, nonce, rnd, drawMoment, 100_000_000_000)
	assert.ErrorIs(t, err, common.ErrInvalidNonce)
}

func TestFulfillDrawAirdrop(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	require.NoError(t, e.Donate(c, 600_000_000))
	require.NoError(t, e.RequestDraw(c, c.Authority, now))

	// Казна: выручка 10 млрд + донат 0.6 млрд
	pool := int64(10_600_000_000)

	// Числа, которые никто не держит: выплат нет, только аирдроп
	rnd := Randomness{Numbers: [2]uint8{30, 29}, Aux: 3}
	st, err := e.FulfillDraw(c, c.Oracle, c.DrawNonce, rnd, time.Unix(c.DrawTime, 0), pool)
	require.NoError(t, err)

	assert.Empty(t, st.Payouts)
	// Половина доната, потолок 0.5 млрд не достигнут
	assert.Equal(t, int64(300_000_000), st.AirdropAmount)
	// Aux=3 — четвёртый билет (владельцы 1000, 1001, ...)
	assert.Equal(t, int64(1003), st.AirdropWinner)
	assert.Equal(t, st.AirdropAmount, st.Total)
}

func TestWithdraw(t *testing.T) {
	p := testParams()
	p.AutoSettle = false
	e := NewEngine(p)
	c := testCycle()
	c.ReserveFloor = 2_000_000_000
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	buyN(t, e, c, 10, now)
	require.NoError(t, e.RequestDraw(c, c.Authority, now))

	// До розыгрыша вывод запрещён
	err := e.Withdraw(c, c.Authority, 1, 10_000_000_000)
	assert.ErrorIs(t, err, common.ErrDrawNotExecuted)

	rnd := Randomness{Numbers: [2]uint8{30, 29}}
	_, err = e.FulfillDraw(c, c.Oracle, c.DrawNonce, rnd, time.Unix(c.DrawTime, 0), 10_000_000_000)
	require.NoError(t, err)

	// Не владелец
	err = e.Withdraw(c, 999, 1_000_000_000, 10_000_000_000)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// Сумма сверх резерва недоступна: 10 - 2 = 8 млрд максимум
	err = e.Withdraw(c, c.Authority, 8_000_000_001, 10_000_000_000)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	require.NoError(t, e.Withdraw(c, c.Authority, 8_000_000_000, 10_000_000_000))
	assert.True(t, c.FundsWithdrawn)
	assert.Zero(t, c.TicketCount)
	assert.Zero(t, c.DrawTime)

	// Вывод закрывает тираж целиком: executed при нулевом drawTime
	// означал бы розыгрыш, которого никто не назначал
	assert.False(t, c.DrawExecuted)
	assert.Zero(t, c.WinNumber1)
	assert.Zero(t, c.WinNumber2)

	// Повторный вывод того же тиража
	err = e.Withdraw(c, c.Authority, 1, 2_000_000_000)
	assert.ErrorIs(t, err, common.ErrFundsWithdrawn)

	// Новый тираж запрашивается поверх закрытого цикла
	buyN(t, e, c, 10, now)
	require.NoError(t, e.RequestDraw(c, c.Authority, now))
	assert.False(t, c.FundsWithdrawn)
}

func TestSetOracleAndChangeAuthority(t *testing.T) {
	e := NewEngine(testParams())
	c := testCycle()

	assert.ErrorIs(t, e.SetOracle(c, 999, 300), common.ErrUnauthorized)
	require.NoError(t, e.SetOracle(c, c.Authority, 300))
	assert.Equal(t, int64(300), c.Oracle)

	// Отключение оракула (0 — хеш-фолбэк) разрешено
	require.NoError(t, e.SetOracle(c, c.Authority, 0))

	assert.ErrorIs(t, e.ChangeAuthority(c, 999, 500), common.ErrUnauthorized)
	assert.ErrorIs(t, e.ChangeAuthority(c, c.Authority, 0), common.ErrUserNotFound)
	require.NoError(t, e.ChangeAuthority(c, c.Authority, 500))
	assert.Equal(t, int64(500), c.Authority)

	// Старый владелец потерял права
	assert.ErrorIs(t, e.SetOracle(c, 100, 300), common.ErrUnauthorized)
}

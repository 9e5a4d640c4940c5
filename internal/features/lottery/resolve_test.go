package lottery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiperia.app/lottery-bot/internal/common"
)

func TestClassify(t *testing.T) {
	winning := [2]uint8{3, 7}

	assert.Equal(t, MatchExact, Classify([2]uint8{3, 7}, winning))
	assert.Equal(t, MatchPartial, Classify([2]uint8{7, 3}, winning))
	assert.Equal(t, MatchNone, Classify([2]uint8{3, 8}, winning))
	assert.Equal(t, MatchNone, Classify([2]uint8{8, 7}, winning))
	assert.Equal(t, MatchNone, Classify([2]uint8{1, 2}, winning))
}

func TestResolveWinners(t *testing.T) {
	tickets := []Ticket{
		{Owner: 1, Number1: 5, Number2: 6},  // мимо
		{Owner: 2, Number1: 7, Number2: 3},  // перестановка
		{Owner: 3, Number1: 3, Number2: 7},  // точное
		{Owner: 2, Number1: 3, Number2: 7},  // точное, тот же игрок 2
		{Owner: 4, Number1: 10, Number2: 3}, // мимо
	}

	payouts, err := ResolveWinners(tickets, [2]uint8{3, 7}, 1_200_000_000, 600_000_000)
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	// Порядок по первому выигрышному билету: сначала игрок 2, потом 3
	assert.Equal(t, int64(2), payouts[0].Owner)
	assert.Equal(t, int64(1_800_000_000), payouts[0].Amount)
	assert.Equal(t, 1, payouts[0].Exact)
	assert.Equal(t, 1, payouts[0].Partial)

	assert.Equal(t, int64(3), payouts[1].Owner)
	assert.Equal(t, int64(1_200_000_000), payouts[1].Amount)
}

func TestResolveWinnersEmpty(t *testing.T) {
	payouts, err := ResolveWinners(nil, [2]uint8{3, 7}, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func TestResolveWinnersOverflow(t *testing.T) {
	tickets := []Ticket{
		{Owner: 1, Number1: 3, Number2: 7},
		{Owner: 1, Number1: 3, Number2: 7},
	}
	_, err := ResolveWinners(tickets, [2]uint8{3, 7}, math.MaxInt64, 1)
	assert.ErrorIs(t, err, common.ErrMathOverflow)
}

func TestAirdropBudget(t *testing.T) {
	// Донатов нет: казна равна выручке
	got, err := AirdropBudget(10_000_000_000, 1_000_000_000, 10, 0, 500_000_000)
	require.NoError(t, err)
	assert.Zero(t, got)

	// Донат 0.6 млрд: половина меньше потолка
	got, err = AirdropBudget(10_600_000_000, 1_000_000_000, 10, 0, 500_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(300_000_000), got)

	// Донат 2 млрд: половина упирается в потолок
	got, err = AirdropBudget(12_000_000_000, 1_000_000_000, 10, 0, 500_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000_000), got)

	// Казна меньше выручки (часть уже выплачена): не уходим в минус
	got, err = AirdropBudget(5_000_000_000, 1_000_000_000, 10, 0, 500_000_000)
	require.NoError(t, err)
	assert.Zero(t, got)

	// Базовая часть добавляется поверх донатной
	got, err = AirdropBudget(10_600_000_000, 1_000_000_000, 10, 2_000_000_000, 500_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(2_300_000_000), got)
}

func TestSelectAirdropWinner(t *testing.T) {
	tickets := []Ticket{
		{Owner: 10}, {Owner: 20}, {Owner: 10}, {Owner: 30},
	}

	// По билетам: индекс aux % 4
	winner, err := SelectAirdropWinner(tickets, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(10), winner)

	winner, err = SelectAirdropWinner(tickets, 7, false)
	require.NoError(t, err)
	assert.Equal(t, int64(30), winner)

	// По игрокам: уникальные владельцы [10, 20, 30], индекс aux % 3
	winner, err = SelectAirdropWinner(tickets, 2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(30), winner)

	winner, err = SelectAirdropWinner(tickets, 4, true)
	require.NoError(t, err)
	assert.Equal(t, int64(20), winner)

	_, err = SelectAirdropWinner(nil, 0, false)
	assert.ErrorIs(t, err, common.ErrNoTickets)
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := addChecked(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)

	_, err = addChecked(math.MaxInt64, 1)
	assert.ErrorIs(t, err, common.ErrMathOverflow)

	prod, err := mulChecked(1_000_000_000, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000_000), prod)

	_, err = mulChecked(math.MaxInt64, 2)
	assert.ErrorIs(t, err, common.ErrMathOverflow)

	prod, err = mulChecked(0, math.MaxInt64)
	require.NoError(t, err)
	assert.Zero(t, prod)
}

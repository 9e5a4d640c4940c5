// Package lottery — resolve.go классифицирует билеты по выигрышной паре
// и считает призы. Чистые функции без побочных эффектов: движок вызывает
// их до любых переводов, чтобы сумма выплат была известна заранее.
package lottery

import "hiperia.app/lottery-bot/internal/common"

// Match — класс совпадения билета с выигрышной парой.
type Match int

const (
	// MatchNone — билет не выиграл
	MatchNone Match = iota
	// MatchPartial — числа совпали, но в другом порядке
	MatchPartial
	// MatchExact — числа совпали в точном порядке
	MatchExact
)

// Classify сравнивает числа билета с выигрышной парой.
// Точное совпадение — упорядоченная пара равна выигрышной;
// частичное — совпадает множество чисел, но порядок другой.
func Classify(ticket, winning [2]uint8) Match {
	if ticket[0] == winning[0] && ticket[1] == winning[1] {
		return MatchExact
	}
	if ticket[0] == winning[1] && ticket[1] == winning[0] {
		return MatchPartial
	}
	return MatchNone
}

// ResolveWinners раскладывает билеты по владельцам и считает суммарные призы.
// Порядок выплат детерминирован: владельцы идут в порядке первого
// выигрышного билета. Переполнение суммы — ошибка, а не молчаливый перенос.
func ResolveWinners(tickets []Ticket, winning [2]uint8, prizeExact, prizePartial int64) ([]Payout, error) {
	index := make(map[int64]int) // владелец → позиция в payouts
	var payouts []Payout

	for i := range tickets {
		t := &tickets[i]
		match := Classify(t.Numbers(), winning)
		if match == MatchNone {
			continue
		}

		prize := prizePartial
		if match == MatchExact {
			prize = prizeExact
		}

		pos, ok := index[t.Owner]
		if !ok {
			pos = len(payouts)
			index[t.Owner] = pos
			payouts = append(payouts, Payout{Owner: t.Owner})
		}

		sum, err := addChecked(payouts[pos].Amount, prize)
		if err != nil {
			return nil, err
		}
		payouts[pos].Amount = sum
		if match == MatchExact {
			payouts[pos].Exact++
		} else {
			payouts[pos].Partial++
		}
	}

	return payouts, nil
}

// AirdropBudget считает сумму бонусного аирдропа.
// Донатный пул — всё, что в казне сверх стоимости проданных билетов
// (не меньше нуля); в аирдроп идёт его половина, но не больше потолка,
// плюс фиксированная базовая часть.
func AirdropBudget(poolBalance, ticketPrice int64, ticketCount int, base, cap int64) (int64, error) {
	ticketRevenue, err := mulChecked(ticketPrice, int64(ticketCount))
	if err != nil {
		return 0, err
	}

	donationPool := poolBalance - ticketRevenue
	if donationPool < 0 {
		donationPool = 0
	}

	share := donationPool / 2
	if share > cap {
		share = cap
	}
	return addChecked(base, share)
}

// SelectAirdropWinner выбирает победителя аирдропа.
// byOwner=false — индекс по билетам (больше билетов = выше шанс),
// byOwner=true — индекс по уникальным игрокам в порядке первого билета.
func SelectAirdropWinner(tickets []Ticket, aux uint64, byOwner bool) (int64, error) {
	if len(tickets) == 0 {
		return 0, common.ErrNoTickets
	}

	if !byOwner {
		return tickets[aux%uint64(len(tickets))].Owner, nil
	}

	seen := make(map[int64]bool)
	var owners []int64
	for i := range tickets {
		if !seen[tickets[i].Owner] {
			seen[tickets[i].Owner] = true
			owners = append(owners, tickets[i].Owner)
		}
	}
	return owners[aux%uint64(len(owners))], nil
}

// addChecked складывает суммы с контролем переполнения.
func addChecked(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, common.ErrMathOverflow
	}
	return sum, nil
}

// mulChecked перемножает суммы с контролем переполнения.
func mulChecked(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/b != a {
		return 0, common.ErrMathOverflow
	}
	return prod, nil
}

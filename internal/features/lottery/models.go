// Package lottery реализует лотерею «Гиперия»: покупка билетов с двумя числами,
// двухфазный тираж (запрос → розыгрыш) и расчёт призов из общей казны.
// models.go описывает структуры данных цикла, билетов и результатов.
package lottery

import "time"

// MaxNumber — верхняя граница чисел билета (числа от 1 до 31, как дни месяца).
const MaxNumber = 31

// Cycle — состояние единственного активного цикла лотереи.
// В базе живёт ровно одна строка; каждая операция читает её с блокировкой,
// меняет и записывает обратно в той же транзакции.
type Cycle struct {
	ID             int64     `db:"id"`              // Всегда 1 (единственная строка)
	Authority      int64     `db:"authority_id"`    // Владелец лотереи (Telegram user ID)
	Oracle         int64     `db:"oracle_id"`       // Оракул случайности, 0 = не настроен
	TicketPrice    int64     `db:"ticket_price"`    // Цена билета в кристаллах
	DrawTime       int64     `db:"draw_time"`       // Unix-время розыгрыша, 0 = тираж не запрошен
	DrawNonce      uint64    `db:"draw_nonce"`      // Монотонный счётчик запросов тиража
	DrawExecuted   bool      `db:"draw_executed"`   // Розыгрыш проведён
	FundsWithdrawn bool      `db:"funds_withdrawn"` // Средства тиража выведены (отложенный режим)
	ReserveFloor   int64     `db:"reserve_floor"`   // Неснижаемый остаток казны
	WinNumber1     uint8     `db:"win_number1"`     // Первое выигрышное число (0 = не опубликовано)
	WinNumber2     uint8     `db:"win_number2"`     // Второе выигрышное число
	DonationSum    int64     `db:"donation_sum"`    // Сумма донатов текущего цикла
	TicketCount    int       `db:"ticket_count"`    // Продано билетов в цикле
	UpdatedAt      time.Time `db:"updated_at"`

	// Билеты текущего цикла, в порядке покупки.
	// Инвариант: TicketCount == len(Tickets).
	Tickets []Ticket `db:"-"`
}

// WinningNumbers возвращает опубликованную пару чисел.
func (c *Cycle) WinningNumbers() [2]uint8 {
	return [2]uint8{c.WinNumber1, c.WinNumber2}
}

// CountTicketsOf возвращает число билетов игрока в текущем цикле.
func (c *Cycle) CountTicketsOf(owner int64) int {
	n := 0
	for i := range c.Tickets {
		if c.Tickets[i].Owner == owner {
			n++
		}
	}
	return n
}

// Ticket — один купленный билет текущего цикла.
// После покупки билет не меняется; при расчёте тиража билеты удаляются.
type Ticket struct {
	ID          int64  `db:"id"`
	Owner       int64  `db:"owner_id"`     // Telegram user ID покупателя
	Number1     uint8  `db:"number1"`      // Первое число (1–31)
	Number2     uint8  `db:"number2"`      // Второе число (1–31, не равно первому)
	PurchasedAt int64  `db:"purchased_at"` // Unix-время покупки
	Nonce       uint64 `db:"nonce"`        // DrawNonce цикла на момент покупки
}

// Numbers возвращает пару чисел билета.
func (t *Ticket) Numbers() [2]uint8 {
	return [2]uint8{t.Number1, t.Number2}
}

// Payout — итоговая выплата одному игроку по результатам тиража.
// Если у игрока несколько выигрышных билетов — суммы складываются.
type Payout struct {
	Owner   int64 // Получатель
	Amount  int64 // Суммарный приз в кристаллах
	Exact   int   // Сколько билетов с точным совпадением
	Partial int   // Сколько билетов с совпадением без учёта порядка
}

// Settlement — полный расчёт одного тиража: кто, сколько и за что получает.
// Считается до единственного перевода средств; сумма проверяется против казны.
type Settlement struct {
	Nonce          uint64    // Nonce тиража
	DrawTime       int64     // Запланированное время розыгрыша
	Numbers        [2]uint8  // Выигрышная пара (упорядоченная)
	Payouts        []Payout  // Призы победителям, порядок детерминирован
	AirdropWinner  int64     // Победитель бонусного аирдропа
	AirdropAmount  int64     // Сумма аирдропа
	Total          int64     // Сумма всех выплат (призы + аирдроп)
	Fallback       bool      // Числа получены хеш-фолбэком, а не оракулом
	SettledNow     bool      // true — выплаты проведены внутри розыгрыша
	TicketsInCycle int       // Сколько билетов участвовало
}

// DrawRecord — опубликованный результат тиража (история).
// Публикуется ровно один раз на nonce и после этого не меняется.
type DrawRecord struct {
	ID            int64     `db:"id"`
	Nonce         uint64    `db:"nonce"`
	DrawTime      int64     `db:"draw_time"`
	Number1       uint8     `db:"number1"`
	Number2       uint8     `db:"number2"`
	AirdropWinner int64     `db:"airdrop_winner"`
	AirdropAmount int64     `db:"airdrop_amount"`
	TotalPaid     int64     `db:"total_paid"`
	Fallback      bool      `db:"fallback"`
	Settled       bool      `db:"settled"`
	CreatedAt     time.Time `db:"created_at"`
}

// Params — параметры движка лотереи. Заполняются из конфигурации.
type Params struct {
	MaxPerUser    int   // Лимит билетов на игрока за цикл
	MaxTotal      int   // Лимит билетов на цикл
	DrawThreshold int   // Минимум билетов для запроса тиража
	TicketPrice   int64 // Цена билета
	PrizeExact    int64 // Приз за точное совпадение
	PrizePartial  int64 // Приз за совпадение без учёта порядка
	BaseAirdrop   int64 // Фиксированная часть аирдропа
	AirdropCap    int64 // Потолок донатной части аирдропа
	MaxDonation   int64 // Максимальный размер одного доната
	ReserveFloor  int64 // Неснижаемый остаток казны при выводе
	AutoSettle    bool  // Автовыплаты внутри розыгрыша

	// AirdropByOwner: true — аирдроп разыгрывается среди уникальных игроков,
	// false — среди билетов (больше билетов = выше шанс).
	AirdropByOwner bool

	Schedule Schedule // Правило расписания тиражей
}

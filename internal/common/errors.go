// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки валидации билетов
var (
	// ErrInvalidNumber — число вне диапазона 1–31
	ErrInvalidNumber = errors.New("число должно быть от 1 до 31")
	// ErrDuplicateNumber — оба числа билета совпадают
	ErrDuplicateNumber = errors.New("числа билета не должны совпадать")
)

// Ошибки покупки (окно продаж и лимиты)
var (
	// ErrSalesClosed — продажи закрыты до завершения тиража
	ErrSalesClosed = errors.New("продажа билетов на этот тираж закрыта")
	// ErrMaxTicketsPerUser — у игрока уже максимум билетов на тираж
	ErrMaxTicketsPerUser = errors.New("достигнут лимит билетов на игрока")
	// ErrMaxSupplyReached — продан весь тираж
	ErrMaxSupplyReached = errors.New("все билеты тиража проданы")
	// ErrInsufficientBalance — недостаточно кристаллов на счёте
	ErrInsufficientBalance = errors.New("недостаточно кристаллов на счёте")
)

// Ошибки последовательности тиража
var (
	// ErrInsufficientTickets — продано меньше билетов, чем нужно для запроса тиража
	ErrInsufficientTickets = errors.New("продано недостаточно билетов для тиража")
	// ErrDrawNotReady — тираж не запрошен или время розыгрыша ещё не наступило
	ErrDrawNotReady = errors.New("тираж ещё не готов к розыгрышу")
	// ErrInvalidNonce — nonce не совпадает с текущим запросом (повтор или устаревший ответ)
	ErrInvalidNonce = errors.New("неверный nonce тиража")
	// ErrDrawNotExecuted — розыгрыш ещё не проведён
	ErrDrawNotExecuted = errors.New("розыгрыш ещё не проведён")
	// ErrFundsWithdrawn — средства этого тиража уже выведены
	ErrFundsWithdrawn = errors.New("средства тиража уже выведены")
	// ErrNoTickets — в тираже нет ни одного билета
	ErrNoTickets = errors.New("в тираже нет билетов")
)

// Ошибки казны и платежей
var (
	// ErrInsufficientFunds — в казне не хватает средств на все выплаты
	ErrInsufficientFunds = errors.New("в казне недостаточно средств для выплат")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrDonationTooLarge — донат превышает допустимый максимум
	ErrDonationTooLarge = errors.New("донат превышает допустимый максимум")
	// ErrMathOverflow — переполнение при подсчёте сумм
	ErrMathOverflow = errors.New("переполнение при подсчёте суммы")
	// ErrSelfTransfer — попытка перевести кристаллы самому себе
	ErrSelfTransfer = errors.New("нельзя переводить кристаллы самому себе")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// IsBusinessError сообщает, является ли ошибка ожидаемым отказом
// бизнес-правила (а не сбоем БД или сети). Такие ошибки показываются
// пользователю и не попадают в лог как Error.
func IsBusinessError(err error) bool {
	for _, known := range businessErrors {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

var businessErrors = []error{
	ErrInvalidNumber, ErrDuplicateNumber,
	ErrSalesClosed, ErrMaxTicketsPerUser, ErrMaxSupplyReached, ErrInsufficientBalance,
	ErrInsufficientTickets, ErrDrawNotReady, ErrInvalidNonce,
	ErrDrawNotExecuted, ErrFundsWithdrawn, ErrNoTickets,
	ErrInsufficientFunds, ErrInvalidAmount, ErrDonationTooLarge,
	ErrMathOverflow, ErrSelfTransfer, ErrUserNotFound,
	ErrUnauthorized, ErrNotOracle,
}

// Ошибки прав доступа
var (
	// ErrUnauthorized — операция требует прав владельца лотереи
	ErrUnauthorized = errors.New("операция доступна только владельцу лотереи")
	// ErrNotOracle — результат тиража может прислать только оракул
	ErrNotOracle = errors.New("результат тиража принимается только от оракула")
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

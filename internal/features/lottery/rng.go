// Package lottery — rng.go отвечает за случайность тиража.
//
// Два источника:
//   - доверенный оракул: числа и вспомогательное значение присылает
//     настроенный пользователь-оракул, бот их только валидирует;
//   - хеш-фолбэк: SHA-256 от идентичности цикла, времени и числа билетов.
//
// Фолбэк предсказуем для любого, кто видит состояние до розыгрыша,
// поэтому он помечается флагом Fallback и годится только там,
// где на кону нет реальных денег.
package lottery

import (
	"crypto/sha256"
	"encoding/binary"

	"hiperia.app/lottery-bot/internal/common"
)

// Randomness — материал одного розыгрыша.
type Randomness struct {
	Numbers  [2]uint8 // Выигрышная пара, 1–31, числа различны
	Aux      uint64   // Вспомогательное значение для выбора аирдропа
	Fallback bool     // true — получено хеш-фолбэком
}

// Source выдаёт случайность для розыгрыша цикла.
type Source interface {
	Draw(c *Cycle, nowUnix int64) (Randomness, error)
}

// DigestFallback — детерминированный источник на SHA-256.
// Key — уникальная строка развертывания (играет роль адреса лотереи).
type DigestFallback struct {
	Key string
}

// Draw выводит числа из дайджеста (ключ, nonce, время, число билетов).
func (s DigestFallback) Draw(c *Cycle, nowUnix int64) (Randomness, error) {
	h := sha256.New()
	h.Write([]byte(s.Key))

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], c.DrawNonce)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(nowUnix))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(c.TicketCount))
	h.Write(buf[:])

	sum := h.Sum(nil)

	return Randomness{
		Numbers:  DeriveNumbers(sum[0], sum[1]),
		Aux:      binary.LittleEndian.Uint64(sum[2:10]),
		Fallback: true,
	}, nil
}

// OracleRandomness упаковывает значения, присланные оракулом, с валидацией.
func OracleRandomness(n1, n2 uint8, aux uint64) (Randomness, error) {
	pair := [2]uint8{n1, n2}
	if err := ValidateNumbers(pair); err != nil {
		return Randomness{}, err
	}
	return Randomness{Numbers: pair, Aux: aux, Fallback: false}, nil
}

// DeriveNumbers сводит два байта к паре различных чисел 1–31.
// Если числа совпали, второе сдвигается на единицу с переносом по кругу —
// совпадение после сдвига невозможно ни для какой пары байтов.
func DeriveNumbers(b1, b2 byte) [2]uint8 {
	n1 := b1%MaxNumber + 1
	n2 := b2%MaxNumber + 1
	if n2 == n1 {
		n2 = (n2+1)%MaxNumber + 1
	}
	return [2]uint8{n1, n2}
}

// ValidateNumbers проверяет диапазон и различность пары чисел.
func ValidateNumbers(numbers [2]uint8) error {
	for _, n := range numbers {
		if n < 1 || n > MaxNumber {
			return common.ErrInvalidNumber
		}
	}
	if numbers[0] == numbers[1] {
		return common.ErrDuplicateNumber
	}
	return nil
}

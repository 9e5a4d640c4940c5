package lottery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiperia.app/lottery-bot/internal/common"
)

// Перебор всех пар байтов: числа всегда в диапазоне и всегда различны,
// включая случай совпадения после взятия остатка.
func TestDeriveNumbersExhaustive(t *testing.T) {
	for b1 := 0; b1 < 256; b1++ {
		for b2 := 0; b2 < 256; b2++ {
			pair := DeriveNumbers(byte(b1), byte(b2))
			if pair[0] < 1 || pair[0] > MaxNumber {
				t.Fatalf("DeriveNumbers(%d, %d): первое число %d вне диапазона", b1, b2, pair[0])
			}
			if pair[1] < 1 || pair[1] > MaxNumber {
				t.Fatalf("DeriveNumbers(%d, %d): второе число %d вне диапазона", b1, b2, pair[1])
			}
			if pair[0] == pair[1] {
				t.Fatalf("DeriveNumbers(%d, %d): числа совпали: %v", b1, b2, pair)
			}
		}
	}
}

func TestDeriveNumbersCollisionShift(t *testing.T) {
	// Байты с одинаковым остатком: второе число сдвигается на единицу
	pair := DeriveNumbers(2, 2)
	assert.Equal(t, uint8(3), pair[0])
	assert.Equal(t, uint8(5), pair[1]) // ((3+1)%31)+1 = 5

	// Сдвиг с переносом через границу: 31 → ((31+1)%31)+1 = 2
	pair = DeriveNumbers(30, 30)
	assert.Equal(t, uint8(31), pair[0])
	assert.Equal(t, uint8(2), pair[1])
}

func TestDigestFallbackDeterministic(t *testing.T) {
	src := DigestFallback{Key: "lottery:test"}
	c := &Cycle{DrawNonce: 5, TicketCount: 12}

	a, err := src.Draw(c, 1700000000)
	require.NoError(t, err)
	b, err := src.Draw(c, 1700000000)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a.Fallback)
	assert.NoError(t, ValidateNumbers(a.Numbers))

	// Другой nonce — другой материал розыгрыша
	c2 := &Cycle{DrawNonce: 6, TicketCount: 12}
	d, err := src.Draw(c2, 1700000000)
	require.NoError(t, err)
	assert.NotEqual(t, a.Aux, d.Aux)
}

func TestOracleRandomness(t *testing.T) {
	rnd, err := OracleRandomness(3, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{3, 7}, rnd.Numbers)
	assert.Equal(t, uint64(42), rnd.Aux)
	assert.False(t, rnd.Fallback)

	_, err = OracleRandomness(0, 7, 0)
	assert.ErrorIs(t, err, common.ErrInvalidNumber)
	_, err = OracleRandomness(3, 32, 0)
	assert.ErrorIs(t, err, common.ErrInvalidNumber)
	_, err = OracleRandomness(7, 7, 0)
	assert.ErrorIs(t, err, common.ErrDuplicateNumber)
}

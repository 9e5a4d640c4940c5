package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCrystals(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "кристалл"},
		{21, "кристалл"},
		{101, "кристалл"},
		{2, "кристалла"},
		{4, "кристалла"},
		{22, "кристалла"},
		{0, "кристаллов"},
		{5, "кристаллов"},
		{11, "кристаллов"},
		{12, "кристаллов"},
		{14, "кристаллов"},
		{111, "кристаллов"},
		{-1, "кристалл"},
		{1_200_000_000, "кристаллов"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizeCrystals(tt.n), "n=%d", tt.n)
	}
}

func TestPluralizeTickets(t *testing.T) {
	assert.Equal(t, "билет", PluralizeTickets(1))
	assert.Equal(t, "билета", PluralizeTickets(3))
	assert.Equal(t, "билетов", PluralizeTickets(10))
	assert.Equal(t, "билетов", PluralizeTickets(11))
	assert.Equal(t, "билет", PluralizeTickets(21))
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", GroupDigits(0))
	assert.Equal(t, "150", GroupDigits(150))
	assert.Equal(t, "1 000", GroupDigits(1000))
	assert.Equal(t, "1 200 000 000", GroupDigits(1_200_000_000))
	assert.Equal(t, "-1 000 000", GroupDigits(-1_000_000))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1 200 000 000 кристаллов", FormatAmount(1_200_000_000))
	assert.Equal(t, "1 кристалл", FormatAmount(1))
}

func TestFormatDateTime(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	ts := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, "01.03.2026 14:00", FormatDateTime(ts, loc))
	assert.Equal(t, "01.03.2026 06:00", FormatDateTime(ts, nil))
}

func TestIsBusinessError(t *testing.T) {
	assert.True(t, IsBusinessError(ErrInvalidNonce))
	assert.True(t, IsBusinessError(ErrSalesClosed))
	assert.False(t, IsBusinessError(assert.AnError))
	assert.False(t, IsBusinessError(nil))
}

package treasury

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hiperia.app/lottery-bot/internal/common"
	"hiperia.app/lottery-bot/internal/features/members"
)

// Сервис казны обязан подходить под интерфейсы участников:
// казна знает об участниках, но не наоборот.
var (
	_ members.BalanceOpener = (*Service)(nil)
	_ members.BalanceReader = (*Service)(nil)
)

func TestTransferValidation(t *testing.T) {
	s := NewService(nil, 0)
	ctx := context.Background()

	err := s.Transfer(ctx, 42, 42, 100)
	require.ErrorIs(t, err, common.ErrSelfTransfer)

	err = s.Transfer(ctx, 42, 43, 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	err = s.Transfer(ctx, 42, 43, -5)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

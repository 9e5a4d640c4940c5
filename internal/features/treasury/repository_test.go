package treasury

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiperia.app/lottery-bot/internal/common"
)

// paymentTx подменяет pgx.Tx в тестах выплат: отдаёт заданный баланс
// казны и заданное число затронутых строк для UPDATE balances.
type paymentTx struct {
	pgx.Tx
	poolBalance  int64
	creditedRows int64
	executed     []string
}

type poolRow struct{ balance int64 }

func (r poolRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.balance
	return nil
}

func (f *paymentTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return poolRow{balance: f.poolBalance}
}

func (f *paymentTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.executed = append(f.executed, sql)
	if strings.Contains(sql, "UPDATE balances") {
		if f.creditedRows == 1 {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		}
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *paymentTx) ranSQL(fragment string) bool {
	for _, sql := range f.executed {
		if strings.Contains(sql, fragment) {
			return true
		}
	}
	return false
}

func TestPayoutFromPoolTx(t *testing.T) {
	r := &Repository{}
	ctx := context.Background()

	tx := &paymentTx{poolBalance: 5_000_000_000, creditedRows: 1}
	err := r.PayoutFromPoolTx(ctx, tx, 42, 1_200_000_000, TxTypePrize, "выигрыш")
	require.NoError(t, err)
	assert.True(t, tx.ranSQL("UPDATE treasury_pool"))
	assert.True(t, tx.ranSQL("INSERT INTO transactions"))
}

func TestPayoutFromPoolTxInsufficientPool(t *testing.T) {
	r := &Repository{}
	tx := &paymentTx{poolBalance: 100, creditedRows: 1}

	err := r.PayoutFromPoolTx(context.Background(), tx, 42, 1_000, TxTypePrize, "выигрыш")
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	assert.False(t, tx.ranSQL("UPDATE treasury_pool"))
}

// Получатель без счёта: казна уже списана, поэтому выплата обязана
// провалить транзакцию, а не молча сжечь сумму.
func TestPayoutFromPoolTxMissingBalance(t *testing.T) {
	r := &Repository{}
	tx := &paymentTx{poolBalance: 5_000_000_000, creditedRows: 0}

	err := r.PayoutFromPoolTx(context.Background(), tx, 42, 1_200_000_000, TxTypePrize, "выигрыш")
	require.ErrorIs(t, err, common.ErrUserNotFound)
	assert.False(t, tx.ranSQL("INSERT INTO transactions"))
}

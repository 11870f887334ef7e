package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/pkg/circuitbreaker"
)

func newReconcileUseCase(e *testEnv) *ReconcileStaleUseCase {
	return NewReconcileStaleUseCase(
		e.paymentRepo, e.fineRepo, e.loanRepo, e.copyRepo,
		e.bookSvc, e.membershipSvc, e.gateway, e.txManager, e.cfg,
	)
}

// backdate 把支付单创建时间拨回过去,使其落入滞留扫描窗口
func backdate(t *testing.T, e *testEnv, p *payment.LoanPayment, d time.Duration) {
	t.Helper()
	stored, err := e.paymentRepo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	stored.CreatedAt = time.Now().Add(-d)
	require.NoError(t, e.paymentRepo.Update(context.Background(), stored))
}

func TestReconcileStale(t *testing.T) {
	ctx := context.Background()

	t.Run("查实已支付应补确认并激活借阅单", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		backdate(t, e, p, time.Hour)
		e.gateway.queryRes = &payment.QueryResult{
			TxnRef:       p.TxnRef,
			ResponseCode: payment.ResponseCodeSuccess,
			GatewayTxnNo: "14421020",
			Amount:       p.Amount,
		}
		uc := newReconcileUseCase(e)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Scanned)
		assert.Equal(t, 1, result.Confirmed)
		assert.Equal(t, 0, result.Released)

		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed, gotLoan.Status)
	})

	t.Run("查实未支付应关单并释放副本", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		backdate(t, e, p, time.Hour)
		e.gateway.queryRes = &payment.QueryResult{
			TxnRef:       p.TxnRef,
			ResponseCode: "24",
		}
		uc := newReconcileUseCase(e)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Released)

		_, err = e.loanRepo.FindByID(ctx, l.ID)
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)

		c, err := e.copyRepo.FindByID(ctx, l.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusAvailable, c.Status)
	})

	t.Run("未超时的支付单不在扫描范围", func(t *testing.T) {
		e := newTestEnv()
		e.seedPendingDeposit(t, payment.MethodVNPay)
		uc := newReconcileUseCase(e)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
	})

	t.Run("现金支付单不参与网关对账", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodCash)
		backdate(t, e, p, time.Hour)
		uc := newReconcileUseCase(e)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
	})

	t.Run("网关查询失败应跳过留待下轮", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		backdate(t, e, p, time.Hour)
		e.gateway.queryErr = circuitbreaker.ErrOpenState
		uc := newReconcileUseCase(e)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Scanned)
		assert.Equal(t, 1, result.Skipped)

		// 未触碰业务数据
		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusPendingPayment, gotLoan.Status)
	})
}

package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
)

func newConfirmCashUseCase(e *testEnv) *ConfirmCashUseCase {
	return NewConfirmCashUseCase(
		e.paymentRepo, e.fineRepo, e.loanRepo, e.copyRepo,
		e.bookSvc, e.membershipSvc, e.txManager, e.cfg,
	)
}

func TestConfirmCash(t *testing.T) {
	ctx := context.Background()
	const operatorID = 2

	t.Run("确认现金押金应激活借阅单", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodCash)
		uc := newConfirmCashUseCase(e)

		got, err := uc.Execute(ctx, operatorID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusConfirmed, got.Status)
		assert.Equal(t, uint(operatorID), got.ConfirmedBy)

		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed, gotLoan.Status)

		c, err := e.copyRepo.FindByID(ctx, gotLoan.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusBorrowed, c.Status)
	})

	t.Run("确认现金罚款应结清罚款单", func(t *testing.T) {
		e := newTestEnv()
		f := e.seedUnpaidFine(t, 10, 15000)
		p := payment.NewFinePayment(f.ID, f.PatronID, f.Amount, payment.MethodCash)
		require.NoError(t, e.paymentRepo.Create(ctx, p))
		uc := newConfirmCashUseCase(e)

		_, err := uc.Execute(ctx, operatorID, p.ID)
		require.NoError(t, err)

		gotFine, err := e.fineRepo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.FineStatusPaid, gotFine.Status)
	})

	t.Run("网关支付单不能走现金确认", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		uc := newConfirmCashUseCase(e)

		_, err := uc.Execute(ctx, operatorID, p.ID)
		assert.ErrorIs(t, err, payment.ErrInvalidMethod)
	})

	t.Run("重复确认应报状态错误", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodCash)
		uc := newConfirmCashUseCase(e)

		_, err := uc.Execute(ctx, operatorID, p.ID)
		require.NoError(t, err)

		_, err = uc.Execute(ctx, operatorID, p.ID)
		assert.ErrorIs(t, err, payment.ErrInvalidPaymentStatus)
	})

	t.Run("支付单不存在应报错", func(t *testing.T) {
		e := newTestEnv()
		uc := newConfirmCashUseCase(e)

		_, err := uc.Execute(ctx, operatorID, 999)
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	})
}

package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/payment"
)

func TestCreatePaymentURL(t *testing.T) {
	ctx := context.Background()

	t.Run("为待支付押金单生成收银台链接", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		uc := NewCreatePaymentURLUseCase(e.paymentRepo, e.gateway)

		resp, err := uc.Execute(ctx, l.PatronID, p.ID, "192.168.1.10")
		require.NoError(t, err)
		assert.Equal(t, p.TxnRef, resp.TxnRef)
		assert.Contains(t, resp.PaymentURL, p.TxnRef)
	})

	t.Run("不能为他人支付单生成链接", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		uc := NewCreatePaymentURLUseCase(e.paymentRepo, e.gateway)

		_, err := uc.Execute(ctx, 999, p.ID, "192.168.1.10")
		assert.ErrorIs(t, err, payment.ErrNotPaymentOwner)
	})

	t.Run("现金支付单没有收银台链接", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodCash)
		uc := NewCreatePaymentURLUseCase(e.paymentRepo, e.gateway)

		_, err := uc.Execute(ctx, l.PatronID, p.ID, "192.168.1.10")
		assert.ErrorIs(t, err, payment.ErrInvalidMethod)
	})

	t.Run("已处理的支付单不能再生成链接", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodCash)
		confirmUC := newConfirmCashUseCase(e)
		_, err := confirmUC.Execute(ctx, 2, p.ID)
		require.NoError(t, err)

		uc := NewCreatePaymentURLUseCase(e.paymentRepo, e.gateway)
		_, err = uc.Execute(ctx, l.PatronID, p.ID, "192.168.1.10")
		assert.ErrorIs(t, err, payment.ErrInvalidPaymentStatus)
	})
}

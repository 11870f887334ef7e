package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func newCallbackUseCase(e *testEnv) *GatewayCallbackUseCase {
	return NewGatewayCallbackUseCase(
		e.paymentRepo, e.fineRepo, e.loanRepo, e.copyRepo,
		e.bookSvc, e.membershipSvc, e.gateway, e.txManager, e.cfg,
	)
}

func TestGatewayCallback_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("支付成功应激活借阅单并外借副本", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "00",
			GatewayTxnNo: "14421001",
			BankCode:     "NCB",
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		assert.Equal(t, CallbackResultConfirmed, outcome.Result)
		assert.Equal(t, payment.StatusConfirmed, outcome.Status)

		// 支付单已确认并记录网关信息
		got, err := e.paymentRepo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusConfirmed, got.Status)
		assert.Equal(t, "14421001", got.GatewayTxnNo)
		assert.Equal(t, "NCB", got.BankCode)

		// 借阅单进入BORROWED且设置了应还日期
		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed, gotLoan.Status)
		assert.False(t, gotLoan.DueDate.IsZero())

		// 副本RESERVED -> BORROWED
		c, err := e.copyRepo.FindByID(ctx, gotLoan.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusBorrowed, c.Status)

		// 会员钩子被触发
		assert.Equal(t, 1, e.membershipSvc.loanActivated)
	})

	t.Run("支付失败应删除借阅单并释放副本", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "24", // 用户取消
			GatewayTxnNo: "14421002",
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		assert.Equal(t, CallbackResultFailed, outcome.Result)
		assert.Equal(t, payment.StatusFailed, outcome.Status)

		// 借阅单已删除
		_, err = e.loanRepo.FindByID(ctx, l.ID)
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)

		// 副本回到AVAILABLE
		c, err := e.copyRepo.FindByID(ctx, l.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusAvailable, c.Status)

		assert.Equal(t, 0, e.membershipSvc.loanActivated)
	})

	t.Run("会员钩子失败应使整个结算失败", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "00",
			GatewayTxnNo: "14421005",
		}
		e.membershipSvc.activateErr = errors.New("会员记录锁定超时")
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.Error(t, err)
		assert.Equal(t, CallbackResultRejected, outcome.Result)
	})

	t.Run("重复回调应返回首次结果且不重复落地", func(t *testing.T) {
		e := newTestEnv()
		l, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "00",
			GatewayTxnNo: "14421003",
		}
		uc := newCallbackUseCase(e)

		first, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		require.Equal(t, CallbackResultConfirmed, first.Result)

		second, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		assert.Equal(t, CallbackResultReplay, second.Result)
		assert.Equal(t, payment.StatusConfirmed, second.Status)
		assert.Equal(t, first.PaymentID, second.PaymentID)

		// 会员钩子只触发一次
		assert.Equal(t, 1, e.membershipSvc.loanActivated)

		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed, gotLoan.Status)
	})

	t.Run("验签失败应拒绝且不触碰业务数据", func(t *testing.T) {
		e := newTestEnv()
		l, _ := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyErr = payment.ErrInvalidSignature
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": "whatever"})
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
		assert.Equal(t, CallbackResultRejected, outcome.Result)

		gotLoan, err := e.loanRepo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusPendingPayment, gotLoan.Status)
	})

	t.Run("金额不符应拒绝并保持支付单PENDING", func(t *testing.T) {
		e := newTestEnv()
		_, p := e.seedPendingDeposit(t, payment.MethodVNPay)
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount + 1000,
			ResponseCode: "00",
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.Error(t, err)
		assert.Equal(t, CallbackResultRejected, outcome.Result)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, appErr.Code)

		got, err := e.paymentRepo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, got.Status)
	})

	t.Run("订单不存在应拒绝", func(t *testing.T) {
		e := newTestEnv()
		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       "LOAN_999",
			Amount:       50000,
			ResponseCode: "00",
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": "LOAN_999"})
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
		assert.Equal(t, CallbackResultRejected, outcome.Result)
	})
}

func TestGatewayCallback_Fine(t *testing.T) {
	ctx := context.Background()

	t.Run("罚款支付成功应结清罚款单", func(t *testing.T) {
		e := newTestEnv()
		f := e.seedUnpaidFine(t, 10, 15000)
		p := payment.NewFinePayment(f.ID, f.PatronID, f.Amount, payment.MethodVNPay)
		require.NoError(t, e.paymentRepo.Create(ctx, p))

		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "00",
			GatewayTxnNo: "14421010",
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		assert.Equal(t, CallbackResultConfirmed, outcome.Result)

		gotFine, err := e.fineRepo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.FineStatusPaid, gotFine.Status)
		require.NotNil(t, gotFine.PaidAt)
	})

	t.Run("罚款支付失败罚款单保持UNPAID", func(t *testing.T) {
		e := newTestEnv()
		f := e.seedUnpaidFine(t, 10, 15000)
		p := payment.NewFinePayment(f.ID, f.PatronID, f.Amount, payment.MethodVNPay)
		require.NoError(t, e.paymentRepo.Create(ctx, p))

		e.gateway.verifyData = &payment.CallbackData{
			TxnRef:       p.TxnRef,
			Amount:       p.Amount,
			ResponseCode: "51", // 余额不足
		}
		uc := newCallbackUseCase(e)

		outcome, err := uc.Execute(ctx, map[string]string{"vnp_TxnRef": p.TxnRef})
		require.NoError(t, err)
		assert.Equal(t, CallbackResultFailed, outcome.Result)

		gotFine, err := e.fineRepo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.FineStatusUnpaid, gotFine.Status)

		// 读者可重新发起:支付单已关闭
		_, err = e.paymentRepo.FindPendingByFineID(ctx, f.ID)
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	})
}

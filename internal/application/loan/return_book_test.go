package loan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
)

func newReturnUseCase(e *testEnv) *ReturnBookUseCase {
	return NewReturnBookUseCase(
		e.loanRepo, e.copyRepo, e.bookSvc, e.fineRepo,
		e.membershipSvc, e.txManager, nil, e.cfg,
	)
}

func TestReturnBook(t *testing.T) {
	ctx := context.Background()
	const operatorID = 2

	t.Run("按时归还应回库并加信誉积分", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		uc := newReturnUseCase(e)

		resp, err := uc.Execute(ctx, ReturnBookRequest{LoanID: l.ID, OperatorID: operatorID})
		require.NoError(t, err)
		assert.True(t, resp.OnTime)
		assert.Zero(t, resp.OverdueFine)
		assert.Zero(t, resp.FineID)
		assert.Equal(t, loan.StatusReturned.String(), resp.Status)

		c, err := e.copyRepo.FindByID(ctx, l.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusAvailable, c.Status)

		assert.Equal(t, 1, e.membershipSvc.onTimeReturns)
		assert.Equal(t, 0, e.membershipSvc.violations)
	})

	t.Run("逾期归还应开罚款单并记违规", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		l.DueDate = time.Now().Add(-3 * 24 * time.Hour)
		require.NoError(t, e.loanRepo.Update(ctx, l))
		uc := newReturnUseCase(e)

		resp, err := uc.Execute(ctx, ReturnBookRequest{LoanID: l.ID, OperatorID: operatorID})
		require.NoError(t, err)
		assert.False(t, resp.OnTime)
		assert.Equal(t, int64(3), resp.DaysOverdue)
		assert.Equal(t, int64(15000), resp.OverdueFine) // 3天 × 5000
		require.NotZero(t, resp.FineID)

		f, err := e.fineRepo.FindByID(ctx, resp.FineID)
		require.NoError(t, err)
		assert.Equal(t, int64(15000), f.Amount)
		assert.Equal(t, payment.FineStatusUnpaid, f.Status)
		assert.Equal(t, uint(10), f.PatronID)

		assert.Equal(t, 1, e.membershipSvc.violations)
		assert.Equal(t, 0, e.membershipSvc.onTimeReturns)
	})

	t.Run("破损归还副本转入修复并开赔偿单", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		uc := newReturnUseCase(e)

		resp, err := uc.Execute(ctx, ReturnBookRequest{
			LoanID:     l.ID,
			OperatorID: operatorID,
			Damaged:    true,
			DamageFine: 30000,
			Notes:      "封面撕裂",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(30000), resp.DamageFine)
		require.NotZero(t, resp.FineID)

		c, err := e.copyRepo.FindByID(ctx, l.CopyID)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusRepairing, c.Status)
		assert.Equal(t, book.ConditionDamaged, c.Condition)
		assert.Contains(t, c.Notes, "封面撕裂")

		f, err := e.fineRepo.FindByID(ctx, resp.FineID)
		require.NoError(t, err)
		assert.Equal(t, int64(30000), f.Amount)

		// 按时但破损:不算逾期违规,照常得信誉积分
		assert.Equal(t, 0, e.membershipSvc.violations)
		assert.Equal(t, 1, e.membershipSvc.onTimeReturns)
	})

	t.Run("逾期加破损罚金合并为一张罚款单", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		l.DueDate = time.Now().Add(-2 * 24 * time.Hour)
		require.NoError(t, e.loanRepo.Update(ctx, l))
		uc := newReturnUseCase(e)

		resp, err := uc.Execute(ctx, ReturnBookRequest{
			LoanID:     l.ID,
			OperatorID: operatorID,
			Damaged:    true,
			DamageFine: 20000,
			Notes:      "书脊开裂",
		})
		require.NoError(t, err)

		f, err := e.fineRepo.FindByID(ctx, resp.FineID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000+20000), f.Amount) // 2天逾期 + 赔偿
	})

	t.Run("已归还的借阅单不能再归还", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		uc := newReturnUseCase(e)

		_, err := uc.Execute(ctx, ReturnBookRequest{LoanID: l.ID, OperatorID: operatorID})
		require.NoError(t, err)

		_, err = uc.Execute(ctx, ReturnBookRequest{LoanID: l.ID, OperatorID: operatorID})
		assert.ErrorIs(t, err, loan.ErrInvalidLoanStatus)
	})

	t.Run("借阅单不存在应报错", func(t *testing.T) {
		e := newTestEnv()
		uc := newReturnUseCase(e)

		_, err := uc.Execute(ctx, ReturnBookRequest{LoanID: 999, OperatorID: operatorID})
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})
}

package loan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func newBorrowUseCase(e *testEnv) *BorrowBookUseCase {
	return NewBorrowBookUseCase(
		e.loanRepo, e.paymentRepo, e.copyRepo, e.bookSvc,
		e.patronRepo, e.membershipSvc, e.txManager, e.cfg,
	)
}

func TestBorrowBook(t *testing.T) {
	ctx := context.Background()

	t.Run("借书应锁定副本并创建待支付押金单", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		e.seedCopies(t, 1, 2)
		uc := newBorrowUseCase(e)

		resp, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 10, BookID: 1, Method: payment.MethodVNPay})
		require.NoError(t, err)
		assert.Equal(t, loan.StatusPendingPayment.String(), resp.Status)
		assert.Equal(t, int64(50000), resp.DepositAmount)
		assert.NotEmpty(t, resp.TxnRef)

		// 编号最小的副本被锁定
		c, err := e.copyRepo.FindByBarcode(ctx, resp.CopyBarcode)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusReserved, c.Status)
		assert.Equal(t, 1, c.CopyNumber)

		// 押金支付单PENDING
		p, err := e.paymentRepo.FindByID(ctx, resp.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, p.Status)
		assert.Equal(t, resp.LoanID, p.LoanID)
		assert.Equal(t, int64(50000), p.Amount)

		// 借阅未生效,会员钩子不触发
		assert.Equal(t, 0, e.membershipSvc.loanActivated)
	})

	t.Run("无在架副本应报错", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		uc := newBorrowUseCase(e)

		_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 10, BookID: 1, Method: payment.MethodCash})
		assert.ErrorIs(t, err, book.ErrNoAvailableCopy)
	})

	t.Run("读者不存在应报错", func(t *testing.T) {
		e := newTestEnv()
		e.seedCopies(t, 1, 1)
		uc := newBorrowUseCase(e)

		_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 999, BookID: 1, Method: payment.MethodCash})
		assert.ErrorIs(t, err, apperrors.ErrPatronNotFound)
	})

	t.Run("同一本书未归还不能重复借阅", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		e.seedActiveLoan(t, 10, 1)
		e.seedCopies(t, 1, 1)
		uc := newBorrowUseCase(e)

		_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 10, BookID: 1, Method: payment.MethodCash})
		assert.ErrorIs(t, err, loan.ErrDuplicateLoan)
	})

	t.Run("存在逾期未还不能借新书", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		overdue := e.seedActiveLoan(t, 10, 2)
		overdue.DueDate = time.Now().Add(-72 * time.Hour)
		require.NoError(t, e.loanRepo.Update(ctx, overdue))
		e.seedCopies(t, 1, 1)
		uc := newBorrowUseCase(e)

		_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 10, BookID: 1, Method: payment.MethodCash})
		assert.ErrorIs(t, err, loan.ErrHasOverdueLoans)
	})

	t.Run("非法支付方式应拒绝", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		e.seedCopies(t, 1, 1)
		uc := newBorrowUseCase(e)

		_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: 10, BookID: 1, Method: payment.Method("CHEQUE")})
		assert.ErrorIs(t, err, payment.ErrInvalidMethod)
	})
}

func TestBorrowBookDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("柜台直借应立即生效并累计会员数据", func(t *testing.T) {
		e := newTestEnv()
		e.seedPatron(t, 10)
		e.seedCopies(t, 1, 1)
		uc := newBorrowUseCase(e)

		resp, err := uc.ExecuteDirect(ctx, 10, 1)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed.String(), resp.Status)

		c, err := e.copyRepo.FindByBarcode(ctx, resp.CopyBarcode)
		require.NoError(t, err)
		assert.Equal(t, book.CopyStatusBorrowed, c.Status)

		l, err := e.loanRepo.FindByID(ctx, resp.LoanID)
		require.NoError(t, err)
		assert.Zero(t, l.DepositAmount)
		assert.Equal(t, 1, e.membershipSvc.loanActivated)
	})
}

// TestBorrowBookContention 最后一个在架副本被同时抢借,只能有一人借到
func TestBorrowBookContention(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedPatron(t, 10)
	e.seedPatron(t, 11)
	e.seedCopies(t, 1, 1)
	uc := newBorrowUseCase(e)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, patronID := range []uint{10, 11} {
		wg.Add(1)
		go func(patronID uint) {
			defer wg.Done()
			_, err := uc.Execute(ctx, BorrowBookRequest{PatronID: patronID, BookID: 1, Method: payment.MethodVNPay})
			results <- err
		}(patronID)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, book.ErrNoAvailableCopy)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	// 唯一副本被锁定,全库只有一张待支付借阅单和一张押金单
	copies, err := e.copyRepo.ListByBookID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, copies, 1)
	assert.Equal(t, book.CopyStatusReserved, copies[0].Status)

	loans, _, err := e.loanRepo.List(ctx, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.StatusPendingPayment, loans[0].Status)

	_, err = e.paymentRepo.FindPendingByLoanID(ctx, loans[0].ID)
	assert.NoError(t, err)
}

package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoanStateMachine 测试借阅单状态机
func TestLoanStateMachine(t *testing.T) {
	period := 14 * 24 * time.Hour

	t.Run("押金流程_激活后借期从到账时刻起算", func(t *testing.T) {
		l := NewLoan(1, 10, 100, period, 50000)
		assert.Equal(t, StatusPendingPayment, l.Status)

		createdDue := l.DueDate
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, l.Activate(period))
		assert.Equal(t, StatusBorrowed, l.Status)
		assert.True(t, l.DueDate.After(createdDue))
	})

	t.Run("现场直借初始即为借出中", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		assert.Equal(t, StatusBorrowed, l.Status)
		assert.Zero(t, l.DepositAmount)
	})

	t.Run("待支付状态不能归还", func(t *testing.T) {
		l := NewLoan(1, 10, 100, period, 50000)
		err := l.Return(time.Now())
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("已归还是终态", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.Return(time.Now()))
		assert.Error(t, l.MarkOverdue())
		assert.Error(t, l.RequestReturn())
	})

	t.Run("归还申请可被驳回", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.RequestReturn())
		assert.Equal(t, StatusPendingReturn, l.Status)

		require.NoError(t, l.RejectReturn())
		assert.Equal(t, StatusBorrowed, l.Status)
	})

	t.Run("逾期后仍可归还", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.MarkOverdue())
		require.NoError(t, l.Return(time.Now()))
		assert.Equal(t, StatusReturned, l.Status)
		assert.NotNil(t, l.ReturnDate)
	})
}

// TestLoanRenew 测试续借规则
func TestLoanRenew(t *testing.T) {
	period := 14 * 24 * time.Hour

	t.Run("正常续借顺延应还日期", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		oldDue := l.DueDate

		require.NoError(t, l.Renew(2, period))
		assert.Equal(t, StatusRenewed, l.Status)
		assert.Equal(t, 1, l.RenewalCount)
		assert.Equal(t, oldDue.Add(period), l.DueDate)
	})

	t.Run("续借后可以再次续借", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.Renew(2, period))
		require.NoError(t, l.Renew(2, period))
		assert.Equal(t, 2, l.RenewalCount)
	})

	t.Run("续借次数超限被拒绝", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.Renew(2, period))
		require.NoError(t, l.Renew(2, period))

		err := l.Renew(2, period)
		assert.ErrorIs(t, err, ErrRenewalLimitReached)
	})

	t.Run("已过应还日期不能续借", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		l.DueDate = time.Now().Add(-24 * time.Hour)

		err := l.Renew(2, period)
		assert.ErrorIs(t, err, ErrLoanOverdue)
	})

	t.Run("待确认归还状态不能续借", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.RequestReturn())

		err := l.Renew(2, period)
		assert.ErrorIs(t, err, ErrInvalidLoanStatus)
	})
}

// TestReturnedOnTime 测试按时归还判断
func TestReturnedOnTime(t *testing.T) {
	period := 14 * 24 * time.Hour

	t.Run("按时归还", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.Return(l.DueDate.Add(-time.Hour)))
		assert.True(t, l.ReturnedOnTime())
	})

	t.Run("逾期归还", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		require.NoError(t, l.Return(l.DueDate.Add(time.Hour)))
		assert.False(t, l.ReturnedOnTime())
	})

	t.Run("未归还", func(t *testing.T) {
		l := NewDirectLoan(1, 10, 100, period)
		assert.False(t, l.ReturnedOnTime())
	})
}

package loan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/loan"
)

func TestOverdueScan(t *testing.T) {
	ctx := context.Background()

	t.Run("到期未还的借阅单应被标记逾期", func(t *testing.T) {
		e := newTestEnv()
		due := e.seedActiveLoan(t, 10, 1)
		due.DueDate = time.Now().Add(-48 * time.Hour)
		require.NoError(t, e.loanRepo.Update(ctx, due))
		fresh := e.seedActiveLoan(t, 11, 2)
		uc := NewOverdueScanUseCase(e.loanRepo, e.txManager, nil, e.cfg)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Scanned)
		assert.Equal(t, 1, result.Marked)

		got, err := e.loanRepo.FindByID(ctx, due.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusOverdue, got.Status)

		// 未到期的不受影响
		got, err = e.loanRepo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusBorrowed, got.Status)
	})

	t.Run("重复扫描不会重复标记", func(t *testing.T) {
		e := newTestEnv()
		due := e.seedActiveLoan(t, 10, 1)
		due.DueDate = time.Now().Add(-48 * time.Hour)
		require.NoError(t, e.loanRepo.Update(ctx, due))
		uc := NewOverdueScanUseCase(e.loanRepo, e.txManager, nil, e.cfg)

		first, err := uc.Execute(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, first.Marked)

		second, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Scanned)
		assert.Equal(t, 0, second.Marked)
	})

	t.Run("逾期事件携带RFC3339到期时间与预估罚金", func(t *testing.T) {
		e := newTestEnv()
		l := e.seedActiveLoan(t, 10, 1)
		now := time.Now()
		l.DueDate = now.Add(-72 * time.Hour)

		event := newOverdueEvent(l, now, e.cfg.FinePerDay)
		assert.Equal(t, l.ID, event.LoanID)
		assert.Equal(t, l.DueDate.Format(time.RFC3339), event.DueDate)

		parsed, err := time.Parse(time.RFC3339, event.DueDate)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(l.DueDate.Truncate(time.Second)))
		assert.Equal(t, int64(3), event.DaysOverdue)
		assert.Equal(t, 3*e.cfg.FinePerDay, event.FineAccrued)
	})

	t.Run("没有到期借阅单时扫描为空", func(t *testing.T) {
		e := newTestEnv()
		e.seedActiveLoan(t, 10, 1)
		uc := NewOverdueScanUseCase(e.loanRepo, e.txManager, nil, e.cfg)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
	})
}

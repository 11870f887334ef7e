package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// TestDaysOverdue 测试逾期天数计算(按日历天)
func TestDaysOverdue(t *testing.T) {
	due := date(2024, 1, 10)

	t.Run("当天归还不算逾期", func(t *testing.T) {
		// 即使时刻晚于零点,同一天也不计逾期
		at := time.Date(2024, 1, 10, 23, 59, 0, 0, time.Local)
		assert.EqualValues(t, 0, DaysOverdue(due, at))
	})

	t.Run("提前归还", func(t *testing.T) {
		assert.EqualValues(t, 0, DaysOverdue(due, date(2024, 1, 8)))
	})

	t.Run("次日归还算1天", func(t *testing.T) {
		at := time.Date(2024, 1, 11, 0, 30, 0, 0, time.Local)
		assert.EqualValues(t, 1, DaysOverdue(due, at))
	})

	t.Run("逾期5天", func(t *testing.T) {
		assert.EqualValues(t, 5, DaysOverdue(due, date(2024, 1, 15)))
	})

	t.Run("跨月", func(t *testing.T) {
		assert.EqualValues(t, 22, DaysOverdue(due, date(2024, 2, 1)))
	})
}

// TestCalculateFine 测试罚金计算
func TestCalculateFine(t *testing.T) {
	due := date(2024, 1, 10)
	const finePerDay = int64(5000)

	t.Run("逾期5天罚25000", func(t *testing.T) {
		got := CalculateFine(due, date(2024, 1, 15), finePerDay)
		assert.EqualValues(t, 25000, got)
	})

	t.Run("按时归还无罚金", func(t *testing.T) {
		got := CalculateFine(due, date(2024, 1, 10), finePerDay)
		assert.EqualValues(t, 0, got)
	})
}

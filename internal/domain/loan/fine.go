package loan

import (
	"time"
)

// DaysOverdue 计算逾期天数(按日历天)
// 规则:只比较日期部分,当天归还不算逾期
// 例:应还1月10日,1月15日归还,逾期5天
func DaysOverdue(dueDate, at time.Time) int64 {
	due := truncateToDate(dueDate)
	ret := truncateToDate(at)
	if !ret.After(due) {
		return 0
	}
	return int64(ret.Sub(due) / (24 * time.Hour))
}

// CalculateFine 计算逾期罚金
// 罚金 = 逾期天数 × 每日罚金(finePerDay,单位VND)
func CalculateFine(dueDate, at time.Time, finePerDay int64) int64 {
	return DaysOverdue(dueDate, at) * finePerDay
}

// truncateToDate 截断到当天零点(使用时间自身的时区)
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

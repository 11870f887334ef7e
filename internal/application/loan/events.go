package loan

import (
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
)

// 流转事件定义
// 通过RabbitMQ发布到library.events交换机,通知消费者订阅loan.*
// 发布失败只记录日志,不影响借还主流程

// 路由键
const (
	RoutingKeyLoanReturned = "loan.returned"
	RoutingKeyLoanOverdue  = "loan.overdue"
)

// LoanReturnedEvent 归还完成事件(提醒读者罚金/押金情况)
type LoanReturnedEvent struct {
	LoanID     uint   `json:"loan_id"`
	PatronID   uint   `json:"patron_id"`
	BookID     uint   `json:"book_id"`
	CopyID     uint   `json:"copy_id"`
	OnTime     bool   `json:"on_time"`
	FineAmount int64  `json:"fine_amount"`
	Damaged    bool   `json:"damaged"`
	ReturnedAt string `json:"returned_at"`
}

// LoanOverdueEvent 逾期事件(催还通知)
type LoanOverdueEvent struct {
	LoanID      uint   `json:"loan_id"`
	PatronID    uint   `json:"patron_id"`
	BookID      uint   `json:"book_id"`
	DueDate     string `json:"due_date"`
	DaysOverdue int64  `json:"days_overdue"`
	FineAccrued int64  `json:"fine_accrued"`
}

// newOverdueEvent 由逾期借阅单构造催还事件,预估罚金仅用于提醒文案
func newOverdueEvent(l *loan.Loan, now time.Time, finePerDay int64) *LoanOverdueEvent {
	return &LoanOverdueEvent{
		LoanID:      l.ID,
		PatronID:    l.PatronID,
		BookID:      l.BookID,
		DueDate:     l.DueDate.Format(time.RFC3339),
		DaysOverdue: loan.DaysOverdue(l.DueDate, now),
		FineAccrued: loan.CalculateFine(l.DueDate, now, finePerDay),
	}
}

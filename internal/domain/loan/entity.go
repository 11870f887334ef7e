package loan

import (
	"time"
)

// Status 借阅单状态
// 教学要点:
// 1. 使用string类型,和前端、报表展示保持一致
// 2. 状态机收口在实体方法上,防止非法状态跳转
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT" // 押金待支付(副本已锁定)
	StatusBorrowed       Status = "BORROWED"        // 借出中
	StatusRenewed        Status = "RENEWED"         // 已续借(仍在借出中)
	StatusPendingReturn  Status = "PENDING_RETURN"  // 读者已申请归还,待馆员确认
	StatusOverdue        Status = "OVERDUE"         // 已逾期
	StatusReturned       Status = "RETURNED"        // 已归还(终态)
)

// String 实现Stringer接口(方便日志输出)
func (s Status) String() string {
	return string(s)
}

// Active 借阅单是否处于"书在读者手里"的状态
func (s Status) Active() bool {
	switch s {
	case StatusBorrowed, StatusRenewed, StatusPendingReturn, StatusOverdue:
		return true
	}
	return false
}

// Loan 借阅单实体(聚合根)
// 设计说明:
// 1. 借阅发生在副本(CopyID)上,BookID冗余存储便于查询
// 2. 金额字段单位为VND,和支付网关一致
// 3. FineAmount在逾期归还/逾期扫描时计算写入
type Loan struct {
	ID            uint
	PatronID      uint       // 读者ID
	BookID        uint       // 图书ID(冗余)
	CopyID        uint       // 副本ID
	Status        Status     // 借阅状态
	BorrowedAt    time.Time  // 借出时间(押金流程下为激活时间)
	DueDate       time.Time  // 应还日期
	ReturnDate    *time.Time // 实际归还时间(未归还为nil)
	RenewalCount  int        // 已续借次数
	DepositAmount int64      // 押金(VND)
	FineAmount    int64      // 罚金(VND)
	Notes         string     // 备注(破损归还说明等)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewLoan 创建借阅单(工厂方法)
// 押金支付流程:初始状态PENDING_PAYMENT,押金到账后Activate
func NewLoan(patronID, bookID, copyID uint, period time.Duration, deposit int64) *Loan {
	now := time.Now()
	return &Loan{
		PatronID:      patronID,
		BookID:        bookID,
		CopyID:        copyID,
		Status:        StatusPendingPayment,
		BorrowedAt:    now,
		DueDate:       now.Add(period),
		DepositAmount: deposit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewDirectLoan 创建现场直借借阅单(馆员柜台操作,无押金流程)
func NewDirectLoan(patronID, bookID, copyID uint, period time.Duration) *Loan {
	l := NewLoan(patronID, bookID, copyID, period, 0)
	l.Status = StatusBorrowed
	return l
}

// CanTransitionTo 检查是否可以转换到目标状态
func (l *Loan) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		// 押金到账→借出;支付失败时借阅单直接删除,没有失败态
		StatusPendingPayment: {StatusBorrowed},
		StatusBorrowed:       {StatusRenewed, StatusPendingReturn, StatusOverdue, StatusReturned},
		// 续借后仍可再次续借(次数由RenewalCount限制)
		StatusRenewed: {StatusRenewed, StatusPendingReturn, StatusOverdue, StatusReturned},
		// 馆员确认归还,或驳回申请回到借出中
		StatusPendingReturn: {StatusReturned, StatusBorrowed},
		StatusOverdue:       {StatusPendingReturn, StatusReturned},
		StatusReturned:      {},
	}

	allowedTargets, exists := transitions[l.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
func (l *Loan) TransitionTo(target Status) error {
	if !l.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	l.Status = target
	l.UpdatedAt = time.Now()
	return nil
}

// Activate 押金到账,借阅单生效(领域行为)
// 激活时重置借出时间和应还日期,借期从到账时刻算起
func (l *Loan) Activate(period time.Duration) error {
	if err := l.TransitionTo(StatusBorrowed); err != nil {
		return err
	}
	now := time.Now()
	l.BorrowedAt = now
	l.DueDate = now.Add(period)
	return nil
}

// Renew 续借(领域行为)
// 业务规则:
// - 只有借出中(BORROWED/RENEWED)的借阅单可以续借
// - 已逾期不能续借
// - 续借次数不能超过limit
// - 应还日期在原基础上顺延period
func (l *Loan) Renew(limit int, period time.Duration) error {
	if l.Status != StatusBorrowed && l.Status != StatusRenewed {
		return ErrInvalidLoanStatus
	}
	if time.Now().After(l.DueDate) {
		return ErrLoanOverdue
	}
	if l.RenewalCount >= limit {
		return ErrRenewalLimitReached
	}

	if err := l.TransitionTo(StatusRenewed); err != nil {
		return err
	}
	l.RenewalCount++
	l.DueDate = l.DueDate.Add(period)
	return nil
}

// RequestReturn 读者申请归还(领域行为)
func (l *Loan) RequestReturn() error {
	return l.TransitionTo(StatusPendingReturn)
}

// RejectReturn 馆员驳回归还申请,回到借出中
func (l *Loan) RejectReturn() error {
	return l.TransitionTo(StatusBorrowed)
}

// MarkOverdue 标记逾期(逾期扫描使用)
func (l *Loan) MarkOverdue() error {
	return l.TransitionTo(StatusOverdue)
}

// Return 归还(领域行为)
// 归还时写入实际归还时间
func (l *Loan) Return(at time.Time) error {
	if err := l.TransitionTo(StatusReturned); err != nil {
		return err
	}
	l.ReturnDate = &at
	return nil
}

// IsOverdue 当前时刻是否已超过应还日期
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status.Active() && now.After(l.DueDate)
}

// ReturnedOnTime 是否按时归还(用于信誉积分)
func (l *Loan) ReturnedOnTime() bool {
	if l.ReturnDate == nil {
		return false
	}
	return !l.ReturnDate.After(l.DueDate)
}

// IsOwnedBy 检查借阅单是否属于指定读者
// 权限校验,防止读者操作他人借阅单
func (l *Loan) IsOwnedBy(patronID uint) bool {
	return l.PatronID == patronID
}

package payment

import (
	"time"
)

// Method 支付方式
type Method string

const (
	MethodCash  Method = "CASH"  // 柜台现金(馆员确认)
	MethodVNPay Method = "VNPAY" // VNPay网关
)

// Valid 检查支付方式是否合法
func (m Method) Valid() bool {
	return m == MethodCash || m == MethodVNPay
}

// Status 支付状态
// 教学要点:状态只能单向推进,CONFIRMED/FAILED之后不允许再变更
// (REFUNDED除外,已确认的押金可退)
type Status string

const (
	StatusPending   Status = "PENDING"   // 待支付
	StatusConfirmed Status = "CONFIRMED" // 已到账
	StatusFailed    Status = "FAILED"    // 支付失败
	StatusRefunded  Status = "REFUNDED"  // 已退款
)

// String 实现Stringer接口
func (s Status) String() string {
	return string(s)
}

// LoanPayment 借阅押金/罚金支付单
// 设计说明:
// 1. 一笔支付单对应一笔借阅押金(Purpose=DEPOSIT)或一笔罚金(Purpose=FINE)
// 2. TxnRef是对账主键:押金为 LOAN_{loanID}_{毫秒时间戳},罚金为8位随机数字
// 3. Amount单位为VND,和网关vnp_Amount(×100)换算在网关层处理
type LoanPayment struct {
	ID           uint
	LoanID       uint       // 关联借阅单(罚金支付时为0)
	FineID       uint       // 关联罚款单(押金支付时为0)
	PatronID     uint       // 读者ID
	Amount       int64      // 金额(VND)
	Method       Method     // 支付方式
	Status       Status     // 支付状态
	TxnRef       string     // 交易参考号(对账主键)
	GatewayTxnNo string     // 网关交易号(vnp_TransactionNo)
	BankCode     string     // 银行代码(vnp_BankCode)
	ConfirmedBy  uint       // 现金确认馆员ID(网关支付为0)
	PaidAt       *time.Time // 到账时间
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewDepositPayment 创建押金支付单(工厂方法)
func NewDepositPayment(loanID, patronID uint, amount int64, method Method) *LoanPayment {
	now := time.Now()
	return &LoanPayment{
		LoanID:    loanID,
		PatronID:  patronID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		TxnRef:    LoanTxnRef(loanID),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewFinePayment 创建罚金支付单(工厂方法)
func NewFinePayment(fineID, patronID uint, amount int64, method Method) *LoanPayment {
	now := time.Now()
	return &LoanPayment{
		FineID:    fineID,
		PatronID:  patronID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		TxnRef:    FineTxnRef(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo 检查支付状态是否可以转换到目标状态
func (p *LoanPayment) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusFailed},
		StatusConfirmed: {StatusRefunded},
		StatusFailed:    {},
		StatusRefunded:  {},
	}

	allowedTargets, exists := transitions[p.Status]
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

// TransitionTo 支付状态转换
func (p *LoanPayment) TransitionTo(target Status) error {
	if !p.CanTransitionTo(target) {
		return ErrInvalidPaymentStatus
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	return nil
}

// Confirm 确认到账(领域行为)
// gatewayTxnNo/bankCode来自网关回调,现金支付传空
func (p *LoanPayment) Confirm(gatewayTxnNo, bankCode string, confirmedBy uint) error {
	if err := p.TransitionTo(StatusConfirmed); err != nil {
		return err
	}
	now := time.Now()
	p.PaidAt = &now
	p.GatewayTxnNo = gatewayTxnNo
	p.BankCode = bankCode
	p.ConfirmedBy = confirmedBy
	return nil
}

// Fail 标记支付失败(领域行为)
func (p *LoanPayment) Fail(gatewayTxnNo string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.GatewayTxnNo = gatewayTxnNo
	return nil
}

// Refund 退款(领域行为)
func (p *LoanPayment) Refund() error {
	return p.TransitionTo(StatusRefunded)
}

// IsDeposit 是否押金支付单
func (p *LoanPayment) IsDeposit() bool {
	return p.LoanID != 0
}

// IsOwnedBy 检查支付单是否属于指定读者
func (p *LoanPayment) IsOwnedBy(patronID uint) bool {
	return p.PatronID == patronID
}

// FineStatus 罚款单状态
type FineStatus string

const (
	FineStatusUnpaid FineStatus = "UNPAID" // 未缴
	FineStatusPaid   FineStatus = "PAID"   // 已缴
	FineStatusWaived FineStatus = "WAIVED" // 已减免
)

// Fine 罚款单实体
// 逾期归还/破损归还时开出,独立于借阅单结算
type Fine struct {
	ID        uint
	LoanID    uint       // 关联借阅单
	PatronID  uint       // 读者ID
	Amount    int64      // 罚款金额(VND)
	Reason    string     // 罚款原因(逾期/破损)
	Status    FineStatus // 罚款状态
	PaidAt    *time.Time // 缴清时间
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewFine 创建罚款单(工厂方法)
func NewFine(loanID, patronID uint, amount int64, reason string) *Fine {
	now := time.Now()
	return &Fine{
		LoanID:    loanID,
		PatronID:  patronID,
		Amount:    amount,
		Reason:    reason,
		Status:    FineStatusUnpaid,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkPaid 标记缴清
func (f *Fine) MarkPaid() error {
	if f.Status != FineStatusUnpaid {
		return ErrFineAlreadySettled
	}
	now := time.Now()
	f.Status = FineStatusPaid
	f.PaidAt = &now
	f.UpdatedAt = now
	return nil
}

// Waive 减免(馆员操作)
func (f *Fine) Waive() error {
	if f.Status != FineStatusUnpaid {
		return ErrFineAlreadySettled
	}
	f.Status = FineStatusWaived
	f.UpdatedAt = time.Now()
	return nil
}

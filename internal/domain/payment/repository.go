package payment

import (
	"context"
	"time"
)

// Repository 支付仓储接口
type Repository interface {
	// Create 创建支付单
	Create(ctx context.Context, payment *LoanPayment) error

	// FindByID 根据ID查找支付单
	FindByID(ctx context.Context, id uint) (*LoanPayment, error)

	// FindByTxnRef 根据交易参考号查找支付单
	FindByTxnRef(ctx context.Context, txnRef string) (*LoanPayment, error)

	// LockByTxnRef 悲观锁定支付单(回调处理使用,保证幂等)
	LockByTxnRef(ctx context.Context, txnRef string) (*LoanPayment, error)

	// FindPendingByLoanID 查找借阅单的待支付押金单
	FindPendingByLoanID(ctx context.Context, loanID uint) (*LoanPayment, error)

	// FindPendingByFineID 查找罚款单的待支付记录
	FindPendingByFineID(ctx context.Context, fineID uint) (*LoanPayment, error)

	// Update 更新支付单
	Update(ctx context.Context, payment *LoanPayment) error

	// ListByPatronID 读者的支付记录(分页)
	ListByPatronID(ctx context.Context, patronID uint, page, pageSize int) ([]*LoanPayment, int64, error)

	// ListPendingCash 待确认的现金支付单(馆员工作台,分页)
	ListPendingCash(ctx context.Context, page, pageSize int) ([]*LoanPayment, int64, error)

	// ListStalePending 创建时间早于deadline且仍为PENDING的网关支付单(对账任务)
	ListStalePending(ctx context.Context, method Method, deadline time.Time, limit int) ([]*LoanPayment, error)
}

// FineRepository 罚款仓储接口
type FineRepository interface {
	// Create 创建罚款单
	Create(ctx context.Context, fine *Fine) error

	// FindByID 根据ID查找罚款单
	FindByID(ctx context.Context, id uint) (*Fine, error)

	// LockByID 悲观锁定罚款单(缴费确认使用)
	LockByID(ctx context.Context, id uint) (*Fine, error)

	// Update 更新罚款单
	Update(ctx context.Context, fine *Fine) error

	// ListByPatronID 读者的罚款记录(支持按状态过滤,分页)
	ListByPatronID(ctx context.Context, patronID uint, status FineStatus, page, pageSize int) ([]*Fine, int64, error)

	// SumUnpaidByPatron 读者未缴罚款总额
	SumUnpaidByPatron(ctx context.Context, patronID uint) (int64, error)
}

package loan

import (
	"context"
	"time"
)

// Repository 借阅仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
type Repository interface {
	// Create 创建借阅单
	Create(ctx context.Context, loan *Loan) error

	// FindByID 根据ID查找借阅单
	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID 悲观锁定借阅单(归还/支付确认流程使用)
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// Update 更新借阅单(主要用于状态更新)
	Update(ctx context.Context, loan *Loan) error

	// Delete 删除借阅单(押金支付失败时回收)
	Delete(ctx context.Context, id uint) error

	// ListByPatronID 查询读者的借阅记录(支持按状态过滤,分页)
	ListByPatronID(ctx context.Context, patronID uint, statuses []Status, page, pageSize int) ([]*Loan, int64, error)

	// List 全馆借阅记录(馆员视角,支持按状态过滤,分页)
	List(ctx context.Context, statuses []Status, page, pageSize int) ([]*Loan, int64, error)

	// CountActiveByPatron 读者当前在借数量(含待确认归还)
	CountActiveByPatron(ctx context.Context, patronID uint) (int64, error)

	// ExistsActiveByPatronAndBook 读者是否已借阅某本书且未归还
	ExistsActiveByPatronAndBook(ctx context.Context, patronID, bookID uint) (bool, error)

	// ExistsOverdueByPatron 读者是否存在已过应还日期的在借记录
	ExistsOverdueByPatron(ctx context.Context, patronID uint, now time.Time) (bool, error)

	// ListDueBefore 查询应还日期早于deadline的在借记录(逾期扫描使用)
	ListDueBefore(ctx context.Context, deadline time.Time, page, pageSize int) ([]*Loan, int64, error)
}

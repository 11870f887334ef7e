package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/loan"
)

// QueryUseCase 借阅查询用例(只读,不走事务)
type QueryUseCase struct {
	loanRepo loan.Repository
}

// NewQueryUseCase 创建借阅查询用例
func NewQueryUseCase(loanRepo loan.Repository) *QueryUseCase {
	return &QueryUseCase{loanRepo: loanRepo}
}

// GetByID 查询单个借阅单
// requirePatronID非0时校验归属(读者只能看自己的)
func (uc *QueryUseCase) GetByID(ctx context.Context, loanID, requirePatronID uint) (*loan.Loan, error) {
	l, err := uc.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if requirePatronID != 0 && !l.IsOwnedBy(requirePatronID) {
		return nil, loan.ErrNotLoanOwner
	}
	return l, nil
}

// ListByPatron 查询某读者的借阅单
func (uc *QueryUseCase) ListByPatron(ctx context.Context, patronID uint, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	return uc.loanRepo.ListByPatronID(ctx, patronID, statuses, normalizePage(page), normalizePageSize(pageSize))
}

// List 按状态查询全部借阅单(馆员视角)
func (uc *QueryUseCase) List(ctx context.Context, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	return uc.loanRepo.List(ctx, statuses, normalizePage(page), normalizePageSize(pageSize))
}

// ListPendingReturns 待馆员确认的归还申请
func (uc *QueryUseCase) ListPendingReturns(ctx context.Context, page, pageSize int) ([]*loan.Loan, int64, error) {
	return uc.loanRepo.List(ctx, []loan.Status{loan.StatusPendingReturn}, normalizePage(page), normalizePageSize(pageSize))
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(pageSize int) int {
	if pageSize < 1 || pageSize > 100 {
		return 20
	}
	return pageSize
}

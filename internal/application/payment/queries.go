package payment

import (
	"context"

	"github.com/xiebiao/library/internal/domain/payment"
)

// QueryUseCase 支付与罚款查询用例(只读)
type QueryUseCase struct {
	paymentRepo payment.Repository
	fineRepo    payment.FineRepository
}

// NewQueryUseCase 创建支付查询用例
func NewQueryUseCase(paymentRepo payment.Repository, fineRepo payment.FineRepository) *QueryUseCase {
	return &QueryUseCase{paymentRepo: paymentRepo, fineRepo: fineRepo}
}

// GetPayment 查询单个支付单
// requirePatronID非0时校验归属
func (uc *QueryUseCase) GetPayment(ctx context.Context, paymentID, requirePatronID uint) (*payment.LoanPayment, error) {
	p, err := uc.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if requirePatronID != 0 && !p.IsOwnedBy(requirePatronID) {
		return nil, payment.ErrNotPaymentOwner
	}
	return p, nil
}

// ListPaymentsByPatron 读者的支付记录
func (uc *QueryUseCase) ListPaymentsByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	return uc.paymentRepo.ListByPatronID(ctx, patronID, normalizePage(page), normalizePageSize(pageSize))
}

// ListPendingCash 待馆员确认的现金支付单
func (uc *QueryUseCase) ListPendingCash(ctx context.Context, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	return uc.paymentRepo.ListPendingCash(ctx, normalizePage(page), normalizePageSize(pageSize))
}

// ListFinesByPatron 读者的罚款记录(status为空时不过滤)
func (uc *QueryUseCase) ListFinesByPatron(ctx context.Context, patronID uint, status payment.FineStatus, page, pageSize int) ([]*payment.Fine, int64, error) {
	return uc.fineRepo.ListByPatronID(ctx, patronID, status, normalizePage(page), normalizePageSize(pageSize))
}

// UnpaidFineTotal 读者未缴罚款总额
func (uc *QueryUseCase) UnpaidFineTotal(ctx context.Context, patronID uint) (int64, error) {
	return uc.fineRepo.SumUnpaidByPatron(ctx, patronID)
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

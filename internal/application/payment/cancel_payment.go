package payment

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/metrics"
)

// CancelPaymentUseCase 取消支付用例
// 读者放弃支付押金时主动取消,效果等同于网关回调失败:
// 支付单转FAILED,借阅单删除,预留副本释放
type CancelPaymentUseCase struct {
	settler
	paymentRepo payment.Repository
	txManager   *mysql.TxManager
}

// NewCancelPaymentUseCase 创建取消支付用例
func NewCancelPaymentUseCase(
	paymentRepo payment.Repository,
	fineRepo payment.FineRepository,
	loanRepo loan.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	membershipSvc membership.Service,
	txManager *mysql.TxManager,
	cfg config.LoanConfig,
) *CancelPaymentUseCase {
	return &CancelPaymentUseCase{
		settler: settler{
			loanRepo:      loanRepo,
			copyRepo:      copyRepo,
			bookSvc:       bookSvc,
			fineRepo:      fineRepo,
			membershipSvc: membershipSvc,
			cfg:           cfg,
		},
		paymentRepo: paymentRepo,
		txManager:   txManager,
	}
}

// Execute 读者取消自己的待支付单
func (uc *CancelPaymentUseCase) Execute(ctx context.Context, patronID, paymentID uint) error {
	var p *payment.LoanPayment
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		found, err := uc.paymentRepo.FindByID(txCtx, paymentID)
		if err != nil {
			return err
		}
		p, err = uc.paymentRepo.LockByTxnRef(txCtx, found.TxnRef)
		if err != nil {
			return err
		}

		if !p.IsOwnedBy(patronID) {
			return payment.ErrNotPaymentOwner
		}
		if err := p.Fail(""); err != nil {
			return err
		}
		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		if p.IsDeposit() {
			return uc.releaseLoan(txCtx, p.LoanID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 取消的现金单不再等柜台确认
	if p.Method == payment.MethodCash {
		metrics.DecGauge(metrics.PaymentsPendingCash)
	}
	return nil
}

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

// ConfirmCashUseCase 柜台现金确认用例
// 读者在柜台付现,馆员核实后确认到账,业务落地与网关回调共用结算逻辑
type ConfirmCashUseCase struct {
	settler
	paymentRepo payment.Repository
	txManager   *mysql.TxManager
}

// NewConfirmCashUseCase 创建现金确认用例
func NewConfirmCashUseCase(
	paymentRepo payment.Repository,
	fineRepo payment.FineRepository,
	loanRepo loan.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	membershipSvc membership.Service,
	txManager *mysql.TxManager,
	cfg config.LoanConfig,
) *ConfirmCashUseCase {
	return &ConfirmCashUseCase{
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

// Execute 馆员确认现金支付到账
// 业务规则:仅PENDING状态且方式为CASH的支付单可确认
func (uc *ConfirmCashUseCase) Execute(ctx context.Context, operatorID, paymentID uint) (*payment.LoanPayment, error) {
	var p *payment.LoanPayment
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		found, err := uc.paymentRepo.FindByID(txCtx, paymentID)
		if err != nil {
			return err
		}
		// 以商户订单号加锁,与网关回调竞争同一把锁
		p, err = uc.paymentRepo.LockByTxnRef(txCtx, found.TxnRef)
		if err != nil {
			return err
		}

		if p.Method != payment.MethodCash {
			return payment.ErrInvalidMethod
		}
		if err := p.Confirm("", "", operatorID); err != nil {
			return err
		}
		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		if p.IsDeposit() {
			return uc.activateLoan(txCtx, p.LoanID)
		}
		return uc.settleFine(txCtx, p.FineID)
	})
	if err != nil {
		return nil, err
	}

	metrics.DecGauge(metrics.PaymentsPendingCash)
	return p, nil
}

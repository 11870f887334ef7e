package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/metrics"
)

// RenewLoanUseCase 续借用例
type RenewLoanUseCase struct {
	loanRepo  loan.Repository
	txManager *mysql.TxManager
	cfg       config.LoanConfig
}

// NewRenewLoanUseCase 创建续借用例
func NewRenewLoanUseCase(loanRepo loan.Repository, txManager *mysql.TxManager, cfg config.LoanConfig) *RenewLoanUseCase {
	return &RenewLoanUseCase{loanRepo: loanRepo, txManager: txManager, cfg: cfg}
}

// Execute 读者续借自己的借阅单
// 业务规则:未逾期、未超过续借次数上限,到期日在当前到期日基础上顺延
func (uc *RenewLoanUseCase) Execute(ctx context.Context, patronID, loanID uint) (*loan.Loan, error) {
	var l *loan.Loan
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		l, err = uc.loanRepo.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}

		if !l.IsOwnedBy(patronID) {
			return loan.ErrNotLoanOwner
		}

		if err := l.Renew(uc.cfg.RenewalLimit, uc.cfg.LoanPeriod); err != nil {
			return err
		}
		return uc.loanRepo.Update(txCtx, l)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansRenewedTotal)
	return l, nil
}

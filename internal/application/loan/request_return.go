package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// RequestReturnUseCase 读者申请归还用例
// 两步归还流程:读者自助申请 → 馆员验书确认
type RequestReturnUseCase struct {
	loanRepo  loan.Repository
	txManager *mysql.TxManager
}

// NewRequestReturnUseCase 创建归还申请用例
func NewRequestReturnUseCase(loanRepo loan.Repository, txManager *mysql.TxManager) *RequestReturnUseCase {
	return &RequestReturnUseCase{loanRepo: loanRepo, txManager: txManager}
}

// Execute 读者申请归还
// 业务规则:只能操作自己的借阅单,借出中/逾期的借阅单可申请
func (uc *RequestReturnUseCase) Execute(ctx context.Context, patronID, loanID uint) (*loan.Loan, error) {
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

		if err := l.RequestReturn(); err != nil {
			return err
		}
		return uc.loanRepo.Update(txCtx, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

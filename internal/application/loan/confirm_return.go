package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// ConfirmReturnUseCase 馆员确认归还用例
// 馆员在柜台验书后确认归还,或因书不在手而驳回申请
type ConfirmReturnUseCase struct {
	loanRepo  loan.Repository
	returnUC  *ReturnBookUseCase
	txManager *mysql.TxManager
}

// NewConfirmReturnUseCase 创建归还确认用例
func NewConfirmReturnUseCase(loanRepo loan.Repository, returnUC *ReturnBookUseCase, txManager *mysql.TxManager) *ConfirmReturnUseCase {
	return &ConfirmReturnUseCase{loanRepo: loanRepo, returnUC: returnUC, txManager: txManager}
}

// ConfirmRequest 确认归还请求
type ConfirmRequest struct {
	LoanID     uint
	OperatorID uint
	Damaged    bool
	DamageFine int64
	Notes      string
}

// Confirm 确认归还:验书通过,走完整归还结算流程
func (uc *ConfirmReturnUseCase) Confirm(ctx context.Context, req ConfirmRequest) (*ReturnBookResponse, error) {
	return uc.returnUC.Execute(ctx, ReturnBookRequest{
		LoanID:     req.LoanID,
		OperatorID: req.OperatorID,
		Damaged:    req.Damaged,
		DamageFine: req.DamageFine,
		Notes:      req.Notes,
	})
}

// Reject 驳回归还申请:借阅单退回借出中状态
func (uc *ConfirmReturnUseCase) Reject(ctx context.Context, loanID uint) (*loan.Loan, error) {
	var l *loan.Loan
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		l, err = uc.loanRepo.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}
		if err := l.RejectReturn(); err != nil {
			return err
		}
		return uc.loanRepo.Update(txCtx, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

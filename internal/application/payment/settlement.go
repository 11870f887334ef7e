package payment

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// settler 支付到账/失败后的业务落地
// 网关回调与柜台现金确认共用同一套结算逻辑,必须在调用方事务内执行
type settler struct {
	loanRepo      loan.Repository
	copyRepo      book.CopyRepository
	bookSvc       book.Service
	fineRepo      payment.FineRepository
	membershipSvc membership.Service
	cfg           config.LoanConfig
}

// activateLoan 押金到账:激活借阅单,副本转为借出,累计会员积分
func (s *settler) activateLoan(ctx context.Context, loanID uint) error {
	l, err := s.loanRepo.LockByID(ctx, loanID)
	if err != nil {
		return err
	}
	if err := l.Activate(s.cfg.LoanPeriod); err != nil {
		return err
	}
	if err := s.loanRepo.Update(ctx, l); err != nil {
		return err
	}

	c, err := s.copyRepo.LockByID(ctx, l.CopyID)
	if err != nil {
		return err
	}
	if err := s.bookSvc.SetCopyStatus(ctx, c, book.CopyStatusBorrowed); err != nil {
		return err
	}

	// 会员积分与借阅激活同事务落地,失败一起回滚
	return s.membershipSvc.OnLoanActivated(ctx, l.PatronID)
}

// releaseLoan 押金未到账:删除待支付借阅单,释放预留副本
func (s *settler) releaseLoan(ctx context.Context, loanID uint) error {
	l, err := s.loanRepo.LockByID(ctx, loanID)
	if err != nil {
		return err
	}

	c, err := s.copyRepo.LockByID(ctx, l.CopyID)
	if err != nil {
		return err
	}
	if err := s.bookSvc.SetCopyStatus(ctx, c, book.CopyStatusAvailable); err != nil {
		return err
	}
	return s.loanRepo.Delete(ctx, l.ID)
}

// settleFine 罚款到账:罚款单转已缴
func (s *settler) settleFine(ctx context.Context, fineID uint) error {
	f, err := s.fineRepo.LockByID(ctx, fineID)
	if err != nil {
		return err
	}
	if err := f.MarkPaid(); err != nil {
		return err
	}
	return s.fineRepo.Update(ctx, f)
}

package loan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// ReturnBookUseCase 还书用例(馆员柜台操作)
// 涵盖:逾期罚金计算、破损处理、会员积分、归还事件通知
type ReturnBookUseCase struct {
	loanRepo      loan.Repository
	copyRepo      book.CopyRepository
	bookSvc       book.Service
	fineRepo      payment.FineRepository
	membershipSvc membership.Service
	txManager     *mysql.TxManager
	publisher     *mq.Publisher
	cfg           config.LoanConfig
}

// NewReturnBookUseCase 创建还书用例
func NewReturnBookUseCase(
	loanRepo loan.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	fineRepo payment.FineRepository,
	membershipSvc membership.Service,
	txManager *mysql.TxManager,
	publisher *mq.Publisher,
	cfg config.LoanConfig,
) *ReturnBookUseCase {
	return &ReturnBookUseCase{
		loanRepo:      loanRepo,
		copyRepo:      copyRepo,
		bookSvc:       bookSvc,
		fineRepo:      fineRepo,
		membershipSvc: membershipSvc,
		txManager:     txManager,
		publisher:     publisher,
		cfg:           cfg,
	}
}

// ReturnBookRequest 还书请求DTO
type ReturnBookRequest struct {
	LoanID     uint   // 借阅单ID
	OperatorID uint   // 操作馆员ID
	Damaged    bool   // 是否破损归还
	DamageFine int64  // 破损赔偿金额(VND,馆员评估)
	Notes      string // 备注(破损说明)
}

// ReturnBookResponse 还书响应DTO
type ReturnBookResponse struct {
	LoanID      uint   `json:"loan_id"`
	Status      string `json:"status"`
	OnTime      bool   `json:"on_time"`
	DaysOverdue int64  `json:"days_overdue"`
	OverdueFine int64  `json:"overdue_fine"`
	DamageFine  int64  `json:"damage_fine"`
	FineID      uint   `json:"fine_id,omitempty"`
	ReturnedAt  string `json:"returned_at"`
}

// Execute 执行还书用例
//
// 流程(单事务):
//  1. 锁定借阅单(FOR UPDATE,防止并发归还)
//  2. 计算逾期罚金 = 逾期天数 × 每日罚金
//  3. 借阅单流转为RETURNED
//  4. 副本回到AVAILABLE;破损归还转入REPAIRING并追加备注
//  5. 有罚金则开罚款单,记一次违规;按时归还加信誉积分
//
// 事务提交后发布loan.returned事件(失败不回滚)
func (uc *ReturnBookUseCase) Execute(ctx context.Context, req ReturnBookRequest) (*ReturnBookResponse, error) {
	now := time.Now()

	var (
		l           *loan.Loan
		fineID      uint
		overdueFine int64
		daysOverdue int64
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		// 1. 锁定借阅单
		l, err = uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if !l.Status.Active() {
			return loan.ErrInvalidLoanStatus
		}

		// 2. 逾期罚金
		daysOverdue = loan.DaysOverdue(l.DueDate, now)
		overdueFine = loan.CalculateFine(l.DueDate, now, uc.cfg.FinePerDay)
		totalFine := overdueFine + req.DamageFine

		// 3. 借阅单流转
		if err := l.Return(now); err != nil {
			return err
		}
		l.FineAmount = totalFine
		if req.Notes != "" {
			l.Notes = req.Notes
		}
		if err := uc.loanRepo.Update(txCtx, l); err != nil {
			return err
		}

		// 4. 副本回库
		c, err := uc.copyRepo.LockByID(txCtx, l.CopyID)
		if err != nil {
			return err
		}
		if req.Damaged {
			c.AppendNote(fmt.Sprintf("破损归还(借阅单#%d): %s", l.ID, req.Notes))
			c.Condition = book.ConditionDamaged
			if err := uc.bookSvc.SetCopyStatus(txCtx, c, book.CopyStatusRepairing); err != nil {
				return err
			}
		} else {
			if err := uc.bookSvc.SetCopyStatus(txCtx, c, book.CopyStatusAvailable); err != nil {
				return err
			}
		}

		// 5. 罚款与会员数据
		if totalFine > 0 {
			reason := fineReason(daysOverdue, req.Damaged)
			fine := payment.NewFine(l.ID, l.PatronID, totalFine, reason)
			if err := uc.fineRepo.Create(txCtx, fine); err != nil {
				return err
			}
			fineID = fine.ID

			// 逾期算一次违规,超过等级容忍上限会降级
			if daysOverdue > 0 {
				if err := uc.membershipSvc.OnViolation(txCtx, l.PatronID); err != nil {
					return err
				}
			}
		}
		if l.ReturnedOnTime() {
			if err := uc.membershipSvc.OnOnTimeReturn(txCtx, l.PatronID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	onTime := l.ReturnedOnTime()
	if onTime {
		metrics.IncCounterVec(metrics.LoansReturnedTotal, "on_time")
	} else {
		metrics.IncCounterVec(metrics.LoansReturnedTotal, "late")
	}

	// 事务外发布归还事件,失败只记日志
	if err := uc.publisher.Publish(ctx, RoutingKeyLoanReturned, LoanReturnedEvent{
		LoanID:     l.ID,
		PatronID:   l.PatronID,
		BookID:     l.BookID,
		CopyID:     l.CopyID,
		OnTime:     onTime,
		FineAmount: l.FineAmount,
		Damaged:    req.Damaged,
		ReturnedAt: now.Format(time.RFC3339),
	}); err != nil {
		log.Printf("发布归还事件失败: LoanID=%d, err=%v", l.ID, err)
	}

	return &ReturnBookResponse{
		LoanID:      l.ID,
		Status:      l.Status.String(),
		OnTime:      onTime,
		DaysOverdue: daysOverdue,
		OverdueFine: overdueFine,
		DamageFine:  req.DamageFine,
		FineID:      fineID,
		ReturnedAt:  now.Format(time.RFC3339),
	}, nil
}

func fineReason(daysOverdue int64, damaged bool) string {
	switch {
	case daysOverdue > 0 && damaged:
		return fmt.Sprintf("逾期%d天+破损赔偿", daysOverdue)
	case damaged:
		return "破损赔偿"
	default:
		return fmt.Sprintf("逾期%d天", daysOverdue)
	}
}

package loan

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// OverdueScanUseCase 逾期扫描用例
//
// 懒标记策略:不依赖精确的定时翻转,扫描时把到期未还的借阅单
// 批量置为OVERDUE并发布事件,供通知服务提醒读者。
// 罚金在归还时按实际逾期天数结算,这里只预估金额用于提醒。
type OverdueScanUseCase struct {
	loanRepo  loan.Repository
	txManager *mysql.TxManager
	publisher *mq.Publisher
	cfg       config.LoanConfig
}

// NewOverdueScanUseCase 创建逾期扫描用例
func NewOverdueScanUseCase(loanRepo loan.Repository, txManager *mysql.TxManager, publisher *mq.Publisher, cfg config.LoanConfig) *OverdueScanUseCase {
	return &OverdueScanUseCase{loanRepo: loanRepo, txManager: txManager, publisher: publisher, cfg: cfg}
}

// OverdueScanResult 扫描结果
type OverdueScanResult struct {
	Scanned int `json:"scanned"` // 扫描到的到期借阅单数
	Marked  int `json:"marked"`  // 本次新标记为OVERDUE的数量
}

// Execute 扫描所有到期未还的借阅单,标记逾期并发布事件
func (uc *OverdueScanUseCase) Execute(ctx context.Context) (*OverdueScanResult, error) {
	now := time.Now()
	result := &OverdueScanResult{}

	const pageSize = 100
	for page := 1; ; page++ {
		loans, total, err := uc.loanRepo.ListDueBefore(ctx, now, page, pageSize)
		if err != nil {
			return nil, err
		}
		if len(loans) == 0 {
			break
		}
		result.Scanned += len(loans)

		for _, l := range loans {
			marked, err := uc.markOverdue(ctx, l.ID, now)
			if err != nil {
				// 单条失败不中断整批扫描
				log.Printf("逾期标记失败: loan_id=%d, err=%v", l.ID, err)
				continue
			}
			if marked {
				result.Marked++
			}
		}

		if int64(page*pageSize) >= total {
			break
		}
	}

	return result, nil
}

// markOverdue 标记单条借阅单逾期,返回是否实际发生了状态翻转
func (uc *OverdueScanUseCase) markOverdue(ctx context.Context, loanID uint, now time.Time) (bool, error) {
	var event *LoanOverdueEvent
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		l, err := uc.loanRepo.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}

		// 加锁后复核:可能已被并发归还或已标记
		if l.Status == loan.StatusOverdue || !l.IsOverdue(now) {
			return nil
		}
		if err := l.MarkOverdue(); err != nil {
			return err
		}
		if err := uc.loanRepo.Update(txCtx, l); err != nil {
			return err
		}

		event = newOverdueEvent(l, now, uc.cfg.FinePerDay)
		return nil
	})
	if err != nil || event == nil {
		return false, err
	}

	metrics.IncCounter(metrics.LoansOverdueTotal)
	if err := uc.publisher.Publish(ctx, RoutingKeyLoanOverdue, event); err != nil {
		log.Printf("逾期事件发布失败: loan_id=%d, err=%v", event.LoanID, err)
	}
	return true, nil
}

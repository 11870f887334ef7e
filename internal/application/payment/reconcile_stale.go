package payment

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// ReconcileStaleUseCase 滞留支付单对账用例
//
// 网关回调可能丢失:读者付了钱但IPN没送达,支付单会一直停在PENDING,
// 副本也被一直锁着。对账任务定期扫描超过支付时限仍PENDING的网关支付单,
// 主动向网关查询真实状态后补齐结算。
// 网关查询接口由熔断器保护(见infrastructure/gateway/vnpay),
// 网关故障时快速失败,留到下一轮扫描重试。
type ReconcileStaleUseCase struct {
	settler
	paymentRepo payment.Repository
	gateway     payment.Gateway
	txManager   *mysql.TxManager
	expire      time.Duration
}

// NewReconcileStaleUseCase 创建对账用例
func NewReconcileStaleUseCase(
	paymentRepo payment.Repository,
	fineRepo payment.FineRepository,
	loanRepo loan.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	membershipSvc membership.Service,
	gateway payment.Gateway,
	txManager *mysql.TxManager,
	cfg config.LoanConfig,
) *ReconcileStaleUseCase {
	return &ReconcileStaleUseCase{
		settler: settler{
			loanRepo:      loanRepo,
			copyRepo:      copyRepo,
			bookSvc:       bookSvc,
			fineRepo:      fineRepo,
			membershipSvc: membershipSvc,
			cfg:           cfg,
		},
		paymentRepo: paymentRepo,
		gateway:     gateway,
		txManager:   txManager,
		expire:      cfg.PaymentExpire,
	}
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Scanned   int `json:"scanned"`   // 扫描到的滞留支付单数
	Confirmed int `json:"confirmed"` // 查实已支付并补确认的数量
	Released  int `json:"released"`  // 查实未支付并释放资源的数量
	Skipped   int `json:"skipped"`   // 查询失败跳过的数量(含熔断拒绝)
}

// Execute 扫描并对账所有滞留的网关支付单
func (uc *ReconcileStaleUseCase) Execute(ctx context.Context) (*ReconcileResult, error) {
	deadline := time.Now().Add(-uc.expire)
	stale, err := uc.paymentRepo.ListStalePending(ctx, payment.MethodVNPay, deadline, 50)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Scanned: len(stale)}
	for _, p := range stale {
		confirmed, err := uc.reconcileOne(ctx, p)
		if err != nil {
			// 熔断开启或网关异常:跳过,下一轮再试
			log.Printf("支付单对账失败: txn_ref=%s, err=%v", p.TxnRef, err)
			result.Skipped++
			continue
		}
		if confirmed {
			result.Confirmed++
		} else {
			result.Released++
		}
	}
	return result, nil
}

// reconcileOne 对账单条支付单,返回是否查实为已支付
func (uc *ReconcileStaleUseCase) reconcileOne(ctx context.Context, stale *payment.LoanPayment) (bool, error) {
	// 先查网关(带熔断的慢调用),再开事务落地,避免长事务占锁
	queried, err := uc.gateway.QueryTransaction(ctx, stale.TxnRef, stale.CreatedAt)
	if err != nil {
		return false, err
	}

	paid := queried.ResponseCode == payment.ResponseCodeSuccess
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.paymentRepo.LockByTxnRef(txCtx, stale.TxnRef)
		if err != nil {
			return err
		}
		// 加锁后复核:查询期间回调可能已送达
		if p.Status != payment.StatusPending {
			return nil
		}

		if paid {
			if err := p.Confirm(queried.GatewayTxnNo, "", 0); err != nil {
				return err
			}
			if err := uc.paymentRepo.Update(txCtx, p); err != nil {
				return err
			}
			if p.IsDeposit() {
				return uc.activateLoan(txCtx, p.LoanID)
			}
			return uc.settleFine(txCtx, p.FineID)
		}

		if err := p.Fail(queried.GatewayTxnNo); err != nil {
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
	return paid, err
}

package payment

import (
	"context"
	"strconv"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// 回调处理结果(用于指标标签与IPN应答)
const (
	CallbackResultConfirmed = "confirmed" // 支付成功,业务已落地
	CallbackResultFailed    = "failed"    // 支付失败,已回滚预占资源
	CallbackResultReplay    = "replay"    // 重复回调,返回首次处理结果
	CallbackResultRejected  = "rejected"  // 验签失败或参数非法
)

// GatewayCallbackUseCase 网关回调处理用例
//
// 回调是支付流程的唯一可信确认来源(Return URL仅作展示)。
// 设计要点:
// 1. 验签失败一律拒绝,不做任何业务处理
// 2. 以商户订单号加锁实现幂等:网关会重发回调,重复回调返回首次结果
// 3. 押金支付成功才激活借阅单;失败则删单并释放副本
type GatewayCallbackUseCase struct {
	settler
	paymentRepo payment.Repository
	gateway     payment.Gateway
	txManager   *mysql.TxManager
}

// NewGatewayCallbackUseCase 创建回调处理用例
func NewGatewayCallbackUseCase(
	paymentRepo payment.Repository,
	fineRepo payment.FineRepository,
	loanRepo loan.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	membershipSvc membership.Service,
	gateway payment.Gateway,
	txManager *mysql.TxManager,
	cfg config.LoanConfig,
) *GatewayCallbackUseCase {
	return &GatewayCallbackUseCase{
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
	}
}

// CallbackOutcome 回调处理结果
type CallbackOutcome struct {
	Result    string         `json:"result"`     // confirmed/failed/replay/rejected
	TxnRef    string         `json:"txn_ref"`    // 商户订单号
	PaymentID uint           `json:"payment_id"` // 支付单ID
	Status    payment.Status `json:"status"`     // 支付单最终状态
}

// Execute 处理网关回调(IPN)
func (uc *GatewayCallbackUseCase) Execute(ctx context.Context, params map[string]string) (*CallbackOutcome, error) {
	data, err := uc.gateway.VerifyCallback(params)
	if err != nil {
		metrics.IncCounterVec(metrics.PaymentCallbacksTotal, CallbackResultRejected)
		return &CallbackOutcome{Result: CallbackResultRejected}, err
	}

	var outcome *CallbackOutcome
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.paymentRepo.LockByTxnRef(txCtx, data.TxnRef)
		if err != nil {
			return err
		}

		// 幂等:非PENDING说明已处理过,直接返回首次结果
		if p.Status != payment.StatusPending {
			outcome = &CallbackOutcome{
				Result:    CallbackResultReplay,
				TxnRef:    p.TxnRef,
				PaymentID: p.ID,
				Status:    p.Status,
			}
			return nil
		}

		// 金额必须与支付单一致,防止篡改
		if data.Amount != p.Amount {
			return apperrors.New(apperrors.ErrCodeInvalidParams,
				"回调金额与支付单不符: 期望"+strconv.FormatInt(p.Amount, 10)+", 实际"+strconv.FormatInt(data.Amount, 10))
		}

		result := CallbackResultFailed
		if data.Success() {
			if err := uc.settleSuccess(txCtx, p, data); err != nil {
				return err
			}
			result = CallbackResultConfirmed
		} else {
			if err := uc.settleFailure(txCtx, p, data); err != nil {
				return err
			}
		}
		outcome = &CallbackOutcome{Result: result, TxnRef: p.TxnRef, PaymentID: p.ID, Status: p.Status}
		return nil
	})
	if err != nil {
		metrics.IncCounterVec(metrics.PaymentCallbacksTotal, CallbackResultRejected)
		return &CallbackOutcome{Result: CallbackResultRejected, TxnRef: data.TxnRef}, err
	}

	metrics.IncCounterVec(metrics.PaymentCallbacksTotal, outcome.Result)
	return outcome, nil
}

// settleSuccess 支付成功:确认支付单并落地业务
func (uc *GatewayCallbackUseCase) settleSuccess(ctx context.Context, p *payment.LoanPayment, data *payment.CallbackData) error {
	// 网关回调没有操作人,confirmedBy留0
	if err := p.Confirm(data.GatewayTxnNo, data.BankCode, 0); err != nil {
		return err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return err
	}

	if p.IsDeposit() {
		return uc.activateLoan(ctx, p.LoanID)
	}
	return uc.settleFine(ctx, p.FineID)
}

// settleFailure 支付失败:关闭支付单并回滚预占资源
func (uc *GatewayCallbackUseCase) settleFailure(ctx context.Context, p *payment.LoanPayment, data *payment.CallbackData) error {
	if err := p.Fail(data.GatewayTxnNo); err != nil {
		return err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return err
	}

	if p.IsDeposit() {
		return uc.releaseLoan(ctx, p.LoanID)
	}
	// 罚款支付失败:罚款单保持UNPAID,读者可重新发起
	return nil
}

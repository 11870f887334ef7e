package payment

import (
	"context"
	"fmt"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// PayFineUseCase 罚款缴纳用例
type PayFineUseCase struct {
	fineRepo    payment.FineRepository
	paymentRepo payment.Repository
	gateway     payment.Gateway
	txManager   *mysql.TxManager
}

// NewPayFineUseCase 创建罚款缴纳用例
func NewPayFineUseCase(fineRepo payment.FineRepository, paymentRepo payment.Repository, gateway payment.Gateway, txManager *mysql.TxManager) *PayFineUseCase {
	return &PayFineUseCase{fineRepo: fineRepo, paymentRepo: paymentRepo, gateway: gateway, txManager: txManager}
}

// PayFineResponse 罚款缴纳响应
type PayFineResponse struct {
	PaymentID  uint   `json:"payment_id"`
	TxnRef     string `json:"txn_ref"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url,omitempty"` // VNPAY方式时返回收银台链接
}

// Execute 读者为自己的未缴罚款单发起支付
// CASH方式等馆员柜台确认,VNPAY方式返回网关收银台链接
func (uc *PayFineUseCase) Execute(ctx context.Context, patronID, fineID uint, method payment.Method, clientIP string) (*PayFineResponse, error) {
	if !method.Valid() {
		return nil, payment.ErrInvalidMethod
	}

	var p *payment.LoanPayment
	var reused, replacedCash bool
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		f, err := uc.fineRepo.LockByID(txCtx, fineID)
		if err != nil {
			return err
		}
		if f.PatronID != patronID {
			return apperrors.ErrForbidden
		}
		if f.Status != payment.FineStatusUnpaid {
			return payment.ErrFineAlreadySettled
		}

		// 同一罚款单已有待支付记录:方式一致时复用,避免重复下单;
		// 读者换了支付方式则关闭旧单重新下单
		existing, err := uc.paymentRepo.FindPendingByFineID(txCtx, fineID)
		if err == nil && existing != nil {
			if existing.Method == method {
				p = existing
				reused = true
				return nil
			}
			if err := existing.Fail(""); err != nil {
				return err
			}
			if err := uc.paymentRepo.Update(txCtx, existing); err != nil {
				return err
			}
			replacedCash = existing.Method == payment.MethodCash
		}

		p = payment.NewFinePayment(fineID, patronID, f.Amount, method)
		return uc.paymentRepo.Create(txCtx, p)
	})
	if err != nil {
		return nil, err
	}

	// 被替换的现金单不再等柜台确认
	if replacedCash {
		metrics.DecGauge(metrics.PaymentsPendingCash)
	}

	resp := &PayFineResponse{PaymentID: p.ID, TxnRef: p.TxnRef, Amount: p.Amount}
	if method == payment.MethodCash {
		if !reused {
			metrics.IncGauge(metrics.PaymentsPendingCash)
		}
		return resp, nil
	}

	url, err := uc.gateway.BuildPaymentURL(ctx, payment.PayURLRequest{
		TxnRef:    p.TxnRef,
		Amount:    p.Amount,
		OrderInfo: fmt.Sprintf("Thanh toan tien phat %s", p.TxnRef),
		IPAddr:    clientIP,
	})
	if err != nil {
		return nil, err
	}
	resp.PaymentURL = url
	return resp, nil
}

// WaiveFineUseCase 罚款减免用例
type WaiveFineUseCase struct {
	fineRepo  payment.FineRepository
	txManager *mysql.TxManager
}

// NewWaiveFineUseCase 创建罚款减免用例
func NewWaiveFineUseCase(fineRepo payment.FineRepository, txManager *mysql.TxManager) *WaiveFineUseCase {
	return &WaiveFineUseCase{fineRepo: fineRepo, txManager: txManager}
}

// Execute 馆员减免未缴罚款
func (uc *WaiveFineUseCase) Execute(ctx context.Context, fineID uint) (*payment.Fine, error) {
	var f *payment.Fine
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		f, err = uc.fineRepo.LockByID(txCtx, fineID)
		if err != nil {
			return err
		}
		if err := f.Waive(); err != nil {
			return err
		}
		return uc.fineRepo.Update(txCtx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

package payment

import (
	"context"
	"fmt"

	"github.com/xiebiao/library/internal/domain/payment"
)

// CreatePaymentURLUseCase 构建网关支付链接用例
type CreatePaymentURLUseCase struct {
	paymentRepo payment.Repository
	gateway     payment.Gateway
}

// NewCreatePaymentURLUseCase 创建支付链接用例
func NewCreatePaymentURLUseCase(paymentRepo payment.Repository, gateway payment.Gateway) *CreatePaymentURLUseCase {
	return &CreatePaymentURLUseCase{paymentRepo: paymentRepo, gateway: gateway}
}

// CreatePaymentURLResponse 支付链接响应
type CreatePaymentURLResponse struct {
	PaymentID  uint   `json:"payment_id"`
	TxnRef     string `json:"txn_ref"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url"`
}

// Execute 为待支付的支付单生成网关收银台链接
// 业务规则:只能为自己名下、PENDING状态、VNPAY方式的支付单生成链接
func (uc *CreatePaymentURLUseCase) Execute(ctx context.Context, patronID, paymentID uint, clientIP string) (*CreatePaymentURLResponse, error) {
	p, err := uc.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !p.IsOwnedBy(patronID) {
		return nil, payment.ErrNotPaymentOwner
	}
	if p.Status != payment.StatusPending {
		return nil, payment.ErrInvalidPaymentStatus
	}
	if p.Method != payment.MethodVNPay {
		return nil, payment.ErrInvalidMethod
	}

	orderInfo := fmt.Sprintf("Thanh toan tien phat %s", p.TxnRef)
	if p.IsDeposit() {
		orderInfo = fmt.Sprintf("Dat coc muon sach %s", p.TxnRef)
	}

	url, err := uc.gateway.BuildPaymentURL(ctx, payment.PayURLRequest{
		TxnRef:    p.TxnRef,
		Amount:    p.Amount,
		OrderInfo: orderInfo,
		IPAddr:    clientIP,
	})
	if err != nil {
		return nil, err
	}

	return &CreatePaymentURLResponse{
		PaymentID:  p.ID,
		TxnRef:     p.TxnRef,
		Amount:     p.Amount,
		PaymentURL: url,
	}, nil
}

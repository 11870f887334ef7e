package dto

// CreatePaymentURLResponse HTTP网关支付URL响应
type CreatePaymentURLResponse struct {
	PaymentID  uint   `json:"payment_id" example:"1"`
	TxnRef     string `json:"txn_ref" example:"LOAN_1_1699248000123"`
	Amount     int64  `json:"amount" example:"50000"`
	PaymentURL string `json:"payment_url" example:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?..."`
}

// PaymentResponse HTTP支付单响应
type PaymentResponse struct {
	ID           uint   `json:"id" example:"1"`
	LoanID       uint   `json:"loan_id,omitempty" example:"1"`
	FineID       uint   `json:"fine_id,omitempty"`
	PatronID     uint   `json:"patron_id" example:"1"`
	Amount       int64  `json:"amount" example:"50000"`
	Method       string `json:"method" example:"VNPAY"`
	Status       string `json:"status" example:"PAID"`
	TxnRef       string `json:"txn_ref" example:"LOAN_1_1699248000123"`
	GatewayTxnNo string `json:"gateway_txn_no,omitempty" example:"14226112"`
	BankCode     string `json:"bank_code,omitempty" example:"NCB"`
	PaidAt       string `json:"paid_at,omitempty" example:"2024-01-15 10:35:00"`
	CreatedAt    string `json:"created_at" example:"2024-01-15 10:30:00"`
}

// PayFineRequest HTTP缴纳罚款请求
type PayFineRequest struct {
	Method string `json:"method" binding:"required,oneof=CASH VNPAY" example:"VNPAY"`
}

// PayFineResponse HTTP缴纳罚款响应
// 现金方式payment_url为空,读者需到柜台由馆员确认
type PayFineResponse struct {
	PaymentID  uint   `json:"payment_id" example:"2"`
	TxnRef     string `json:"txn_ref" example:"58392047"`
	Amount     int64  `json:"amount" example:"15000"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// FineResponse HTTP罚款单响应
type FineResponse struct {
	ID        uint   `json:"id" example:"1"`
	LoanID    uint   `json:"loan_id" example:"1"`
	PatronID  uint   `json:"patron_id" example:"1"`
	Amount    int64  `json:"amount" example:"15000"`
	Reason    string `json:"reason" example:"逾期3天"`
	Status    string `json:"status" example:"UNPAID"`
	PaidAt    string `json:"paid_at,omitempty"`
	CreatedAt string `json:"created_at" example:"2024-01-20 14:00:00"`
}

// ListFinesRequest HTTP罚款列表请求
type ListFinesRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Status   string `form:"status" binding:"omitempty,oneof=UNPAID PAID WAIVED" example:"UNPAID"`
}

// GatewayCallbackResponse VNPay IPN应答
// 网关按RspCode判断通知是否送达:"00"表示处理成功,其余会触发重发
type GatewayCallbackResponse struct {
	RspCode string `json:"RspCode" example:"00"`
	Message string `json:"Message" example:"Confirm Success"`
}

// PaymentResultResponse HTTP支付结果页响应(Return URL)
type PaymentResultResponse struct {
	Result    string `json:"result" example:"confirmed"`
	TxnRef    string `json:"txn_ref" example:"LOAN_1_1699248000123"`
	PaymentID uint   `json:"payment_id" example:"1"`
	Status    string `json:"status" example:"PAID"`
}

// ReconcileResponse HTTP对账结果响应
type ReconcileResponse struct {
	Scanned   int `json:"scanned" example:"5"`
	Confirmed int `json:"confirmed" example:"2"`
	Released  int `json:"released" example:"2"`
	Skipped   int `json:"skipped" example:"1"`
}

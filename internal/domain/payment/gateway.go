package payment

import (
	"context"
	"time"
)

// ResponseCodeSuccess 网关支付成功响应码
const ResponseCodeSuccess = "00"

// PayURLRequest 构建支付跳转链接的参数
type PayURLRequest struct {
	TxnRef    string // 商户订单号(LOAN_前缀押金单或8位数字罚款单)
	Amount    int64  // 金额,单位VND
	OrderInfo string // 订单描述,展示在网关收银台
	IPAddr    string // 发起支付的客户端IP
}

// CallbackData 网关回调验签通过后解析出的数据
type CallbackData struct {
	TxnRef       string // 商户订单号
	Amount       int64  // 回调金额,单位VND
	ResponseCode string // 网关响应码,"00"表示成功
	GatewayTxnNo string // 网关侧交易号
	BankCode     string // 支付银行代码
}

// Success 回调是否表示支付成功
func (d *CallbackData) Success() bool {
	return d.ResponseCode == ResponseCodeSuccess
}

// QueryResult 网关交易查询结果(对账用)
type QueryResult struct {
	TxnRef       string
	ResponseCode string
	GatewayTxnNo string
	Amount       int64
}

// Gateway 支付网关抽象
//
// 领域层只依赖该接口,VNPay的签名、报文格式等细节
// 由infrastructure/gateway实现。
type Gateway interface {
	// BuildPaymentURL 构建跳转到网关收银台的支付链接
	BuildPaymentURL(ctx context.Context, req PayURLRequest) (string, error)

	// VerifyCallback 校验回调签名并解析参数
	// 验签失败返回ErrInvalidSignature,调用方必须拒绝处理
	VerifyCallback(params map[string]string) (*CallbackData, error)

	// QueryTransaction 主动查询网关侧交易状态
	// txnDate为创建支付单的时间,网关按此定位交易
	QueryTransaction(ctx context.Context, txnRef string, txnDate time.Time) (*QueryResult, error)
}

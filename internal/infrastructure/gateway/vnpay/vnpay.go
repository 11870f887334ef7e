// Package vnpay 实现VNPay支付网关的对接
//
// 对接三个能力:
// 1. 构建收银台跳转URL(签名的GET参数)
// 2. 回调验签与解析(IPN/Return URL共用)
// 3. 交易主动查询querydr(对账任务使用,熔断器保护)
package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// 网关协议常量
const (
	vnpVersion    = "2.1.0"
	vnpCommandPay = "pay"
	vnpCommandQry = "querydr"
	vnpCurrCode   = "VND"
	vnpOrderType  = "billpayment"
	vnpLocale     = "vn"

	// dateLayout 网关要求的时间格式(胡志明时区)
	dateLayout = "20060102150405"

	// payExpire 收银台链接有效期
	payExpire = 15 * time.Minute
)

// Client VNPay网关客户端,实现payment.Gateway接口
type Client struct {
	cfg        config.VNPayConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	loc        *time.Location
	now        func() time.Time
}

// NewClient 创建VNPay客户端
// querydr接口走外网且网关偶发超时,用熔断器保护对账任务
func NewClient(cfg config.VNPayConfig) *Client {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*3600)
	}

	breaker := circuitbreaker.NewCircuitBreaker("vnpay-query", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	breaker.SetStateChangeCallback(func(name string, _, to circuitbreaker.State) {
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		loc:        loc,
		now:        time.Now,
	}
}

// BuildPaymentURL 构建收银台跳转URL
// 金额按网关要求放大100倍(VND无小数位)
func (c *Client) BuildPaymentURL(_ context.Context, req payment.PayURLRequest) (string, error) {
	if req.TxnRef == "" || req.Amount <= 0 {
		return "", apperrors.New(apperrors.ErrCodeInvalidParams, "支付参数不完整")
	}

	now := c.now().In(c.loc)
	params := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    vnpCommandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   vnpCurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  vnpOrderType,
		"vnp_Locale":     vnpLocale,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": now.Format(dateLayout),
		"vnp_ExpireDate": now.Add(payExpire).Format(dateLayout),
	}

	// 查询串与待签名串同构,直接复用
	query := buildHashData(params)
	secureHash := hmacSHA512(c.cfg.SecretKey, query)

	return c.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + secureHash, nil
}

// VerifyCallback 校验回调签名并解析参数
// 验签失败返回ErrInvalidSignature,调用方必须拒绝处理
func (c *Client) VerifyCallback(params map[string]string) (*payment.CallbackData, error) {
	receivedHash := params[paramSecureHash]
	if !verifySignature(c.cfg.SecretKey, params, receivedHash) {
		return nil, payment.ErrInvalidSignature
	}

	// vnp_Amount是放大100倍后的值
	rawAmount, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil || rawAmount%100 != 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "回调金额格式非法")
	}

	txnRef := params["vnp_TxnRef"]
	if txnRef == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "回调缺少商户订单号")
	}

	return &payment.CallbackData{
		TxnRef:       txnRef,
		Amount:       rawAmount / 100,
		ResponseCode: params["vnp_ResponseCode"],
		GatewayTxnNo: params["vnp_TransactionNo"],
		BankCode:     params["vnp_BankCode"],
	}, nil
}

// queryRequest querydr请求报文
type queryRequest struct {
	RequestID       string `json:"vnp_RequestId"`
	Version         string `json:"vnp_Version"`
	Command         string `json:"vnp_Command"`
	TmnCode         string `json:"vnp_TmnCode"`
	TxnRef          string `json:"vnp_TxnRef"`
	OrderInfo       string `json:"vnp_OrderInfo"`
	TransactionDate string `json:"vnp_TransactionDate"`
	CreateDate      string `json:"vnp_CreateDate"`
	IPAddr          string `json:"vnp_IpAddr"`
	SecureHash      string `json:"vnp_SecureHash"`
}

// queryResponse querydr响应报文
type queryResponse struct {
	ResponseCode      string `json:"vnp_ResponseCode"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	Message           string `json:"vnp_Message"`
}

// QueryTransaction 向网关查询交易状态(对账用)
// querydr的签名规则与pay不同:固定字段顺序用|连接后HMAC
func (c *Client) QueryTransaction(ctx context.Context, txnRef string, txnDate time.Time) (*payment.QueryResult, error) {
	var result *payment.QueryResult

	err := c.breaker.Execute(func() error {
		now := c.now().In(c.loc)
		req := queryRequest{
			RequestID:       uuid.NewString(),
			Version:         vnpVersion,
			Command:         vnpCommandQry,
			TmnCode:         c.cfg.TmnCode,
			TxnRef:          txnRef,
			OrderInfo:       "Doi soat giao dich " + txnRef,
			TransactionDate: txnDate.In(c.loc).Format(dateLayout),
			CreateDate:      now.Format(dateLayout),
			IPAddr:          "127.0.0.1",
		}

		hashData := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s",
			req.RequestID, req.Version, req.Command, req.TmnCode,
			req.TxnRef, req.TransactionDate, req.CreateDate, req.IPAddr, req.OrderInfo)
		req.SecureHash = hmacSHA512(c.cfg.SecretKey, hashData)

		body, err := json.Marshal(req)
		if err != nil {
			return apperrors.Wrap(err, "序列化查询请求失败")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
		if err != nil {
			return apperrors.Wrap(err, "构建查询请求失败")
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return apperrors.Wrap(err, "网关查询请求失败")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return apperrors.New(apperrors.ErrCodeInternal, "网关查询返回异常状态: "+resp.Status)
		}

		var qr queryResponse
		if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
			return apperrors.Wrap(err, "解析查询响应失败")
		}

		amount := int64(0)
		if qr.Amount != "" {
			if raw, err := strconv.ParseInt(qr.Amount, 10, 64); err == nil {
				amount = raw / 100
			}
		}

		result = &payment.QueryResult{
			TxnRef:       qr.TxnRef,
			ResponseCode: qr.TransactionStatus,
			GatewayTxnNo: qr.TransactionNo,
			Amount:       amount,
		}
		return nil
	})
	switch {
	case err == circuitbreaker.ErrOpenState:
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, "vnpay-query", "rejected")
	case err != nil:
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, "vnpay-query", "failure")
	default:
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, "vnpay-query", "success")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// 保证Client满足payment.Gateway
var _ payment.Gateway = (*Client)(nil)

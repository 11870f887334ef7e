package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// PaymentHandler 支付HTTP处理器
// 读者侧:发起网关支付、取消支付、缴纳罚款、查自己的支付和罚款
// 网关侧:Return URL(展示)、IPN(可信确认)
// 馆员侧:现金确认、罚款减免、待收现金列表、滞留单对账
type PaymentHandler struct {
	createURLUseCase   *apppayment.CreatePaymentURLUseCase
	callbackUseCase    *apppayment.GatewayCallbackUseCase
	confirmCashUseCase *apppayment.ConfirmCashUseCase
	cancelUseCase      *apppayment.CancelPaymentUseCase
	payFineUseCase     *apppayment.PayFineUseCase
	waiveFineUseCase   *apppayment.WaiveFineUseCase
	reconcileUseCase   *apppayment.ReconcileStaleUseCase
	queryUseCase       *apppayment.QueryUseCase
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(
	createURLUseCase *apppayment.CreatePaymentURLUseCase,
	callbackUseCase *apppayment.GatewayCallbackUseCase,
	confirmCashUseCase *apppayment.ConfirmCashUseCase,
	cancelUseCase *apppayment.CancelPaymentUseCase,
	payFineUseCase *apppayment.PayFineUseCase,
	waiveFineUseCase *apppayment.WaiveFineUseCase,
	reconcileUseCase *apppayment.ReconcileStaleUseCase,
	queryUseCase *apppayment.QueryUseCase,
) *PaymentHandler {
	return &PaymentHandler{
		createURLUseCase:   createURLUseCase,
		callbackUseCase:    callbackUseCase,
		confirmCashUseCase: confirmCashUseCase,
		cancelUseCase:      cancelUseCase,
		payFineUseCase:     payFineUseCase,
		waiveFineUseCase:   waiveFineUseCase,
		reconcileUseCase:   reconcileUseCase,
		queryUseCase:       queryUseCase,
	}
}

// CreatePaymentURL 发起网关支付
// @Summary      发起网关支付
// @Description  为待支付的VNPAY支付单生成网关跳转URL
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付单ID"
// @Success      200 {object} response.Response{data=dto.CreatePaymentURLResponse} "URL已生成"
// @Failure      409 {object} response.Response "支付单已处理/支付方式不符"
// @Router       /api/v1/payments/{id}/url [post]
func (h *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.createURLUseCase.Execute(c.Request.Context(), middleware.GetPatronID(c), id, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CreatePaymentURLResponse{
		PaymentID:  result.PaymentID,
		TxnRef:     result.TxnRef,
		Amount:     result.Amount,
		PaymentURL: result.PaymentURL,
	})
}

// queryParams 把回调查询串压平成map(VNPay同名参数不会重复)
func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// VNPayReturn 网关支付结果页(Return URL)
// @Summary      网关支付结果页
// @Description  浏览器跳转回来的展示入口。处理逻辑与IPN相同且幂等，先到者结算，后到者收到replay
// @Tags         支付
// @Produce      json
// @Success      200 {object} response.Response{data=dto.PaymentResultResponse} "处理完成"
// @Failure      400 {object} response.Response "验签失败"
// @Router       /api/v1/payments/vnpay/return [get]
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	outcome, err := h.callbackUseCase.Execute(c.Request.Context(), queryParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.PaymentResultResponse{
		Result:    outcome.Result,
		TxnRef:    outcome.TxnRef,
		PaymentID: outcome.PaymentID,
		Status:    outcome.Status.String(),
	})
}

// VNPayIPN 网关服务器通知(IPN)
// @Summary      网关服务器通知
// @Description  支付结果的可信确认入口。应答格式按网关约定返回RspCode，"00"以外网关会重发
// @Tags         支付
// @Produce      json
// @Success      200 {object} dto.GatewayCallbackResponse "已应答"
// @Router       /api/v1/payments/vnpay/ipn [get]
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	outcome, err := h.callbackUseCase.Execute(c.Request.Context(), queryParams(c))
	// IPN必须返回HTTP 200和网关约定的应答体,否则网关会持续重发
	c.JSON(http.StatusOK, ipnResponse(outcome, err))
}

// ipnResponse 把处理结果映射为网关约定的应答码
func ipnResponse(outcome *apppayment.CallbackOutcome, err error) *dto.GatewayCallbackResponse {
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return &dto.GatewayCallbackResponse{RspCode: "97", Message: "Invalid Checksum"}
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case apperrors.ErrCodePaymentNotFound:
				return &dto.GatewayCallbackResponse{RspCode: "01", Message: "Order Not Found"}
			case apperrors.ErrCodeInvalidParams:
				return &dto.GatewayCallbackResponse{RspCode: "04", Message: "Invalid Amount"}
			}
		}
		return &dto.GatewayCallbackResponse{RspCode: "99", Message: "Unknown Error"}
	}
	if outcome.Result == apppayment.CallbackResultReplay {
		return &dto.GatewayCallbackResponse{RspCode: "02", Message: "Order Already Confirmed"}
	}
	return &dto.GatewayCallbackResponse{RspCode: "00", Message: "Confirm Success"}
}

// Cancel 取消支付
// @Summary      取消支付
// @Description  读者取消待支付的支付单；押金单取消会释放锁定的副本
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付单ID"
// @Success      200 {object} response.Response "已取消"
// @Failure      409 {object} response.Response "支付单已处理"
// @Router       /api/v1/payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.cancelUseCase.Execute(c.Request.Context(), middleware.GetPatronID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Get 支付单详情
// @Summary      支付单详情
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付单ID"
// @Success      200 {object} response.Response{data=dto.PaymentResponse} "查询成功"
// @Router       /api/v1/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	requirePatronID := middleware.GetPatronID(c)
	if user.Role(middleware.GetRole(c)).CanOperateDesk() {
		requirePatronID = 0
	}

	p, err := h.queryUseCase.GetPayment(c.Request.Context(), id, requirePatronID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toPaymentResponse(p))
}

// MyPayments 我的支付记录
// @Summary      我的支付记录
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/payments/my [get]
func (h *PaymentHandler) MyPayments(c *gin.Context) {
	page, pageSize := pageDefaults(
		parseQueryInt(c, "page"), parseQueryInt(c, "page_size"))

	payments, total, err := h.queryUseCase.ListPaymentsByPatron(
		c.Request.Context(), middleware.GetPatronID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toPaymentResponses(payments), total, page, pageSize)
}

// PayFine 缴纳罚款
// @Summary      缴纳罚款
// @Description  为未缴罚款单开支付单；CASH到柜台确认，VNPAY返回网关URL
// @Tags         罚款
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款单ID"
// @Param        request body dto.PayFineRequest true "支付方式"
// @Success      200 {object} response.Response{data=dto.PayFineResponse} "支付单已创建"
// @Failure      409 {object} response.Response "罚款单已结清"
// @Router       /api/v1/fines/{id}/pay [post]
func (h *PaymentHandler) PayFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.PayFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.payFineUseCase.Execute(
		c.Request.Context(), middleware.GetPatronID(c), id, payment.Method(req.Method), c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.PayFineResponse{
		PaymentID:  result.PaymentID,
		TxnRef:     result.TxnRef,
		Amount:     result.Amount,
		PaymentURL: result.PaymentURL,
	})
}

// MyFines 我的罚款
// @Summary      我的罚款
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        status query string false "状态过滤(UNPAID/PAID/WAIVED)"
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/fines/my [get]
func (h *PaymentHandler) MyFines(c *gin.Context) {
	var req dto.ListFinesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}
	page, pageSize := pageDefaults(req.Page, req.PageSize)

	fines, total, err := h.queryUseCase.ListFinesByPatron(
		c.Request.Context(), middleware.GetPatronID(c), payment.FineStatus(req.Status), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toFineResponses(fines), total, page, pageSize)
}

// UnpaidFineTotal 未缴罚款总额
// @Summary      未缴罚款总额
// @Description  读者当前未缴罚款合计(VND)，非零时无法借书
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=int64} "查询成功"
// @Router       /api/v1/fines/my/unpaid-total [get]
func (h *PaymentHandler) UnpaidFineTotal(c *gin.Context) {
	total, err := h.queryUseCase.UnpaidFineTotal(c.Request.Context(), middleware.GetPatronID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, total)
}

// WaiveFine 减免罚款(馆员)
// @Summary      减免罚款
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款单ID"
// @Success      200 {object} response.Response{data=dto.FineResponse} "已减免"
// @Failure      409 {object} response.Response "罚款单已结清"
// @Router       /api/v1/desk/fines/{id}/waive [post]
func (h *PaymentHandler) WaiveFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	f, err := h.waiveFineUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toFineResponse(f))
}

// ConfirmCash 现金确认(馆员)
// @Summary      现金确认
// @Description  馆员收到现金后确认到账：押金单激活借阅，罚款单标记缴清
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付单ID"
// @Success      200 {object} response.Response{data=dto.PaymentResponse} "确认成功"
// @Failure      409 {object} response.Response "支付单已处理/支付方式不符"
// @Router       /api/v1/desk/payments/{id}/confirm-cash [post]
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.confirmCashUseCase.Execute(c.Request.Context(), middleware.GetPatronID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toPaymentResponse(p))
}

// PendingCash 待收现金列表(馆员)
// @Summary      待收现金列表
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/desk/payments/pending-cash [get]
func (h *PaymentHandler) PendingCash(c *gin.Context) {
	page, pageSize := pageDefaults(
		parseQueryInt(c, "page"), parseQueryInt(c, "page_size"))

	payments, total, err := h.queryUseCase.ListPendingCash(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toPaymentResponses(payments), total, page, pageSize)
}

// Reconcile 滞留单对账(馆员/定时任务)
// @Summary      滞留单对账
// @Description  查询网关补结超时未收到回调的网关支付单：已支付的补确认，未支付的释放资源
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.ReconcileResponse} "对账完成"
// @Router       /api/v1/desk/payments/reconcile [post]
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	result, err := h.reconcileUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.ReconcileResponse{
		Scanned:   result.Scanned,
		Confirmed: result.Confirmed,
		Released:  result.Released,
		Skipped:   result.Skipped,
	})
}

func toPaymentResponses(payments []*payment.LoanPayment) []dto.PaymentResponse {
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, *toPaymentResponse(p))
	}
	return out
}

func toPaymentResponse(p *payment.LoanPayment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:           p.ID,
		LoanID:       p.LoanID,
		FineID:       p.FineID,
		PatronID:     p.PatronID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		Status:       string(p.Status),
		TxnRef:       p.TxnRef,
		GatewayTxnNo: p.GatewayTxnNo,
		BankCode:     p.BankCode,
		CreatedAt:    p.CreatedAt.Format(timeLayout),
	}
	if p.PaidAt != nil {
		resp.PaidAt = p.PaidAt.Format(timeLayout)
	}
	return resp
}

func toFineResponses(fines []*payment.Fine) []dto.FineResponse {
	out := make([]dto.FineResponse, 0, len(fines))
	for _, f := range fines {
		out = append(out, *toFineResponse(f))
	}
	return out
}

func toFineResponse(f *payment.Fine) *dto.FineResponse {
	resp := &dto.FineResponse{
		ID:        f.ID,
		LoanID:    f.LoanID,
		PatronID:  f.PatronID,
		Amount:    f.Amount,
		Reason:    f.Reason,
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt.Format(timeLayout),
	}
	if f.PaidAt != nil {
		resp.PaidAt = f.PaidAt.Format(timeLayout)
	}
	return resp
}

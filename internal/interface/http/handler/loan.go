package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	loandomain "github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// LoanHandler 借阅HTTP处理器
// 读者侧:借书、续借、申请归还、查自己的借阅
// 馆员侧:确认/驳回归还、待确认列表、逾期扫描
type LoanHandler struct {
	borrowUseCase        *apploan.BorrowBookUseCase
	renewUseCase         *apploan.RenewLoanUseCase
	requestReturnUseCase *apploan.RequestReturnUseCase
	confirmReturnUseCase *apploan.ConfirmReturnUseCase
	overdueScanUseCase   *apploan.OverdueScanUseCase
	queryUseCase         *apploan.QueryUseCase
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(
	borrowUseCase *apploan.BorrowBookUseCase,
	renewUseCase *apploan.RenewLoanUseCase,
	requestReturnUseCase *apploan.RequestReturnUseCase,
	confirmReturnUseCase *apploan.ConfirmReturnUseCase,
	overdueScanUseCase *apploan.OverdueScanUseCase,
	queryUseCase *apploan.QueryUseCase,
) *LoanHandler {
	return &LoanHandler{
		borrowUseCase:        borrowUseCase,
		renewUseCase:         renewUseCase,
		requestReturnUseCase: requestReturnUseCase,
		confirmReturnUseCase: confirmReturnUseCase,
		overdueScanUseCase:   overdueScanUseCase,
		queryUseCase:         queryUseCase,
	}
}

// Borrow 借书
// @Summary      借书
// @Description  锁定一个在架副本，创建待支付借阅单和押金支付单
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BorrowBookRequest true "借书信息"
// @Success      200 {object} response.Response{data=dto.BorrowBookResponse} "借书单已创建"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "无可借副本/已借此书/有未缴罚款"
// @Router       /api/v1/loans [post]
func (h *LoanHandler) Borrow(c *gin.Context) {
	var req dto.BorrowBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.borrowUseCase.Execute(c.Request.Context(), apploan.BorrowBookRequest{
		PatronID: middleware.GetPatronID(c),
		BookID:   req.BookID,
		Method:   payment.Method(req.Method),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.BorrowBookResponse{
		LoanID:        result.LoanID,
		PaymentID:     result.PaymentID,
		TxnRef:        result.TxnRef,
		CopyBarcode:   result.CopyBarcode,
		Status:        result.Status,
		DepositAmount: result.DepositAmount,
		DueDate:       result.DueDate,
	})
}

// BorrowDirect 柜台直借
// @Summary      柜台直借
// @Description  读者当面付押金或免押金时由馆员直接建立借阅，立即生效
// @Tags         柜台
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.DirectBorrowRequest true "直借信息"
// @Success      200 {object} response.Response{data=dto.BorrowBookResponse} "借阅已生效"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "无可借副本/已借此书"
// @Router       /api/v1/desk/loans [post]
func (h *LoanHandler) BorrowDirect(c *gin.Context) {
	var req dto.DirectBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.borrowUseCase.ExecuteDirect(c.Request.Context(), req.PatronID, req.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.BorrowBookResponse{
		LoanID:      result.LoanID,
		CopyBarcode: result.CopyBarcode,
		Status:      result.Status,
		DueDate:     result.DueDate,
	})
}

// Renew 续借
// @Summary      续借
// @Description  借期顺延，续借次数受上限约束，逾期或待确认的借阅单不可续借
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅单ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse} "续借成功"
// @Failure      409 {object} response.Response "续借次数已达上限/状态不允许"
// @Router       /api/v1/loans/{id}/renew [post]
func (h *LoanHandler) Renew(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.renewUseCase.Execute(c.Request.Context(), middleware.GetPatronID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toLoanResponse(l))
}

// RequestReturn 申请归还
// @Summary      申请归还
// @Description  读者发起归还申请，借阅单转入待确认，待馆员验书
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅单ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse} "申请成功"
// @Router       /api/v1/loans/{id}/return-request [post]
func (h *LoanHandler) RequestReturn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.requestReturnUseCase.Execute(c.Request.Context(), middleware.GetPatronID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toLoanResponse(l))
}

// MyLoans 我的借阅
// @Summary      我的借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        status query string false "状态过滤"
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/loans/my [get]
func (h *LoanHandler) MyLoans(c *gin.Context) {
	var req dto.ListLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	page, pageSize := pageDefaults(req.Page, req.PageSize)
	loans, total, err := h.queryUseCase.ListByPatron(
		c.Request.Context(), middleware.GetPatronID(c), statusFilter(req.Status), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toLoanResponses(loans), total, page, pageSize)
}

// Get 借阅单详情
// @Summary      借阅单详情
// @Description  读者只能查自己的借阅单，馆员可查任意借阅单
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅单ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse} "查询成功"
// @Failure      403 {object} response.Response "无权查看"
// @Router       /api/v1/loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// 馆员不受归属限制
	requirePatronID := middleware.GetPatronID(c)
	if user.Role(middleware.GetRole(c)).CanOperateDesk() {
		requirePatronID = 0
	}

	l, err := h.queryUseCase.GetByID(c.Request.Context(), id, requirePatronID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toLoanResponse(l))
}

// ConfirmReturn 确认归还(馆员)
// @Summary      确认归还
// @Description  馆员验书后确认归还：结算逾期/破损罚金，副本回架或转入修复
// @Tags         柜台
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅单ID"
// @Param        request body dto.ConfirmReturnRequest true "验书结果"
// @Success      200 {object} response.Response{data=dto.ReturnBookResponse} "归还完成"
// @Router       /api/v1/desk/loans/{id}/confirm-return [post]
func (h *LoanHandler) ConfirmReturn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ConfirmReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.confirmReturnUseCase.Confirm(c.Request.Context(), apploan.ConfirmRequest{
		LoanID:     id,
		OperatorID: middleware.GetPatronID(c),
		Damaged:    req.Damaged,
		DamageFine: req.DamageFine,
		Notes:      req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.ReturnBookResponse{
		LoanID:      result.LoanID,
		Status:      result.Status,
		OnTime:      result.OnTime,
		DaysOverdue: result.DaysOverdue,
		OverdueFine: result.OverdueFine,
		DamageFine:  result.DamageFine,
		FineID:      result.FineID,
		ReturnedAt:  result.ReturnedAt,
	})
}

// RejectReturn 驳回归还申请(馆员)
// @Summary      驳回归还申请
// @Description  书未送达或不符，借阅单退回借出中
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅单ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse} "已驳回"
// @Router       /api/v1/desk/loans/{id}/reject-return [post]
func (h *LoanHandler) RejectReturn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.confirmReturnUseCase.Reject(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toLoanResponse(l))
}

// PendingReturns 待确认归还列表(馆员)
// @Summary      待确认归还列表
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/desk/loans/pending-returns [get]
func (h *LoanHandler) PendingReturns(c *gin.Context) {
	var req dto.ListLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	page, pageSize := pageDefaults(req.Page, req.PageSize)
	loans, total, err := h.queryUseCase.ListPendingReturns(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toLoanResponses(loans), total, page, pageSize)
}

// List 借阅单列表(馆员)
// @Summary      借阅单列表
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        status query string false "状态过滤"
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/desk/loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	var req dto.ListLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	page, pageSize := pageDefaults(req.Page, req.PageSize)
	loans, total, err := h.queryUseCase.List(c.Request.Context(), statusFilter(req.Status), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, toLoanResponses(loans), total, page, pageSize)
}

// OverdueScan 逾期扫描(馆员/定时任务)
// @Summary      逾期扫描
// @Description  扫描过期未还的借阅单，标记逾期并发布通知事件
// @Tags         柜台
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.OverdueScanResponse} "扫描完成"
// @Router       /api/v1/desk/loans/overdue-scan [post]
func (h *LoanHandler) OverdueScan(c *gin.Context) {
	result, err := h.overdueScanUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.OverdueScanResponse{
		Scanned: result.Scanned,
		Marked:  result.Marked,
	})
}

// pageDefaults 补齐分页默认值,保证响应回显的页码与实际查询一致
func pageDefaults(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func statusFilter(status string) []loandomain.Status {
	if status == "" {
		return nil
	}
	return []loandomain.Status{loandomain.Status(status)}
}

func toLoanResponses(loans []*loandomain.Loan) []dto.LoanResponse {
	out := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, *toLoanResponse(l))
	}
	return out
}

func toLoanResponse(l *loandomain.Loan) *dto.LoanResponse {
	resp := &dto.LoanResponse{
		ID:            l.ID,
		PatronID:      l.PatronID,
		BookID:        l.BookID,
		CopyID:        l.CopyID,
		Status:        string(l.Status),
		BorrowedAt:    l.BorrowedAt.Format(timeLayout),
		DueDate:       l.DueDate.Format(timeLayout),
		RenewalCount:  l.RenewalCount,
		DepositAmount: l.DepositAmount,
		FineAmount:    l.FineAmount,
		Notes:         l.Notes,
	}
	if l.ReturnDate != nil {
		resp.ReturnDate = l.ReturnDate.Format(timeLayout)
	}
	return resp
}

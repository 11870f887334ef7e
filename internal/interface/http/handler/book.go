package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// timeLayout 响应中统一的时间格式
const timeLayout = "2006-01-02 15:04:05"

// BookHandler 馆藏HTTP处理器
type BookHandler struct {
	registerUseCase *appbook.RegisterBookUseCase
	listUseCase     *appbook.ListBooksUseCase
	getUseCase      *appbook.GetBookUseCase
	copiesUseCase   *appbook.ManageCopiesUseCase
}

// NewBookHandler 创建馆藏处理器
func NewBookHandler(
	registerUseCase *appbook.RegisterBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	getUseCase *appbook.GetBookUseCase,
	copiesUseCase *appbook.ManageCopiesUseCase,
) *BookHandler {
	return &BookHandler{
		registerUseCase: registerUseCase,
		listUseCase:     listUseCase,
		getUseCase:      getUseCase,
		copiesUseCase:   copiesUseCase,
	}
}

// parseIDParam 解析路径中的数字ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, 40900, "参数错误: 无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// parseQueryInt 解析查询串中的数字参数,非法或缺省返回0
func parseQueryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

// Register 图书入编
// @Summary      图书入编
// @Description  登记新图书，可同时登记初始副本
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=dto.RegisterBookResponse} "入编成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) Register(c *gin.Context) {
	var req dto.RegisterBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appbook.RegisterBookRequest{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		Category:      req.Category,
		CoverURL:      req.CoverURL,
		Description:   req.Description,
		InitialCopies: req.InitialCopies,
		Condition:     req.Condition,
		Location:      req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.RegisterBookResponse{
		ID:           result.ID,
		ISBN:         result.ISBN,
		Title:        result.Title,
		CopyBarcodes: result.CopyBarcodes,
	})
}

// List 目录查询
// @Summary      目录查询
// @Description  分页查询图书目录，支持关键词、分类、仅看可借过滤
// @Tags         馆藏
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        keyword query string false "搜索关键词(标题/作者/ISBN)"
// @Param        category query string false "分类"
// @Param        only_available query bool false "仅显示有可借副本的图书"
// @Success      200 {object} response.Response{data=dto.ListBooksResponse} "查询成功"
// @Router       /api/v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:          req.Page,
		PageSize:      req.PageSize,
		Keyword:       req.Keyword,
		Category:      req.Category,
		OnlyAvailable: req.OnlyAvailable,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.BookListItem, 0, len(result.List))
	for _, b := range result.List {
		list = append(list, dto.BookListItem{
			ID:              b.ID,
			ISBN:            b.ISBN,
			Title:           b.Title,
			Author:          b.Author,
			Publisher:       b.Publisher,
			Category:        b.Category,
			CoverURL:        b.CoverURL,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
		})
	}

	response.Success(c, &dto.ListBooksResponse{
		List:       list,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Get 图书详情
// @Summary      图书详情
// @Tags         馆藏
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse} "查询成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	b, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		Category:        b.Category,
		CoverURL:        b.CoverURL,
		Description:     b.Description,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt.Format(timeLayout),
		UpdatedAt:       b.UpdatedAt.Format(timeLayout),
	})
}

// AddCopies 批量登记副本
// @Summary      批量登记副本
// @Description  为指定图书批量登记副本，条码自动顺延生成
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.AddCopiesRequest true "副本信息"
// @Success      200 {object} response.Response{data=[]dto.CopyResponse} "登记成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/copies [post]
func (h *BookHandler) AddCopies(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	copies, err := h.copiesUseCase.AddCopies(c.Request.Context(), appbook.AddCopiesRequest{
		BookID:    id,
		Count:     req.Count,
		Condition: req.Condition,
		Location:  req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toCopyResponses(copies))
}

// ListCopies 副本列表
// @Summary      副本列表
// @Tags         馆藏
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=[]dto.CopyResponse} "查询成功"
// @Router       /api/v1/books/{id}/copies [get]
func (h *BookHandler) ListCopies(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	copies, err := h.copiesUseCase.ListCopies(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toCopyResponses(copies))
}

// GetCopyByBarcode 按条码查副本
// @Summary      按条码查副本
// @Description  馆员扫码查询副本状态
// @Tags         馆藏
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "副本条码"
// @Success      200 {object} response.Response{data=dto.CopyResponse} "查询成功"
// @Failure      404 {object} response.Response "副本不存在"
// @Router       /api/v1/copies/{barcode} [get]
func (h *BookHandler) GetCopyByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		response.ErrorWithCode(c, 40900, "参数错误: 缺少条码")
		return
	}

	info, err := h.copiesUseCase.GetByBarcode(c.Request.Context(), barcode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toCopyResponse(*info))
}

// RemoveCopy 下架副本
// @Summary      下架副本
// @Description  软删除副本(遗失/报废)，在借副本不可下架
// @Tags         馆藏
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Success      200 {object} response.Response "下架成功"
// @Failure      409 {object} response.Response "副本在借中"
// @Router       /api/v1/copies/{id} [delete]
func (h *BookHandler) RemoveCopy(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.copiesUseCase.RemoveCopy(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

func toCopyResponses(copies []appbook.CopyInfo) []dto.CopyResponse {
	out := make([]dto.CopyResponse, 0, len(copies))
	for _, info := range copies {
		out = append(out, toCopyResponse(info))
	}
	return out
}

func toCopyResponse(info appbook.CopyInfo) dto.CopyResponse {
	return dto.CopyResponse{
		ID:         info.ID,
		BookID:     info.BookID,
		Barcode:    info.Barcode,
		CopyNumber: info.CopyNumber,
		Status:     info.Status,
		Condition:  info.Condition,
		Location:   info.Location,
		Notes:      info.Notes,
	}
}

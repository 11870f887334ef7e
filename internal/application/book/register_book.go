package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// RegisterBookUseCase 图书入编用例
// 设计说明:
// 1. 应用层负责用例编排,协调领域服务完成业务流程
// 2. 输入输出使用DTO,与HTTP层解耦
type RegisterBookUseCase struct {
	bookService book.Service
}

// NewRegisterBookUseCase 创建图书入编用例
func NewRegisterBookUseCase(bookService book.Service) *RegisterBookUseCase {
	return &RegisterBookUseCase{bookService: bookService}
}

// RegisterBookRequest 图书入编请求DTO
type RegisterBookRequest struct {
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	Category    string
	CoverURL    string
	Description string
	// InitialCopies 入编时一并登记的副本数,0表示暂不登记
	InitialCopies int
	Condition     string
	Location      string
}

// RegisterBookResponse 图书入编响应DTO
type RegisterBookResponse struct {
	ID           uint     `json:"id"`
	ISBN         string   `json:"isbn"`
	Title        string   `json:"title"`
	CopyBarcodes []string `json:"copy_barcodes,omitempty"`
}

// Execute 执行图书入编
func (uc *RegisterBookUseCase) Execute(ctx context.Context, req RegisterBookRequest) (*RegisterBookResponse, error) {
	b, err := uc.bookService.RegisterBook(ctx, req.ISBN, req.Title, req.Author, req.Publisher, req.Category, req.CoverURL, req.Description)
	if err != nil {
		return nil, err
	}

	resp := &RegisterBookResponse{ID: b.ID, ISBN: b.ISBN, Title: b.Title}

	if req.InitialCopies > 0 {
		copies, err := uc.bookService.AddCopies(ctx, b.ID, req.InitialCopies, book.Condition(req.Condition), req.Location)
		if err != nil {
			return nil, err
		}
		for _, c := range copies {
			resp.CopyBarcodes = append(resp.CopyBarcodes, c.Barcode)
		}
	}
	return resp, nil
}

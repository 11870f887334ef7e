package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ManageCopiesUseCase 副本管理用例(馆员操作)
type ManageCopiesUseCase struct {
	bookService book.Service
}

// NewManageCopiesUseCase 创建副本管理用例
func NewManageCopiesUseCase(bookService book.Service) *ManageCopiesUseCase {
	return &ManageCopiesUseCase{bookService: bookService}
}

// AddCopiesRequest 批量登记副本请求DTO
type AddCopiesRequest struct {
	BookID    uint
	Count     int
	Condition string
	Location  string
}

// CopyInfo 副本DTO
type CopyInfo struct {
	ID         uint   `json:"id"`
	BookID     uint   `json:"book_id"`
	Barcode    string `json:"barcode"`
	CopyNumber int    `json:"copy_number"`
	Status     string `json:"status"`
	Condition  string `json:"condition"`
	Location   string `json:"location"`
	Notes      string `json:"notes,omitempty"`
}

// AddCopies 批量登记副本,条码自动顺延生成
func (uc *ManageCopiesUseCase) AddCopies(ctx context.Context, req AddCopiesRequest) ([]CopyInfo, error) {
	copies, err := uc.bookService.AddCopies(ctx, req.BookID, req.Count, book.Condition(req.Condition), req.Location)
	if err != nil {
		return nil, err
	}
	return toCopyInfos(copies), nil
}

// ListCopies 查询图书的全部副本
func (uc *ManageCopiesUseCase) ListCopies(ctx context.Context, bookID uint) ([]CopyInfo, error) {
	copies, err := uc.bookService.ListCopies(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return toCopyInfos(copies), nil
}

// GetByBarcode 按条码查副本(柜台扫码)
func (uc *ManageCopiesUseCase) GetByBarcode(ctx context.Context, barcode string) (*CopyInfo, error) {
	c, err := uc.bookService.GetCopyByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	info := toCopyInfo(c)
	return &info, nil
}

// RemoveCopy 下架并删除副本(借出中的副本不可删)
func (uc *ManageCopiesUseCase) RemoveCopy(ctx context.Context, copyID uint) error {
	return uc.bookService.DeleteCopy(ctx, copyID)
}

func toCopyInfos(copies []*book.BookCopy) []CopyInfo {
	infos := make([]CopyInfo, 0, len(copies))
	for _, c := range copies {
		infos = append(infos, toCopyInfo(c))
	}
	return infos
}

func toCopyInfo(c *book.BookCopy) CopyInfo {
	return CopyInfo{
		ID:         c.ID,
		BookID:     c.BookID,
		Barcode:    c.Barcode,
		CopyNumber: c.CopyNumber,
		Status:     string(c.Status),
		Condition:  string(c.Condition),
		Location:   c.Location,
		Notes:      c.Notes,
	}
}

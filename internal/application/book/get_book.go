package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// GetBookUseCase 图书详情查询用例
type GetBookUseCase struct {
	bookService book.Service
}

func NewGetBookUseCase(bookService book.Service) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService}
}

// Execute 按ID查询图书详情
func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*book.Book, error) {
	return uc.bookService.GetBookByID(ctx, id)
}

// ByISBN 按ISBN查询图书详情
func (uc *GetBookUseCase) ByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	return uc.bookService.GetBookByISBN(ctx, isbn)
}

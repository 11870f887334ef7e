package book

import (
	"context"
	"fmt"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装跨实体的业务逻辑(书目+副本)和业务规则校验
// 2. 副本计数的重算收口在这里,仓储层不做计数维护
type Service interface {
	// RegisterBook 登记图书(入馆)
	// 业务规则:
	// - ISBN格式必须合法(10位或13位数字)
	// - ISBN不能重复
	RegisterBook(ctx context.Context, isbn, title, author, publisher, category, coverURL, description string) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// GetBookByISBN 根据ISBN获取图书
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)

	// UpdateBookInfo 更新图书信息
	UpdateBookInfo(ctx context.Context, id uint, title, author, publisher, category, description string) error

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// AddCopies 为图书批量添加副本
	// 条码自动生成:ISBN前8位(不足补图书ID) + "-C" + 三位序号
	AddCopies(ctx context.Context, bookID uint, count int, condition Condition, location string) ([]*BookCopy, error)

	// ListCopies 查询某本书的全部副本
	ListCopies(ctx context.Context, bookID uint) ([]*BookCopy, error)

	// GetCopyByBarcode 根据条码获取副本
	GetCopyByBarcode(ctx context.Context, barcode string) (*BookCopy, error)

	// SetCopyStatus 流转副本状态并重算所属图书的副本计数
	// 必须在调用方的事务内执行(借阅/归还流程)
	SetCopyStatus(ctx context.Context, copy *BookCopy, target CopyStatus) error

	// RecountCopies 重算某本书的副本计数
	RecountCopies(ctx context.Context, bookID uint) error

	// DeleteCopy 删除副本
	// 业务规则:外借中(BORROWED)的副本不能删除
	DeleteCopy(ctx context.Context, copyID uint) error
}

// service 领域服务实现
type service struct {
	repo     Repository
	copyRepo CopyRepository
}

// NewService 创建图书领域服务
func NewService(repo Repository, copyRepo CopyRepository) Service {
	return &service{repo: repo, copyRepo: copyRepo}
}

// RegisterBook 登记图书
func (s *service) RegisterBook(ctx context.Context, isbn, title, author, publisher, category, coverURL, description string) (*Book, error) {
	// 1. ISBN格式校验
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	// 2. 检查ISBN是否已存在
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && err != ErrBookNotFound {
		return nil, err
	}

	// 3. 创建图书实体并持久化
	b := NewBook(isbn, title, author, publisher, category, coverURL, description)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBookByISBN 根据ISBN获取图书
func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}
	return s.repo.FindByISBN(ctx, isbn)
}

// UpdateBookInfo 更新图书信息
func (s *service) UpdateBookInfo(ctx context.Context, id uint, title, author, publisher, category, description string) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	b.UpdateInfo(title, author, publisher, category, description)
	return s.repo.Update(ctx, b)
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// AddCopies 批量添加副本
func (s *service) AddCopies(ctx context.Context, bookID uint, count int, condition Condition, location string) ([]*BookCopy, error) {
	if count <= 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "副本数量必须大于0")
	}
	if condition != "" && !condition.Valid() {
		return nil, ErrInvalidCondition
	}

	b, err := s.repo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// 副本序号从当前最大值继续递增,条码随之生成
	maxNo, err := s.copyRepo.MaxCopyNumber(ctx, bookID)
	if err != nil {
		return nil, err
	}

	prefix := b.BarcodePrefix()
	copies := make([]*BookCopy, 0, count)
	for i := 1; i <= count; i++ {
		copyNumber := maxNo + i
		barcode := FormatBarcode(prefix, copyNumber)
		c := NewBookCopy(bookID, barcode, copyNumber, condition, location)
		if err := s.copyRepo.Create(ctx, c); err != nil {
			return nil, err
		}
		copies = append(copies, c)
	}

	// 重算副本计数
	if err := s.RecountCopies(ctx, bookID); err != nil {
		return nil, err
	}

	return copies, nil
}

// ListCopies 查询某本书的全部副本
func (s *service) ListCopies(ctx context.Context, bookID uint) ([]*BookCopy, error) {
	if _, err := s.repo.FindByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.copyRepo.ListByBookID(ctx, bookID)
}

// GetCopyByBarcode 根据条码获取副本
func (s *service) GetCopyByBarcode(ctx context.Context, barcode string) (*BookCopy, error) {
	return s.copyRepo.FindByBarcode(ctx, barcode)
}

// SetCopyStatus 流转副本状态并重算计数
func (s *service) SetCopyStatus(ctx context.Context, copy *BookCopy, target CopyStatus) error {
	if err := copy.TransitionTo(target); err != nil {
		return fmt.Errorf("副本%s状态流转失败(%s→%s): %w", copy.Barcode, copy.Status, target, err)
	}
	if err := s.copyRepo.Update(ctx, copy); err != nil {
		return err
	}
	return s.RecountCopies(ctx, copy.BookID)
}

// RecountCopies 重算某本书的副本计数
// 计数始终由副本状态统计得出,避免增减计数在并发下漂移
func (s *service) RecountCopies(ctx context.Context, bookID uint) error {
	total, available, err := s.copyRepo.CountByStatus(ctx, bookID)
	if err != nil {
		return err
	}
	return s.repo.UpdateCopyCounts(ctx, bookID, total, available)
}

// DeleteCopy 删除副本
func (s *service) DeleteCopy(ctx context.Context, copyID uint) error {
	c, err := s.copyRepo.FindByID(ctx, copyID)
	if err != nil {
		return err
	}

	// 外借中的副本不能删除,必须先归还
	if c.Status == CopyStatusBorrowed {
		return ErrCopyBorrowed
	}

	if err := s.copyRepo.Delete(ctx, copyID); err != nil {
		return err
	}
	return s.RecountCopies(ctx, c.BookID)
}

// isValidISBN 校验ISBN格式
// 支持ISBN-10/ISBN-13,允许分隔符(978-7-115-42802-8)
// 简化实现:只检查位数(生产环境应校验校验位)
func isValidISBN(isbn string) bool {
	clean := nonDigit.ReplaceAllString(isbn, "")
	length := len(clean)
	return length == 10 || length == 13
}

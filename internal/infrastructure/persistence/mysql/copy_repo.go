package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// copyRepository 副本仓储实现(MySQL)
type copyRepository struct {
	db *gorm.DB
}

// NewCopyRepository 创建副本仓储
func NewCopyRepository(db *gorm.DB) book.CopyRepository {
	return &copyRepository{db: db}
}

// Create 登记副本
func (r *copyRepository) Create(ctx context.Context, c *book.BookCopy) error {
	model := toCopyModel(c)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrBarcodeDuplicate
		}
		return apperrors.Wrap(err, "登记副本失败")
	}

	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找副本
func (r *copyRepository) FindByID(ctx context.Context, id uint) (*book.BookCopy, error) {
	var model BookCopyModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrCopyNotFound
		}
		return nil, apperrors.Wrap(err, "查询副本失败")
	}
	return toCopyEntity(&model), nil
}

// FindByBarcode 根据条码查找副本(柜台扫码)
func (r *copyRepository) FindByBarcode(ctx context.Context, barcode string) (*book.BookCopy, error) {
	var model BookCopyModel
	err := getDB(ctx, r.db).Where("barcode = ?", barcode).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrCopyNotFound
		}
		return nil, apperrors.Wrap(err, "查询副本失败")
	}
	return toCopyEntity(&model), nil
}

// ListByBookID 查询图书的全部副本(按副本序号排序)
func (r *copyRepository) ListByBookID(ctx context.Context, bookID uint) ([]*book.BookCopy, error) {
	var models []BookCopyModel
	err := getDB(ctx, r.db).
		Where("book_id = ?", bookID).
		Order("copy_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询副本列表失败")
	}

	copies := make([]*book.BookCopy, len(models))
	for i := range models {
		copies[i] = toCopyEntity(&models[i])
	}
	return copies, nil
}

// Update 更新副本
func (r *copyRepository) Update(ctx context.Context, c *book.BookCopy) error {
	model := toCopyModel(c)
	model.ID = c.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新副本失败")
	}

	c.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除副本(软删除)
func (r *copyRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&BookCopyModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除副本失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrCopyNotFound
	}
	return nil
}

// LockFirstAvailable 悲观锁定该图书序号最小的可借副本
// 借阅创建的核心查询:SELECT ... FOR UPDATE保证并发借阅
// 同一本书的最后一个副本时只有一个事务能拿到
func (r *copyRepository) LockFirstAvailable(ctx context.Context, bookID uint) (*book.BookCopy, error) {
	var model BookCopyModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("book_id = ? AND status = ?", bookID, string(book.CopyStatusAvailable)).
		Order("copy_number ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrNoAvailableCopy
		}
		return nil, apperrors.Wrap(err, "锁定可借副本失败")
	}
	return toCopyEntity(&model), nil
}

// LockByID 悲观锁定副本(归还/回调处理使用)
func (r *copyRepository) LockByID(ctx context.Context, id uint) (*book.BookCopy, error) {
	var model BookCopyModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrCopyNotFound
		}
		return nil, apperrors.Wrap(err, "锁定副本失败")
	}
	return toCopyEntity(&model), nil
}

// CountByStatus 统计图书的副本总数与可借数(重算回写用)
func (r *copyRepository) CountByStatus(ctx context.Context, bookID uint) (total, available int, err error) {
	db := getDB(ctx, r.db)

	var totalCount int64
	if err := db.Model(&BookCopyModel{}).
		Where("book_id = ?", bookID).
		Count(&totalCount).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "统计副本总数失败")
	}

	var availableCount int64
	if err := db.Model(&BookCopyModel{}).
		Where("book_id = ? AND status = ?", bookID, string(book.CopyStatusAvailable)).
		Count(&availableCount).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "统计可借副本数失败")
	}

	return int(totalCount), int(availableCount), nil
}

// MaxCopyNumber 图书当前最大的副本序号(含软删除,保证条码不复用)
func (r *copyRepository) MaxCopyNumber(ctx context.Context, bookID uint) (int, error) {
	var max *int
	err := getDB(ctx, r.db).
		Unscoped().
		Model(&BookCopyModel{}).
		Where("book_id = ?", bookID).
		Select("MAX(copy_number)").
		Scan(&max).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "查询副本序号失败")
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// toCopyModel 领域实体 → GORM模型
func toCopyModel(c *book.BookCopy) *BookCopyModel {
	return &BookCopyModel{
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

// toCopyEntity GORM模型 → 领域实体
func toCopyEntity(model *BookCopyModel) *book.BookCopy {
	return &book.BookCopy{
		ID:         model.ID,
		BookID:     model.BookID,
		Barcode:    model.Barcode,
		CopyNumber: model.CopyNumber,
		Status:     book.CopyStatus(model.Status),
		Condition:  book.Condition(model.Condition),
		Location:   model.Location,
		Notes:      model.Notes,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

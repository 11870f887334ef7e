package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// fineRepository 罚款单仓储实现(MySQL)
type fineRepository struct {
	db *gorm.DB
}

// NewFineRepository 创建罚款单仓储
func NewFineRepository(db *gorm.DB) payment.FineRepository {
	return &fineRepository{db: db}
}

// Create 创建罚款单
func (r *fineRepository) Create(ctx context.Context, f *payment.Fine) error {
	model := toFineModel(f)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建罚款单失败")
	}

	f.ID = model.ID
	f.CreatedAt = model.CreatedAt
	f.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找罚款单
func (r *fineRepository) FindByID(ctx context.Context, id uint) (*payment.Fine, error) {
	var model FineModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrFineNotFound
		}
		return nil, apperrors.Wrap(err, "查询罚款单失败")
	}
	return toFineEntity(&model), nil
}

// LockByID 悲观锁定罚款单(缴费/减免前必须加锁)
func (r *fineRepository) LockByID(ctx context.Context, id uint) (*payment.Fine, error) {
	var model FineModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrFineNotFound
		}
		return nil, apperrors.Wrap(err, "锁定罚款单失败")
	}
	return toFineEntity(&model), nil
}

// Update 更新罚款单
func (r *fineRepository) Update(ctx context.Context, f *payment.Fine) error {
	model := toFineModel(f)
	model.ID = f.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新罚款单失败")
	}

	f.UpdatedAt = model.UpdatedAt
	return nil
}

// ListByPatronID 读者的罚款记录(status为空时不过滤,分页)
func (r *fineRepository) ListByPatronID(ctx context.Context, patronID uint, status payment.FineStatus, page, pageSize int) ([]*payment.Fine, int64, error) {
	query := getDB(ctx, r.db).Model(&FineModel{}).Where("patron_id = ?", patronID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询罚款单总数失败")
	}

	var models []FineModel
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询罚款单列表失败")
	}

	fines := make([]*payment.Fine, len(models))
	for i := range models {
		fines[i] = toFineEntity(&models[i])
	}
	return fines, total, nil
}

// SumUnpaidByPatron 读者未缴罚款总额
func (r *fineRepository) SumUnpaidByPatron(ctx context.Context, patronID uint) (int64, error) {
	var sum *int64
	err := getDB(ctx, r.db).Model(&FineModel{}).
		Where("patron_id = ? AND status = ?", patronID, string(payment.FineStatusUnpaid)).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计未缴罚款失败")
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// toFineModel 领域实体 → GORM模型
func toFineModel(f *payment.Fine) *FineModel {
	return &FineModel{
		ID:       f.ID,
		LoanID:   f.LoanID,
		PatronID: f.PatronID,
		Amount:   f.Amount,
		Reason:   f.Reason,
		Status:   string(f.Status),
		PaidAt:   f.PaidAt,
	}
}

// toFineEntity GORM模型 → 领域实体
func toFineEntity(model *FineModel) *payment.Fine {
	return &payment.Fine{
		ID:        model.ID,
		LoanID:    model.LoanID,
		PatronID:  model.PatronID,
		Amount:    model.Amount,
		Reason:    model.Reason,
		Status:    payment.FineStatus(model.Status),
		PaidAt:    model.PaidAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

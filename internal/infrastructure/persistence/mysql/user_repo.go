package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// userRepository 读者仓储实现(MySQL)
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建读者仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建读者账号
func (r *userRepository) Create(ctx context.Context, p *user.Patron) error {
	model := toPatronModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建读者失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找读者
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.Patron, error) {
	var model PatronModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPatronNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}
	return toPatronEntity(&model), nil
}

// FindByEmail 根据邮箱查找读者(登录用)
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.Patron, error) {
	var model PatronModel
	err := getDB(ctx, r.db).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPatronNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}
	return toPatronEntity(&model), nil
}

// Update 更新读者信息
func (r *userRepository) Update(ctx context.Context, p *user.Patron) error {
	model := toPatronModel(p)
	model.ID = p.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新读者失败")
	}

	p.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除读者账号(软删除)
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&PatronModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除读者失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrPatronNotFound
	}
	return nil
}

// List 分页查询读者(馆员视角)
func (r *userRepository) List(ctx context.Context, page, pageSize int) ([]*user.Patron, int64, error) {
	query := getDB(ctx, r.db).Model(&PatronModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询读者总数失败")
	}

	var models []PatronModel
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询读者列表失败")
	}

	patrons := make([]*user.Patron, len(models))
	for i := range models {
		patrons[i] = toPatronEntity(&models[i])
	}
	return patrons, total, nil
}

// toPatronModel 领域实体 → GORM模型
func toPatronModel(p *user.Patron) *PatronModel {
	return &PatronModel{
		ID:       p.ID,
		Email:    p.Email,
		Password: p.Password,
		Name:     p.Name,
		Phone:    p.Phone,
		Role:     string(p.Role),
		Active:   p.Active,
	}
}

// toPatronEntity GORM模型 → 领域实体
func toPatronEntity(model *PatronModel) *user.Patron {
	return &user.Patron{
		ID:        model.ID,
		Email:     model.Email,
		Password:  model.Password,
		Name:      model.Name,
		Phone:     model.Phone,
		Role:      user.Role(model.Role),
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

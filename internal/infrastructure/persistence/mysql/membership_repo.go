package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/membership"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// tierRepository 会员等级仓储实现(MySQL)
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository 创建会员等级仓储
func NewTierRepository(db *gorm.DB) membership.TierRepository {
	return &tierRepository{db: db}
}

// Save 写入等级定义(名称冲突时跳过,保证种子写入幂等)
func (r *tierRepository) Save(ctx context.Context, t *membership.MembershipTier) error {
	model := toTierModel(t)

	err := getDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error
	if err != nil {
		return apperrors.Wrap(err, "写入会员等级失败")
	}

	if model.ID != 0 {
		t.ID = model.ID
	}
	return nil
}

// FindByID 根据ID查找等级
func (r *tierRepository) FindByID(ctx context.Context, id uint) (*membership.MembershipTier, error) {
	var model MembershipTierModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrTierNotFound
		}
		return nil, apperrors.Wrap(err, "查询会员等级失败")
	}
	return toTierEntity(&model), nil
}

// FindByName 根据名称查找等级
func (r *tierRepository) FindByName(ctx context.Context, name membership.TierLevel) (*membership.MembershipTier, error) {
	var model MembershipTierModel
	err := getDB(ctx, r.db).Where("name = ?", string(name)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrTierNotFound
		}
		return nil, apperrors.Wrap(err, "查询会员等级失败")
	}
	return toTierEntity(&model), nil
}

// ListAll 查询全部等级(按升级门槛升序,等级评定按此顺序遍历)
func (r *tierRepository) ListAll(ctx context.Context) ([]*membership.MembershipTier, error) {
	var models []MembershipTierModel
	err := getDB(ctx, r.db).Order("min_loans_required ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询会员等级列表失败")
	}

	tiers := make([]*membership.MembershipTier, len(models))
	for i := range models {
		tiers[i] = toTierEntity(&models[i])
	}
	return tiers, nil
}

// SeedMembershipTiers 写入默认等级种子数据(服务启动时调用,幂等)
func SeedMembershipTiers(ctx context.Context, repo membership.TierRepository) error {
	for _, t := range membership.DefaultTiers() {
		if err := repo.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// membershipRepository 会员记录仓储实现(MySQL)
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository 创建会员记录仓储
func NewMembershipRepository(db *gorm.DB) membership.Repository {
	return &membershipRepository{db: db}
}

// Create 创建会员记录
func (r *membershipRepository) Create(ctx context.Context, m *membership.UserMembership) error {
	model := toMembershipModel(m)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建会员记录失败")
	}

	m.ID = model.ID
	m.CreatedAt = model.CreatedAt
	m.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByPatronID 根据读者ID查找会员记录
func (r *membershipRepository) FindByPatronID(ctx context.Context, patronID uint) (*membership.UserMembership, error) {
	var model UserMembershipModel
	err := getDB(ctx, r.db).Where("patron_id = ?", patronID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(err, "查询会员记录失败")
	}
	return toMembershipEntity(&model), nil
}

// LockByPatronID 悲观锁定会员记录(积分累加防并发丢更新)
func (r *membershipRepository) LockByPatronID(ctx context.Context, patronID uint) (*membership.UserMembership, error) {
	var model UserMembershipModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("patron_id = ?", patronID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(err, "锁定会员记录失败")
	}
	return toMembershipEntity(&model), nil
}

// Update 更新会员记录
func (r *membershipRepository) Update(ctx context.Context, m *membership.UserMembership) error {
	model := toMembershipModel(m)
	model.ID = m.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新会员记录失败")
	}

	m.UpdatedAt = model.UpdatedAt
	return nil
}

// toTierModel 领域实体 → GORM模型
func toTierModel(t *membership.MembershipTier) *MembershipTierModel {
	return &MembershipTierModel{
		ID:                   t.ID,
		Name:                 string(t.Name),
		DisplayName:          t.DisplayName,
		Description:          t.Description,
		MaxBooks:             t.MaxBooks,
		LoanDurationDays:     t.LoanDurationDays,
		LateFeeDiscount:      t.LateFeeDiscount,
		ReservationPriority:  t.ReservationPriority,
		EarlyAccess:          t.EarlyAccess,
		MinLoansRequired:     t.MinLoansRequired,
		MinPointsRequired:    t.MinPointsRequired,
		MaxViolationsAllowed: t.MaxViolationsAllowed,
		Color:                t.Color,
		Icon:                 t.Icon,
	}
}

// toTierEntity GORM模型 → 领域实体
func toTierEntity(model *MembershipTierModel) *membership.MembershipTier {
	return &membership.MembershipTier{
		ID:                   model.ID,
		Name:                 membership.TierLevel(model.Name),
		DisplayName:          model.DisplayName,
		Description:          model.Description,
		MaxBooks:             model.MaxBooks,
		LoanDurationDays:     model.LoanDurationDays,
		LateFeeDiscount:      model.LateFeeDiscount,
		ReservationPriority:  model.ReservationPriority,
		EarlyAccess:          model.EarlyAccess,
		MinLoansRequired:     model.MinLoansRequired,
		MinPointsRequired:    model.MinPointsRequired,
		MaxViolationsAllowed: model.MaxViolationsAllowed,
		Color:                model.Color,
		Icon:                 model.Icon,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// toMembershipModel 领域实体 → GORM模型
func toMembershipModel(m *membership.UserMembership) *UserMembershipModel {
	return &UserMembershipModel{
		ID:             m.ID,
		PatronID:       m.PatronID,
		TierID:         m.TierID,
		TotalLoans:     m.TotalLoans,
		Points:         m.Points,
		ViolationCount: m.ViolationCount,
		TierChangedAt:  m.TierChangedAt,
		JoinedAt:       m.JoinedAt,
	}
}

// toMembershipEntity GORM模型 → 领域实体
func toMembershipEntity(model *UserMembershipModel) *membership.UserMembership {
	return &membership.UserMembership{
		ID:             model.ID,
		PatronID:       model.PatronID,
		TierID:         model.TierID,
		TotalLoans:     model.TotalLoans,
		Points:         model.Points,
		ViolationCount: model.ViolationCount,
		TierChangedAt:  model.TierChangedAt,
		JoinedAt:       model.JoinedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

package membership

import (
	"context"
)

// TierRepository 会员等级仓储接口
// 等级表是配置数据,只有启动种子写入和查询
type TierRepository interface {
	// Save 写入等级(种子数据,存在则跳过)
	Save(ctx context.Context, tier *MembershipTier) error

	// FindByID 根据ID查找等级
	FindByID(ctx context.Context, id uint) (*MembershipTier, error)

	// FindByName 根据名称查找等级
	FindByName(ctx context.Context, name TierLevel) (*MembershipTier, error)

	// ListAll 查询全部等级(按升级门槛MinLoansRequired升序)
	ListAll(ctx context.Context) ([]*MembershipTier, error)
}

// Repository 会员记录仓储接口
type Repository interface {
	// Create 创建会员记录
	Create(ctx context.Context, m *UserMembership) error

	// FindByPatronID 根据读者ID查找会员记录
	FindByPatronID(ctx context.Context, patronID uint) (*UserMembership, error)

	// LockByPatronID 悲观锁定会员记录
	// 积分/次数累加必须在调用方事务内持锁进行,防止并发丢更新
	LockByPatronID(ctx context.Context, patronID uint) (*UserMembership, error)

	// Update 更新会员记录
	Update(ctx context.Context, m *UserMembership) error
}

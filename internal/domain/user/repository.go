package user

import (
	"context"
)

// Repository 读者账户仓储接口
// DDD设计说明:
// 1. 接口定义在domain层(依赖倒置原则)
// 2. 具体实现在infrastructure/persistence/mysql层
// 3. 便于单元测试(Mock此接口)
type Repository interface {
	// Create 创建账户
	// 注意:如果邮箱已存在,应返回errors.ErrEmailDuplicate
	Create(ctx context.Context, patron *Patron) error

	// FindByID 根据ID查找账户
	// 如果不存在,返回errors.ErrPatronNotFound
	FindByID(ctx context.Context, id uint) (*Patron, error)

	// FindByEmail 根据邮箱查找账户
	FindByEmail(ctx context.Context, email string) (*Patron, error)

	// Update 更新账户信息
	Update(ctx context.Context, patron *Patron) error

	// Delete 删除账户(软删除)
	Delete(ctx context.Context, id uint) error

	// List 分页查询账户(管理端)
	List(ctx context.Context, page, pageSize int) ([]*Patron, int64, error)
}

package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书(软删除)
	Delete(ctx context.Context, id uint) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// UpdateCopyCounts 更新副本计数(总数/在架数)
	// 计数只来自CopyRepository.CountByStatus的重算结果
	UpdateCopyCounts(ctx context.Context, id uint, total, available int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page          int    // 页码(从1开始)
	PageSize      int    // 每页数量
	Keyword       string // 搜索关键词(搜索标题、作者、ISBN)
	Category      string // 分类过滤
	OnlyAvailable bool   // 只看有可借副本的
}

// CopyRepository 副本仓储接口
type CopyRepository interface {
	// Create 创建副本
	Create(ctx context.Context, copy *BookCopy) error

	// FindByID 根据ID查找副本
	FindByID(ctx context.Context, id uint) (*BookCopy, error)

	// FindByBarcode 根据条码查找副本
	FindByBarcode(ctx context.Context, barcode string) (*BookCopy, error)

	// ListByBookID 查询某本书的全部副本(按副本序号排序)
	ListByBookID(ctx context.Context, bookID uint) ([]*BookCopy, error)

	// Update 更新副本
	Update(ctx context.Context, copy *BookCopy) error

	// Delete 删除副本
	Delete(ctx context.Context, id uint) error

	// LockFirstAvailable 悲观锁定某本书编号最小的在架副本
	// 使用SELECT FOR UPDATE锁定行,防止并发借阅抢到同一副本
	// 无可借副本时返回ErrNoAvailableCopy
	LockFirstAvailable(ctx context.Context, bookID uint) (*BookCopy, error)

	// LockByID 悲观锁定指定副本(归还/确认流程使用)
	LockByID(ctx context.Context, id uint) (*BookCopy, error)

	// CountByStatus 统计某本书各状态的副本数
	// 返回(总数, 在架数)
	CountByStatus(ctx context.Context, bookID uint) (total int, available int, err error)

	// MaxCopyNumber 某本书当前最大的副本序号(没有副本时返回0)
	MaxCopyNumber(ctx context.Context, bookID uint) (int, error)
}

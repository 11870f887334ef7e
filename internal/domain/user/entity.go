package user

import (
	"time"
)

// Role 账户角色
// 借阅系统有三类账户:读者(自助借还)、馆员(柜台操作/现金确认)、管理员
type Role string

const (
	RolePatron    Role = "PATRON"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// Valid 检查角色值是否合法
func (r Role) Valid() bool {
	return r == RolePatron || r == RoleLibrarian || r == RoleAdmin
}

// CanOperateDesk 是否有柜台操作权限(现金确认、归还确认、逾期扫描)
func (r Role) CanOperateDesk() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// Patron 读者账户实体(聚合根)
// DDD设计说明:
// 1. 密码已加密存储(bcrypt),不应该有GetPassword()等方法暴露明文
// 2. 领域实体不依赖GORM tag(infrastructure层的Repository实现时会处理映射)
// 3. 会员数据(积分、等级)在membership聚合,不放在这里
type Patron struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Name      string
	Phone     string
	Role      Role
	Active    bool // 停用账户不能登录
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPatron 创建读者账户(工厂方法)
// hashedPassword必须是bcrypt加密后的密码
func NewPatron(email, hashedPassword, name, phone string, role Role) *Patron {
	if !role.Valid() {
		role = RolePatron
	}
	now := time.Now()
	return &Patron{
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Phone:     phone,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateProfile 更新资料(领域行为)
func (p *Patron) UpdateProfile(name, phone string) {
	if name != "" {
		p.Name = name
	}
	if phone != "" {
		p.Phone = phone
	}
	p.UpdatedAt = time.Now()
}

// Deactivate 停用账户
func (p *Patron) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

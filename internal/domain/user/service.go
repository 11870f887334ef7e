package user

import (
	"context"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Service 读者账户领域服务
// 设计说明:
// 1. Service包含不属于单个实体的业务逻辑(密码加密、验证)
// 2. Service依赖Repository接口,不依赖具体实现(依赖倒置)
type Service interface {
	// Register 读者注册(角色固定为PATRON)
	Register(ctx context.Context, email, password, name, phone string) (*Patron, error)

	// Login 登录
	Login(ctx context.Context, email, password string) (*Patron, error)

	// GetByID 根据ID获取账户
	GetByID(ctx context.Context, id uint) (*Patron, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	repo Repository
}

// NewService 创建账户服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Register 读者注册
// 业务规则:
// 1. 邮箱格式校验
// 2. 密码强度校验(8-20位,包含字母和数字)
// 3. 密码bcrypt加密(cost=12)
// 4. 邮箱唯一性由数据库UNIQUE索引保证
func (s *service) Register(ctx context.Context, email, password, name, phone string) (*Patron, error) {
	// 1. 邮箱格式校验
	if !isValidEmail(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	}

	// 2. 密码强度校验
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	// 3. 姓名校验
	if len(name) < 2 || len(name) > 50 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "姓名长度应为2-50个字符")
	}

	// 4. 密码加密
	// bcrypt自动加盐,cost=12平衡安全性与性能
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	// 5. 创建账户实体并持久化
	patron := NewPatron(email, string(hashedPassword), name, phone, RolePatron)
	if err := s.repo.Create(ctx, patron); err != nil {
		return nil, err // Repository已转换为业务错误
	}

	return patron, nil
}

// Login 登录
// 业务规则:邮箱必须存在、密码必须正确、账户未停用
func (s *service) Login(ctx context.Context, email, password string) (*Patron, error) {
	patron, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !patron.Active {
		return nil, apperrors.New(apperrors.ErrCodeForbidden, "账户已停用,请联系馆员")
	}

	if err := s.ValidatePassword(patron.Password, password); err != nil {
		return nil, err
	}

	return patron, nil
}

// GetByID 根据ID获取账户
func (s *service) GetByID(ctx context.Context, id uint) (*Patron, error) {
	return s.repo.FindByID(ctx, id)
}

// ValidatePassword 验证密码
// 登录时使用,验证明文密码与哈希值是否匹配
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

// isValidEmail 邮箱格式校验
// 简单的正则校验,生产环境可使用更严格的RFC 5322标准
func isValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// validatePasswordStrength 密码强度校验
// 规则:8-20位,必须包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasLetter || !hasDigit {
		return apperrors.ErrWeakPassword
	}

	return nil
}

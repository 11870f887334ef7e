package user

import (
	"context"

	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/user"
)

// RegisterUseCase 读者注册用例
// 设计说明：
// 1. Application层负责用例编排,协调多个领域服务
// 2. 注册成功后初始化基础会员档案,失败不阻断注册
type RegisterUseCase struct {
	userService       user.Service
	membershipService membership.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, membershipService membership.Service) *RegisterUseCase {
	return &RegisterUseCase{
		userService:       userService,
		membershipService: membershipService,
	}
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	p, err := uc.userService.Register(ctx, req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	// 初始化BASIC会员档案;失败时首次借阅会自动补建
	_, _ = uc.membershipService.EnsureMembership(ctx, p.ID)

	// 领域实体 → 应用层DTO,不暴露密码字段
	return &RegisterResponse{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
		Role:  string(p.Role),
	}, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

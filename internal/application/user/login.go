package user

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/pkg/jwt"
)

// LoginUseCase 读者登录用例
// 设计说明：
// 1. 验证邮箱密码
// 2. 生成JWT Token对(携带角色,柜台操作鉴权用)
// 3. 保存会话到Redis
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore *redis.SessionStore,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	p, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	tokenPair, err := uc.jwtManager.GenerateToken(p.ID, p.Email, p.Name, string(p.Role))
	if err != nil {
		return nil, err
	}

	sessionData := map[string]interface{}{
		"patron_id": p.ID,
		"email":     p.Email,
		"role":      string(p.Role),
		"login_at":  time.Now().Unix(),
		"ip":        req.ClientIP,
	}

	// 会话有效期 = Refresh Token有效期;保存失败不影响登录
	if err := uc.sessionStore.SaveSession(ctx, p.ID, sessionData, 7*24*time.Hour); err != nil {
		log.Printf("保存登录会话失败: patron_id=%d, err=%v", p.ID, err)
	}

	return &LoginResponse{
		Patron: PatronInfo{
			ID:    p.ID,
			Email: p.Email,
			Name:  p.Name,
			Role:  string(p.Role),
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 读者登出用例
type LogoutUseCase struct {
	sessionStore *redis.SessionStore
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore *redis.SessionStore) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore}
}

// Execute 执行登出
// 删除会话,并把Access Token拉黑到其自然过期
func (uc *LogoutUseCase) Execute(ctx context.Context, patronID uint, accessToken string) error {
	if err := uc.sessionStore.DeleteSession(ctx, patronID); err != nil {
		return err
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, 2*time.Hour)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	Patron       PatronInfo `json:"patron"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"` // Access Token过期时间(秒)
}

// PatronInfo 读者信息
type PatronInfo struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

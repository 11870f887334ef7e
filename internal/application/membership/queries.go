package membership

import (
	"context"

	"github.com/xiebiao/library/internal/domain/membership"
)

// QueryUseCase 会员查询用例
type QueryUseCase struct {
	membershipService membership.Service
}

func NewQueryUseCase(membershipService membership.Service) *QueryUseCase {
	return &QueryUseCase{membershipService: membershipService}
}

// GetMembership 查询读者会员信息,不存在则以BASIC建档后返回
func (uc *QueryUseCase) GetMembership(ctx context.Context, patronID uint) (*membership.UserMembership, error) {
	return uc.membershipService.EnsureMembership(ctx, patronID)
}

// ListTiers 查询全部等级定义(按升级门槛升序)
func (uc *QueryUseCase) ListTiers(ctx context.Context) ([]*membership.MembershipTier, error) {
	return uc.membershipService.ListTiers(ctx)
}

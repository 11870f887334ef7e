package membership

import (
	"context"
)

// Service 会员领域服务接口
// 设计说明:
// 1. 借阅/归还流程通过OnXxx钩子驱动会员数据变化,调用方负责事务
// 2. 等级评定是纯函数式规则:取会员数据满足门槛的最高等级
type Service interface {
	// EnsureMembership 获取读者会员记录,不存在则以BASIC建档
	EnsureMembership(ctx context.Context, patronID uint) (*UserMembership, error)

	// GetMembership 查询读者会员记录(含等级信息)
	GetMembership(ctx context.Context, patronID uint) (*UserMembership, error)

	// ListTiers 查询全部等级定义
	ListTiers(ctx context.Context) ([]*MembershipTier, error)

	// OnLoanActivated 借阅生效钩子:+1次数,+5分,评定升级
	// 必须在借阅事务内调用
	OnLoanActivated(ctx context.Context, patronID uint) error

	// OnOnTimeReturn 按时归还钩子:+10分,评定升级
	OnOnTimeReturn(ctx context.Context, patronID uint) error

	// OnViolation 违规钩子(逾期归还等):+1违规
	// 违规次数超过当前等级容忍上限时降为BASIC
	OnViolation(ctx context.Context, patronID uint) error

	// EvaluateTier 按当前数据评定应处等级
	EvaluateTier(ctx context.Context, m *UserMembership) (*MembershipTier, error)
}

type service struct {
	repo     Repository
	tierRepo TierRepository
}

// NewService 创建会员领域服务
func NewService(repo Repository, tierRepo TierRepository) Service {
	return &service{repo: repo, tierRepo: tierRepo}
}

// EnsureMembership 获取或建档
func (s *service) EnsureMembership(ctx context.Context, patronID uint) (*UserMembership, error) {
	m, err := s.repo.FindByPatronID(ctx, patronID)
	if err == nil {
		return m, nil
	}
	if err != ErrMembershipNotFound {
		return nil, err
	}

	basic, err := s.tierRepo.FindByName(ctx, TierBasic)
	if err != nil {
		return nil, err
	}

	m = NewUserMembership(patronID, basic.ID)
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	m.Tier = basic
	return m, nil
}

// GetMembership 查询会员记录
func (s *service) GetMembership(ctx context.Context, patronID uint) (*UserMembership, error) {
	m, err := s.repo.FindByPatronID(ctx, patronID)
	if err != nil {
		return nil, err
	}
	if m.Tier == nil {
		tier, err := s.tierRepo.FindByID(ctx, m.TierID)
		if err != nil {
			return nil, err
		}
		m.Tier = tier
	}
	return m, nil
}

// ListTiers 查询全部等级
func (s *service) ListTiers(ctx context.Context) ([]*MembershipTier, error) {
	return s.tierRepo.ListAll(ctx)
}

// OnLoanActivated 借阅生效钩子
func (s *service) OnLoanActivated(ctx context.Context, patronID uint) error {
	if _, err := s.EnsureMembership(ctx, patronID); err != nil {
		return err
	}

	m, err := s.repo.LockByPatronID(ctx, patronID)
	if err != nil {
		return err
	}

	m.RecordLoan()
	return s.reevaluateAndSave(ctx, m)
}

// OnOnTimeReturn 按时归还钩子
func (s *service) OnOnTimeReturn(ctx context.Context, patronID uint) error {
	m, err := s.repo.LockByPatronID(ctx, patronID)
	if err != nil {
		return err
	}

	m.RecordOnTimeReturn()
	return s.reevaluateAndSave(ctx, m)
}

// OnViolation 违规钩子
func (s *service) OnViolation(ctx context.Context, patronID uint) error {
	m, err := s.repo.LockByPatronID(ctx, patronID)
	if err != nil {
		return err
	}

	m.RecordViolation()

	current, err := s.tierRepo.FindByID(ctx, m.TierID)
	if err != nil {
		return err
	}

	// 违规超过当前等级容忍上限,直接降为BASIC
	if m.ViolationCount > current.MaxViolationsAllowed && current.Name != TierBasic {
		basic, err := s.tierRepo.FindByName(ctx, TierBasic)
		if err != nil {
			return err
		}
		m.ChangeTier(basic)
	}

	return s.repo.Update(ctx, m)
}

// EvaluateTier 评定应处等级
// 规则:按升级门槛升序遍历,取满足条件的最高等级
func (s *service) EvaluateTier(ctx context.Context, m *UserMembership) (*MembershipTier, error) {
	tiers, err := s.tierRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, ErrTierNotFound
	}

	best := tiers[0]
	for _, tier := range tiers {
		if tier.SatisfiedBy(m.TotalLoans, m.Points, m.ViolationCount) {
			best = tier
		}
	}
	return best, nil
}

// reevaluateAndSave 评定等级后保存
// 只升不降:评定结果门槛低于当前等级时保持不变(降级只由违规触发)
func (s *service) reevaluateAndSave(ctx context.Context, m *UserMembership) error {
	target, err := s.EvaluateTier(ctx, m)
	if err != nil {
		return err
	}

	current, err := s.tierRepo.FindByID(ctx, m.TierID)
	if err != nil {
		return err
	}

	if target.MinLoansRequired > current.MinLoansRequired {
		m.ChangeTier(target)
	}

	return s.repo.Update(ctx, m)
}

// DefaultTiers 等级种子数据
// 启动时写入,已存在则跳过
func DefaultTiers() []*MembershipTier {
	return []*MembershipTier{
		{
			Name:                 TierBasic,
			DisplayName:          "普通会员",
			Description:          "注册即享",
			MaxBooks:             3,
			LoanDurationDays:     14,
			LateFeeDiscount:      0,
			ReservationPriority:  false,
			EarlyAccess:          false,
			MinLoansRequired:     0,
			MinPointsRequired:    0,
			MaxViolationsAllowed: 3,
			Color:                "#9E9E9E",
			Icon:                 "star_border",
		},
		{
			Name:                 TierVIP,
			DisplayName:          "VIP会员",
			Description:          "累计借阅20次且信誉积分100以上",
			MaxBooks:             5,
			LoanDurationDays:     21,
			LateFeeDiscount:      0.1,
			ReservationPriority:  true,
			EarlyAccess:          false,
			MinLoansRequired:     20,
			MinPointsRequired:    100,
			MaxViolationsAllowed: 2,
			Color:                "#FFC107",
			Icon:                 "star_half",
		},
		{
			Name:                 TierPremium,
			DisplayName:          "至尊会员",
			Description:          "累计借阅50次且信誉积分300以上",
			MaxBooks:             10,
			LoanDurationDays:     30,
			LateFeeDiscount:      0.2,
			ReservationPriority:  true,
			EarlyAccess:          true,
			MinLoansRequired:     50,
			MinPointsRequired:    300,
			MaxViolationsAllowed: 1,
			Color:                "#9C27B0",
			Icon:                 "star",
		},
	}
}

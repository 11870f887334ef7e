package membership

import (
	"time"
)

// TierLevel 会员等级名称
type TierLevel string

const (
	TierBasic   TierLevel = "BASIC"
	TierVIP     TierLevel = "VIP"
	TierPremium TierLevel = "PREMIUM"
)

// 信誉积分规则
const (
	PointsPerLoan      = 5  // 每次借阅+5分
	PointsOnTimeReturn = 10 // 按时归还+10分
)

// MembershipTier 会员等级定义
// 设计说明:
// 1. 等级表是运营配置数据,服务启动时种子写入,运行期只读
// 2. 升级门槛:累计借阅数和信誉积分双条件
// 3. MaxViolationsAllowed是本等级容忍的违规上限,超过即降级
type MembershipTier struct {
	ID                   uint
	Name                 TierLevel // 等级名称
	DisplayName          string    // 展示名
	Description          string    // 等级说明
	MaxBooks             int       // 同时在借上限
	LoanDurationDays     int       // 借期(天)
	LateFeeDiscount      float64   // 罚金折扣(0.1=9折优惠10%)
	ReservationPriority  bool      // 预约优先
	EarlyAccess          bool      // 新书优先借阅
	MinLoansRequired     int       // 升级所需累计借阅数
	MinPointsRequired    int       // 升级所需信誉积分
	MaxViolationsAllowed int       // 容忍违规次数上限
	Color                string    // 前端展示色
	Icon                 string    // 前端展示图标
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SatisfiedBy 会员数据是否满足本等级门槛
// 违规次数超过本等级容忍上限的读者不满足,再多积分也挡在门外
func (t *MembershipTier) SatisfiedBy(totalLoans, points, violations int) bool {
	return totalLoans >= t.MinLoansRequired &&
		points >= t.MinPointsRequired &&
		violations <= t.MaxViolationsAllowed
}

// UserMembership 读者会员记录
// 每个读者一条,注册/首次借阅时自动建档(BASIC)
type UserMembership struct {
	ID             uint
	PatronID       uint // 读者ID
	TierID         uint // 当前等级ID
	Tier           *MembershipTier
	TotalLoans     int        // 累计借阅数
	Points         int        // 信誉积分
	ViolationCount int        // 违规次数(逾期等)
	TierChangedAt  *time.Time // 最近一次等级变动时间(升降级都记录)
	JoinedAt       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUserMembership 创建会员记录(工厂方法),初始等级由调用方传入(BASIC)
func NewUserMembership(patronID, tierID uint) *UserMembership {
	now := time.Now()
	return &UserMembership{
		PatronID:  patronID,
		TierID:    tierID,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordLoan 记一次借阅(+1次数,+5分)
func (m *UserMembership) RecordLoan() {
	m.TotalLoans++
	m.Points += PointsPerLoan
	m.UpdatedAt = time.Now()
}

// RecordOnTimeReturn 记一次按时归还(+10分)
func (m *UserMembership) RecordOnTimeReturn() {
	m.Points += PointsOnTimeReturn
	m.UpdatedAt = time.Now()
}

// RecordViolation 记一次违规
func (m *UserMembership) RecordViolation() {
	m.ViolationCount++
	m.UpdatedAt = time.Now()
}

// ChangeTier 切换到目标等级,记录变动时间
func (m *UserMembership) ChangeTier(t *MembershipTier) {
	now := time.Now()
	m.TierID = t.ID
	m.Tier = t
	m.TierChangedAt = &now
	m.UpdatedAt = now
}

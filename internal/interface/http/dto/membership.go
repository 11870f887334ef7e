package dto

// MembershipTierResponse HTTP会员等级响应
type MembershipTierResponse struct {
	ID               uint    `json:"id" example:"1"`
	Name             string  `json:"name" example:"BASIC"`
	DisplayName      string  `json:"display_name" example:"普通会员"`
	Description      string  `json:"description"`
	MaxBooks         int     `json:"max_books" example:"3"`
	LoanDurationDays int     `json:"loan_duration_days" example:"14"`
	LateFeeDiscount  float64 `json:"late_fee_discount" example:"0"`
	MinLoansRequired int     `json:"min_loans_required" example:"0"`
	Color            string  `json:"color" example:"#9E9E9E"`
	Icon             string  `json:"icon" example:"book"`
}

// MembershipResponse HTTP会员信息响应
type MembershipResponse struct {
	PatronID       uint                    `json:"patron_id" example:"1"`
	Tier           *MembershipTierResponse `json:"tier,omitempty"`
	TotalLoans     int                     `json:"total_loans" example:"12"`
	Points         int                     `json:"points" example:"150"`
	ViolationCount int                     `json:"violation_count" example:"1"`
	TierChangedAt  string                  `json:"tier_changed_at,omitempty" example:"2024-03-15 10:30:00"`
	JoinedAt       string                  `json:"joined_at" example:"2024-01-01 09:00:00"`
}

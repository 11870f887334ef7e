package handler

import (
	"github.com/gin-gonic/gin"

	appmembership "github.com/xiebiao/library/internal/application/membership"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// MembershipHandler 会员HTTP处理器
type MembershipHandler struct {
	queryUseCase *appmembership.QueryUseCase
}

// NewMembershipHandler 创建会员处理器
func NewMembershipHandler(queryUseCase *appmembership.QueryUseCase) *MembershipHandler {
	return &MembershipHandler{queryUseCase: queryUseCase}
}

// My 我的会员信息
// @Summary      我的会员信息
// @Description  查询当前等级、累计借阅数、信誉积分与违规次数
// @Tags         会员
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.MembershipResponse} "查询成功"
// @Router       /api/v1/memberships/my [get]
func (h *MembershipHandler) My(c *gin.Context) {
	m, err := h.queryUseCase.GetMembership(c.Request.Context(), middleware.GetPatronID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := &dto.MembershipResponse{
		PatronID:       m.PatronID,
		TotalLoans:     m.TotalLoans,
		Points:         m.Points,
		ViolationCount: m.ViolationCount,
		JoinedAt:       m.JoinedAt.Format(timeLayout),
	}
	if m.TierChangedAt != nil {
		resp.TierChangedAt = m.TierChangedAt.Format(timeLayout)
	}
	if m.Tier != nil {
		resp.Tier = toTierResponse(m.Tier)
	}

	response.Success(c, resp)
}

// ListTiers 会员等级列表
// @Summary      会员等级列表
// @Description  全部等级定义，按升级门槛升序
// @Tags         会员
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.MembershipTierResponse} "查询成功"
// @Router       /api/v1/memberships/tiers [get]
func (h *MembershipHandler) ListTiers(c *gin.Context) {
	tiers, err := h.queryUseCase.ListTiers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.MembershipTierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, *toTierResponse(t))
	}
	response.Success(c, out)
}

func toTierResponse(t *membership.MembershipTier) *dto.MembershipTierResponse {
	return &dto.MembershipTierResponse{
		ID:               t.ID,
		Name:             string(t.Name),
		DisplayName:      t.DisplayName,
		Description:      t.Description,
		MaxBooks:         t.MaxBooks,
		LoanDurationDays: t.LoanDurationDays,
		LateFeeDiscount:  t.LateFeeDiscount,
		MinLoansRequired: t.MinLoansRequired,
		Color:            t.Color,
		Icon:             t.Icon,
	}
}

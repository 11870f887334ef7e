package membership

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 会员领域错误定义
var (
	// ErrTierNotFound 会员等级不存在
	ErrTierNotFound = apperrors.New(apperrors.ErrCodeTierNotFound, "会员等级不存在")

	// ErrMembershipNotFound 会员记录不存在
	ErrMembershipNotFound = apperrors.New(apperrors.ErrCodeMembershipNotFound, "会员记录不存在")
)

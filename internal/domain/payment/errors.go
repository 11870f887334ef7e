package payment

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 支付领域错误定义
var (
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "支付记录不存在")

	// ErrFineNotFound 罚款记录不存在
	ErrFineNotFound = apperrors.New(apperrors.ErrCodeFineNotFound, "罚款记录不存在")

	// ErrInvalidPaymentStatus 支付状态不允许此操作
	ErrInvalidPaymentStatus = apperrors.New(apperrors.ErrCodePaymentProcessed, "支付单已处理,不能重复操作")

	// ErrInvalidMethod 无效的支付方式
	ErrInvalidMethod = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的支付方式")

	// ErrInvalidSignature 网关签名校验失败
	ErrInvalidSignature = apperrors.New(apperrors.ErrCodeInvalidSignature, "支付网关签名校验失败")

	// ErrFineAlreadySettled 罚款单已结清
	ErrFineAlreadySettled = apperrors.New(apperrors.ErrCodeBusinessError, "罚款单已结清")

	// ErrNotPaymentOwner 无权操作他人支付单
	ErrNotPaymentOwner = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此支付记录")
)

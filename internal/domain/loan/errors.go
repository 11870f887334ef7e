package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrInvalidStatusTransition 非法的状态流转
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidLoanStatus, "借阅状态不允许此操作")

	// ErrInvalidLoanStatus 当前状态不允许此操作
	ErrInvalidLoanStatus = apperrors.New(apperrors.ErrCodeInvalidLoanStatus, "借阅状态不允许此操作")

	// ErrLoanOverdue 已逾期,不能续借
	ErrLoanOverdue = apperrors.New(apperrors.ErrCodeHasOverdueLoans, "借阅已逾期,请先归还并缴清罚金")

	// ErrRenewalLimitReached 续借次数已达上限
	ErrRenewalLimitReached = apperrors.New(apperrors.ErrCodeRenewalLimit, "续借次数已达上限")

	// ErrHasOverdueLoans 存在逾期未还,不能借新书
	ErrHasOverdueLoans = apperrors.New(apperrors.ErrCodeHasOverdueLoans, "存在逾期未还的图书,不能借阅新书")

	// ErrDuplicateLoan 同一本书不能重复借阅
	ErrDuplicateLoan = apperrors.New(apperrors.ErrCodeDuplicateLoan, "您已借阅该图书,归还后才能再次借阅")

	// ErrNotLoanOwner 无权操作他人借阅单
	ErrNotLoanOwner = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此借阅记录")
)

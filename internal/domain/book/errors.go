package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrCopyNotFound 副本不存在
	ErrCopyNotFound = apperrors.New(apperrors.ErrCodeCopyNotFound, "图书副本不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN号已存在")

	// ErrBarcodeDuplicate 条码已存在
	ErrBarcodeDuplicate = apperrors.New(apperrors.ErrCodeBarcodeDuplicate, "副本条码已存在")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")

	// ErrInvalidCondition 无效的品相
	ErrInvalidCondition = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的副本品相")

	// ErrNoAvailableCopy 没有可借副本
	ErrNoAvailableCopy = apperrors.New(apperrors.ErrCodeNoAvailableCopy, "该图书暂无可借副本")

	// ErrCopyBorrowed 副本已借出,不能删除
	ErrCopyBorrowed = apperrors.New(apperrors.ErrCodeCopyBorrowed, "副本已借出,无法删除")

	// ErrInvalidCopyTransition 非法的副本状态流转
	ErrInvalidCopyTransition = apperrors.New(apperrors.ErrCodeBusinessError, "非法的副本状态流转")
)

package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// loanRepository 借阅单仓储实现(MySQL)
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅单仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// activeStatuses 占用副本的借阅状态(重复借阅/逾期检查用)
var activeStatuses = []string{
	string(loan.StatusPendingPayment),
	string(loan.StatusBorrowed),
	string(loan.StatusRenewed),
	string(loan.StatusPendingReturn),
	string(loan.StatusOverdue),
}

// Create 创建借阅单
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅单失败")
	}

	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找借阅单
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅单失败")
	}
	return toLoanEntity(&model), nil
}

// LockByID 悲观锁定借阅单(状态变更前必须加锁,防止并发归还/续借)
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅单失败")
	}
	return toLoanEntity(&model), nil
}

// Update 更新借阅单
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)
	model.ID = l.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新借阅单失败")
	}

	l.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除借阅单(押金支付失败时回收)
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&LoanModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除借阅单失败")
	}
	if result.RowsAffected == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

// ListByPatronID 读者的借阅单(可按状态过滤,分页)
func (r *loanRepository) ListByPatronID(ctx context.Context, patronID uint, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	query := getDB(ctx, r.db).Model(&LoanModel{}).Where("patron_id = ?", patronID)
	return r.list(query, statuses, page, pageSize)
}

// List 全部借阅单(馆员视角,可按状态过滤,分页)
func (r *loanRepository) List(ctx context.Context, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	query := getDB(ctx, r.db).Model(&LoanModel{})
	return r.list(query, statuses, page, pageSize)
}

func (r *loanRepository) list(query *gorm.DB, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query = query.Where("status IN ?", values)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅单总数失败")
	}

	var models []LoanModel
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅单列表失败")
	}

	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}
	return loans, total, nil
}

// CountActiveByPatron 读者当前在借数量
func (r *loanRepository) CountActiveByPatron(ctx context.Context, patronID uint) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("patron_id = ? AND status IN ?", patronID, activeStatuses).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计在借数量失败")
	}
	return count, nil
}

// ExistsActiveByPatronAndBook 读者是否已在借同一本书(防重复借阅)
func (r *loanRepository) ExistsActiveByPatronAndBook(ctx context.Context, patronID, bookID uint) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("patron_id = ? AND book_id = ? AND status IN ?", patronID, bookID, activeStatuses).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "检查重复借阅失败")
	}
	return count > 0, nil
}

// ExistsOverdueByPatron 读者名下是否有逾期未还(借阅资格检查)
// 到期未还但尚未被扫描标记的也算逾期
func (r *loanRepository) ExistsOverdueByPatron(ctx context.Context, patronID uint, now time.Time) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("patron_id = ?", patronID).
		Where("status = ? OR (status IN ? AND due_date < ?)",
			string(loan.StatusOverdue),
			[]string{string(loan.StatusBorrowed), string(loan.StatusRenewed)},
			now).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "检查逾期记录失败")
	}
	return count > 0, nil
}

// ListDueBefore 到期时间早于deadline且仍在借的借阅单(逾期扫描用,分页)
func (r *loanRepository) ListDueBefore(ctx context.Context, deadline time.Time, page, pageSize int) ([]*loan.Loan, int64, error) {
	query := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("status IN ? AND due_date < ?",
			[]string{string(loan.StatusBorrowed), string(loan.StatusRenewed)},
			deadline)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询到期借阅单总数失败")
	}

	var models []LoanModel
	offset := (page - 1) * pageSize
	err := query.Order("due_date ASC").Limit(pageSize).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询到期借阅单失败")
	}

	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}
	return loans, total, nil
}

// toLoanModel 领域实体 → GORM模型
func toLoanModel(l *loan.Loan) *LoanModel {
	return &LoanModel{
		ID:            l.ID,
		PatronID:      l.PatronID,
		BookID:        l.BookID,
		CopyID:        l.CopyID,
		Status:        string(l.Status),
		BorrowedAt:    l.BorrowedAt,
		DueDate:       l.DueDate,
		ReturnDate:    l.ReturnDate,
		RenewalCount:  l.RenewalCount,
		DepositAmount: l.DepositAmount,
		FineAmount:    l.FineAmount,
		Notes:         l.Notes,
	}
}

// toLoanEntity GORM模型 → 领域实体
func toLoanEntity(model *LoanModel) *loan.Loan {
	return &loan.Loan{
		ID:            model.ID,
		PatronID:      model.PatronID,
		BookID:        model.BookID,
		CopyID:        model.CopyID,
		Status:        loan.Status(model.Status),
		BorrowedAt:    model.BorrowedAt,
		DueDate:       model.DueDate,
		ReturnDate:    model.ReturnDate,
		RenewalCount:  model.RenewalCount,
		DepositAmount: model.DepositAmount,
		FineAmount:    model.FineAmount,
		Notes:         model.Notes,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

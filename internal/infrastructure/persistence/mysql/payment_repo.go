package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// paymentRepository 支付单仓储实现(MySQL)
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付单仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

// Create 创建支付单
func (r *paymentRepository) Create(ctx context.Context, p *payment.LoanPayment) error {
	model := toPaymentModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建支付单失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找支付单
func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.LoanPayment, error) {
	var model LoanPaymentModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付单失败")
	}
	return toPaymentEntity(&model), nil
}

// FindByTxnRef 根据商户订单号查找支付单
func (r *paymentRepository) FindByTxnRef(ctx context.Context, txnRef string) (*payment.LoanPayment, error) {
	var model LoanPaymentModel
	err := getDB(ctx, r.db).Where("txn_ref = ?", txnRef).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付单失败")
	}
	return toPaymentEntity(&model), nil
}

// LockByTxnRef 悲观锁定支付单
// 回调处理的幂等关键:网关重发的回调会在这里排队,
// 第二个回调拿到锁时支付单已非PENDING
func (r *paymentRepository) LockByTxnRef(ctx context.Context, txnRef string) (*payment.LoanPayment, error) {
	var model LoanPaymentModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("txn_ref = ?", txnRef).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "锁定支付单失败")
	}
	return toPaymentEntity(&model), nil
}

// FindPendingByLoanID 借阅单的待支付押金单
func (r *paymentRepository) FindPendingByLoanID(ctx context.Context, loanID uint) (*payment.LoanPayment, error) {
	var model LoanPaymentModel
	err := getDB(ctx, r.db).
		Where("loan_id = ? AND status = ?", loanID, string(payment.StatusPending)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询待支付押金单失败")
	}
	return toPaymentEntity(&model), nil
}

// FindPendingByFineID 罚款单的待支付记录
func (r *paymentRepository) FindPendingByFineID(ctx context.Context, fineID uint) (*payment.LoanPayment, error) {
	var model LoanPaymentModel
	err := getDB(ctx, r.db).
		Where("fine_id = ? AND status = ?", fineID, string(payment.StatusPending)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询待支付罚款单失败")
	}
	return toPaymentEntity(&model), nil
}

// Update 更新支付单
func (r *paymentRepository) Update(ctx context.Context, p *payment.LoanPayment) error {
	model := toPaymentModel(p)
	model.ID = p.ID

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新支付单失败")
	}

	p.UpdatedAt = model.UpdatedAt
	return nil
}

// ListByPatronID 读者的支付记录(分页)
func (r *paymentRepository) ListByPatronID(ctx context.Context, patronID uint, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	query := getDB(ctx, r.db).Model(&LoanPaymentModel{}).Where("patron_id = ?", patronID)
	return r.list(query, page, pageSize)
}

// ListPendingCash 待确认的现金支付单(馆员工作台,分页)
func (r *paymentRepository) ListPendingCash(ctx context.Context, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	query := getDB(ctx, r.db).Model(&LoanPaymentModel{}).
		Where("method = ? AND status = ?", string(payment.MethodCash), string(payment.StatusPending))
	return r.list(query, page, pageSize)
}

// ListStalePending 创建时间早于deadline且仍为PENDING的网关支付单(对账任务)
func (r *paymentRepository) ListStalePending(ctx context.Context, method payment.Method, deadline time.Time, limit int) ([]*payment.LoanPayment, error) {
	var models []LoanPaymentModel
	err := getDB(ctx, r.db).
		Where("method = ? AND status = ? AND created_at < ?",
			string(method), string(payment.StatusPending), deadline).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询滞留支付单失败")
	}

	payments := make([]*payment.LoanPayment, len(models))
	for i := range models {
		payments[i] = toPaymentEntity(&models[i])
	}
	return payments, nil
}

func (r *paymentRepository) list(query *gorm.DB, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付单总数失败")
	}

	var models []LoanPaymentModel
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付单列表失败")
	}

	payments := make([]*payment.LoanPayment, len(models))
	for i := range models {
		payments[i] = toPaymentEntity(&models[i])
	}
	return payments, total, nil
}

// toPaymentModel 领域实体 → GORM模型
func toPaymentModel(p *payment.LoanPayment) *LoanPaymentModel {
	return &LoanPaymentModel{
		ID:           p.ID,
		LoanID:       p.LoanID,
		FineID:       p.FineID,
		PatronID:     p.PatronID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		Status:       string(p.Status),
		TxnRef:       p.TxnRef,
		GatewayTxnNo: p.GatewayTxnNo,
		BankCode:     p.BankCode,
		ConfirmedBy:  p.ConfirmedBy,
		PaidAt:       p.PaidAt,
	}
}

// toPaymentEntity GORM模型 → 领域实体
func toPaymentEntity(model *LoanPaymentModel) *payment.LoanPayment {
	return &payment.LoanPayment{
		ID:           model.ID,
		LoanID:       model.LoanID,
		FineID:       model.FineID,
		PatronID:     model.PatronID,
		Amount:       model.Amount,
		Method:       payment.Method(model.Method),
		Status:       payment.Status(model.Status),
		TxnRef:       model.TxnRef,
		GatewayTxnNo: model.GatewayTxnNo,
		BankCode:     model.BankCode,
		ConfirmedBy:  model.ConfirmedBy,
		PaidAt:       model.PaidAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

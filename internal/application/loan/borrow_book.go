package loan

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/metrics"
)

// BorrowBookUseCase 借书用例
// 教学要点:这是整个项目最核心的用例之一
// 涉及:事务处理、副本行锁防抢借、押金支付流程
type BorrowBookUseCase struct {
	loanRepo      loan.Repository
	paymentRepo   payment.Repository
	copyRepo      book.CopyRepository
	bookSvc       book.Service
	patronRepo    user.Repository
	membershipSvc membership.Service
	txManager     *mysql.TxManager
	cfg           config.LoanConfig
}

// NewBorrowBookUseCase 创建借书用例
func NewBorrowBookUseCase(
	loanRepo loan.Repository,
	paymentRepo payment.Repository,
	copyRepo book.CopyRepository,
	bookSvc book.Service,
	patronRepo user.Repository,
	membershipSvc membership.Service,
	txManager *mysql.TxManager,
	cfg config.LoanConfig,
) *BorrowBookUseCase {
	return &BorrowBookUseCase{
		loanRepo:      loanRepo,
		paymentRepo:   paymentRepo,
		copyRepo:      copyRepo,
		bookSvc:       bookSvc,
		patronRepo:    patronRepo,
		membershipSvc: membershipSvc,
		txManager:     txManager,
		cfg:           cfg,
	}
}

// BorrowBookRequest 借书请求DTO
type BorrowBookRequest struct {
	PatronID uint           // 读者ID(从JWT中提取)
	BookID   uint           // 图书ID
	Method   payment.Method // 押金支付方式(CASH/VNPAY)
}

// BorrowBookResponse 借书响应DTO
// 押金支付流程:返回待支付的借阅单和支付单,读者随后发起支付
type BorrowBookResponse struct {
	LoanID        uint   `json:"loan_id"`
	PaymentID     uint   `json:"payment_id"`
	TxnRef        string `json:"txn_ref"`
	CopyBarcode   string `json:"copy_barcode"`
	Status        string `json:"status"`
	DepositAmount int64  `json:"deposit_amount"`
	DueDate       string `json:"due_date"`
}

// Execute 执行借书用例(押金支付流程)
//
// 核心问题:最后一本副本的并发抢借
// 场景:某本书只剩1个在架副本,两位读者同时点借阅
// 错误实现:先查询可借副本再更新状态,两个请求都会查到同一副本
// 正确实现:悲观锁
//  1. SELECT ... WHERE status='AVAILABLE' ORDER BY copy_number LIMIT 1 FOR UPDATE
//  2. 副本流转为RESERVED(锁定)
//  3. 创建PENDING_PAYMENT借阅单和PENDING押金单
//  4. COMMIT释放锁,后到的请求只能锁到下一个副本或收到"无可借副本"
//
// 押金到账后(现金确认或网关回调)借阅单才生效
func (uc *BorrowBookUseCase) Execute(ctx context.Context, req BorrowBookRequest) (*BorrowBookResponse, error) {
	if !req.Method.Valid() {
		return nil, payment.ErrInvalidMethod
	}

	// 1. 读者校验
	if _, err := uc.patronRepo.FindByID(ctx, req.PatronID); err != nil {
		return nil, err
	}

	// 2. 借阅资格校验
	if err := uc.checkEligibility(ctx, req.PatronID, req.BookID); err != nil {
		return nil, err
	}

	var (
		newLoan    *loan.Loan
		newPayment *payment.LoanPayment
		barcode    string
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 3. 锁定编号最小的在架副本(悲观锁,防止并发抢借)
		// LockFirstAvailable执行:
		// SELECT * FROM book_copies WHERE book_id=? AND status='AVAILABLE'
		//   ORDER BY copy_number LIMIT 1 FOR UPDATE
		c, err := uc.copyRepo.LockFirstAvailable(txCtx, req.BookID)
		if err != nil {
			return err
		}
		barcode = c.Barcode

		// 4. 副本锁定,等待押金到账
		if err := uc.bookSvc.SetCopyStatus(txCtx, c, book.CopyStatusReserved); err != nil {
			return err
		}

		// 5. 创建借阅单(PENDING_PAYMENT)
		newLoan = loan.NewLoan(req.PatronID, req.BookID, c.ID, uc.cfg.LoanPeriod, uc.cfg.DepositAmount)
		if err := uc.loanRepo.Create(txCtx, newLoan); err != nil {
			return err
		}

		// 6. 创建押金支付单(交易参考号含借阅单ID,回调时定位)
		newPayment = payment.NewDepositPayment(newLoan.ID, req.PatronID, uc.cfg.DepositAmount, req.Method)
		return uc.paymentRepo.Create(txCtx, newPayment)
	})
	if err != nil {
		metrics.IncCounter(metrics.LoansFailedTotal)
		return nil, err
	}

	metrics.IncCounterVec(metrics.LoansCreatedTotal, "payment")
	if req.Method == payment.MethodCash {
		metrics.IncGauge(metrics.PaymentsPendingCash)
	}

	return &BorrowBookResponse{
		LoanID:        newLoan.ID,
		PaymentID:     newPayment.ID,
		TxnRef:        newPayment.TxnRef,
		CopyBarcode:   barcode,
		Status:        newLoan.Status.String(),
		DepositAmount: newLoan.DepositAmount,
		DueDate:       newLoan.DueDate.Format(time.RFC3339),
	}, nil
}

// ExecuteDirect 现场直借(馆员柜台操作,无押金流程)
// 副本直接流转为BORROWED,借阅单立即生效,会员数据同事务累计
func (uc *BorrowBookUseCase) ExecuteDirect(ctx context.Context, patronID, bookID uint) (*BorrowBookResponse, error) {
	if _, err := uc.patronRepo.FindByID(ctx, patronID); err != nil {
		return nil, err
	}
	if err := uc.checkEligibility(ctx, patronID, bookID); err != nil {
		return nil, err
	}

	var (
		newLoan *loan.Loan
		barcode string
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		c, err := uc.copyRepo.LockFirstAvailable(txCtx, bookID)
		if err != nil {
			return err
		}
		barcode = c.Barcode

		if err := uc.bookSvc.SetCopyStatus(txCtx, c, book.CopyStatusBorrowed); err != nil {
			return err
		}

		newLoan = loan.NewDirectLoan(patronID, bookID, c.ID, uc.cfg.LoanPeriod)
		if err := uc.loanRepo.Create(txCtx, newLoan); err != nil {
			return err
		}

		// 借阅生效,会员累计借阅数和积分
		return uc.membershipSvc.OnLoanActivated(txCtx, patronID)
	})
	if err != nil {
		metrics.IncCounter(metrics.LoansFailedTotal)
		return nil, err
	}

	metrics.IncCounterVec(metrics.LoansCreatedTotal, "direct")

	return &BorrowBookResponse{
		LoanID:      newLoan.ID,
		CopyBarcode: barcode,
		Status:      newLoan.Status.String(),
		DueDate:     newLoan.DueDate.Format(time.RFC3339),
	}, nil
}

// checkEligibility 借阅资格校验
// 业务规则:
// 1. 存在逾期未还的图书,不能借新书
// 2. 同一本书未归还前不能重复借阅
func (uc *BorrowBookUseCase) checkEligibility(ctx context.Context, patronID, bookID uint) error {
	hasOverdue, err := uc.loanRepo.ExistsOverdueByPatron(ctx, patronID, time.Now())
	if err != nil {
		return err
	}
	if hasOverdue {
		return loan.ErrHasOverdueLoans
	}

	dup, err := uc.loanRepo.ExistsActiveByPatronAndBook(ctx, patronID, bookID)
	if err != nil {
		return err
	}
	if dup {
		return loan.ErrDuplicateLoan
	}

	return nil
}

package loan

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	os.Exit(m.Run())
}

// ==============================
// 内存仓储(无DB单元测试用)
// ==============================

type fakeLoanRepo struct {
	mu     sync.Mutex
	loans  map[uint]*loan.Loan
	nextID uint
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uint]*loan.Loan), nextID: 1}
}

func (r *fakeLoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = r.nextID
	r.nextID++
	cp := *l
	r.loans[l.ID] = &cp
	return nil
}

func (r *fakeLoanRepo) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLoanRepo) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLoanRepo) Update(ctx context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[l.ID]; !ok {
		return loan.ErrLoanNotFound
	}
	cp := *l
	r.loans[l.ID] = &cp
	return nil
}

func (r *fakeLoanRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loans, id)
	return nil
}

func (r *fakeLoanRepo) ListByPatronID(ctx context.Context, patronID uint, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*loan.Loan
	for _, l := range r.loans {
		if l.PatronID != patronID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, l.Status) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLoanRepo) List(ctx context.Context, statuses []loan.Status, page, pageSize int) ([]*loan.Loan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*loan.Loan
	for _, l := range r.loans {
		if len(statuses) > 0 && !containsStatus(statuses, l.Status) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLoanRepo) CountActiveByPatron(ctx context.Context, patronID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.loans {
		if l.PatronID == patronID && l.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (r *fakeLoanRepo) ExistsActiveByPatronAndBook(ctx context.Context, patronID, bookID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loans {
		if l.PatronID == patronID && l.BookID == bookID && l.Status != loan.StatusReturned {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLoanRepo) ExistsOverdueByPatron(ctx context.Context, patronID uint, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loans {
		if l.PatronID == patronID && l.IsOverdue(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLoanRepo) ListDueBefore(ctx context.Context, deadline time.Time, page, pageSize int) ([]*loan.Loan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page > 1 {
		return nil, 0, nil
	}
	var out []*loan.Loan
	for _, l := range r.loans {
		if (l.Status == loan.StatusBorrowed || l.Status == loan.StatusRenewed) && l.DueDate.Before(deadline) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func containsStatus(statuses []loan.Status, s loan.Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uint]*payment.LoanPayment
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uint]*payment.LoanPayment), nextID: 1}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *payment.LoanPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uint) (*payment.LoanPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) FindByTxnRef(ctx context.Context, txnRef string) (*payment.LoanPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TxnRef == txnRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (r *fakePaymentRepo) LockByTxnRef(ctx context.Context, txnRef string) (*payment.LoanPayment, error) {
	return r.FindByTxnRef(ctx, txnRef)
}

func (r *fakePaymentRepo) FindPendingByLoanID(ctx context.Context, loanID uint) (*payment.LoanPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.LoanID == loanID && p.Status == payment.StatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (r *fakePaymentRepo) FindPendingByFineID(ctx context.Context, fineID uint) (*payment.LoanPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.FineID == fineID && p.Status == payment.StatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (r *fakePaymentRepo) Update(ctx context.Context, p *payment.LoanPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return payment.ErrPaymentNotFound
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) ListByPatronID(ctx context.Context, patronID uint, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return nil, 0, nil
}

func (r *fakePaymentRepo) ListPendingCash(ctx context.Context, page, pageSize int) ([]*payment.LoanPayment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return nil, 0, nil
}

func (r *fakePaymentRepo) ListStalePending(ctx context.Context, method payment.Method, deadline time.Time, limit int) ([]*payment.LoanPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return nil, nil
}

type fakeFineRepo struct {
	fines  map[uint]*payment.Fine
	nextID uint
}

func newFakeFineRepo() *fakeFineRepo {
	return &fakeFineRepo{fines: make(map[uint]*payment.Fine), nextID: 1}
}

func (r *fakeFineRepo) Create(ctx context.Context, f *payment.Fine) error {
	f.ID = r.nextID
	r.nextID++
	cp := *f
	r.fines[f.ID] = &cp
	return nil
}

func (r *fakeFineRepo) FindByID(ctx context.Context, id uint) (*payment.Fine, error) {
	f, ok := r.fines[id]
	if !ok {
		return nil, payment.ErrFineNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFineRepo) LockByID(ctx context.Context, id uint) (*payment.Fine, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeFineRepo) Update(ctx context.Context, f *payment.Fine) error {
	if _, ok := r.fines[f.ID]; !ok {
		return payment.ErrFineNotFound
	}
	cp := *f
	r.fines[f.ID] = &cp
	return nil
}

func (r *fakeFineRepo) ListByPatronID(ctx context.Context, patronID uint, status payment.FineStatus, page, pageSize int) ([]*payment.Fine, int64, error) {
	var out []*payment.Fine
	for _, f := range r.fines {
		if f.PatronID == patronID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFineRepo) SumUnpaidByPatron(ctx context.Context, patronID uint) (int64, error) {
	var sum int64
	for _, f := range r.fines {
		if f.PatronID == patronID && f.Status == payment.FineStatusUnpaid {
			sum += f.Amount
		}
	}
	return sum, nil
}

type fakeCopyRepo struct {
	mu      sync.Mutex
	copies  map[uint]*book.BookCopy
	claimed map[uint]bool // 模拟行锁:已被LockFirstAvailable锁走、尚未写回的副本
	nextID  uint
}

func newFakeCopyRepo() *fakeCopyRepo {
	return &fakeCopyRepo{copies: make(map[uint]*book.BookCopy), claimed: make(map[uint]bool), nextID: 1}
}

func (r *fakeCopyRepo) Create(ctx context.Context, c *book.BookCopy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	cp := *c
	r.copies[c.ID] = &cp
	return nil
}

func (r *fakeCopyRepo) FindByID(ctx context.Context, id uint) (*book.BookCopy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.copies[id]
	if !ok {
		return nil, book.ErrCopyNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCopyRepo) FindByBarcode(ctx context.Context, barcode string) (*book.BookCopy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.copies {
		if c.Barcode == barcode {
			cp := *c
			return &cp, nil
		}
	}
	return nil, book.ErrCopyNotFound
}

func (r *fakeCopyRepo) ListByBookID(ctx context.Context, bookID uint) ([]*book.BookCopy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*book.BookCopy
	for _, c := range r.copies {
		if c.BookID == bookID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeCopyRepo) Update(ctx context.Context, c *book.BookCopy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.copies[c.ID]; !ok {
		return book.ErrCopyNotFound
	}
	cp := *c
	r.copies[c.ID] = &cp
	delete(r.claimed, c.ID)
	return nil
}

func (r *fakeCopyRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.copies, id)
	return nil
}

func (r *fakeCopyRepo) LockFirstAvailable(ctx context.Context, bookID uint) (*book.BookCopy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *book.BookCopy
	for _, c := range r.copies {
		if c.BookID == bookID && c.Status == book.CopyStatusAvailable && !r.claimed[c.ID] {
			if best == nil || c.CopyNumber < best.CopyNumber {
				best = c
			}
		}
	}
	if best == nil {
		return nil, book.ErrNoAvailableCopy
	}
	r.claimed[best.ID] = true
	cp := *best
	return &cp, nil
}

func (r *fakeCopyRepo) LockByID(ctx context.Context, id uint) (*book.BookCopy, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCopyRepo) CountByStatus(ctx context.Context, bookID uint) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, available := 0, 0
	for _, c := range r.copies {
		if c.BookID == bookID {
			total++
			if c.Status == book.CopyStatusAvailable {
				available++
			}
		}
	}
	return total, available, nil
}

func (r *fakeCopyRepo) MaxCopyNumber(ctx context.Context, bookID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, c := range r.copies {
		if c.BookID == bookID && c.CopyNumber > max {
			max = c.CopyNumber
		}
	}
	return max, nil
}

type fakePatronRepo struct {
	patrons map[uint]*user.Patron
}

func newFakePatronRepo() *fakePatronRepo {
	return &fakePatronRepo{patrons: make(map[uint]*user.Patron)}
}

func (r *fakePatronRepo) Create(ctx context.Context, p *user.Patron) error {
	r.patrons[p.ID] = p
	return nil
}

func (r *fakePatronRepo) FindByID(ctx context.Context, id uint) (*user.Patron, error) {
	p, ok := r.patrons[id]
	if !ok {
		return nil, apperrors.ErrPatronNotFound
	}
	return p, nil
}

func (r *fakePatronRepo) FindByEmail(ctx context.Context, email string) (*user.Patron, error) {
	for _, p := range r.patrons {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, apperrors.ErrPatronNotFound
}

func (r *fakePatronRepo) Update(ctx context.Context, p *user.Patron) error {
	r.patrons[p.ID] = p
	return nil
}

func (r *fakePatronRepo) Delete(ctx context.Context, id uint) error {
	delete(r.patrons, id)
	return nil
}

func (r *fakePatronRepo) List(ctx context.Context, page, pageSize int) ([]*user.Patron, int64, error) {
	return nil, 0, nil
}

// fakeBookService 只实现借还路径用到的SetCopyStatus
type fakeBookService struct {
	copyRepo *fakeCopyRepo
}

func (s *fakeBookService) RegisterBook(ctx context.Context, isbn, title, author, publisher, category, coverURL, description string) (*book.Book, error) {
	panic("not used")
}

func (s *fakeBookService) GetBookByID(ctx context.Context, id uint) (*book.Book, error) {
	panic("not used")
}

func (s *fakeBookService) GetBookByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	panic("not used")
}

func (s *fakeBookService) UpdateBookInfo(ctx context.Context, id uint, title, author, publisher, category, description string) error {
	panic("not used")
}

func (s *fakeBookService) ListBooks(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	panic("not used")
}

func (s *fakeBookService) AddCopies(ctx context.Context, bookID uint, count int, condition book.Condition, location string) ([]*book.BookCopy, error) {
	panic("not used")
}

func (s *fakeBookService) ListCopies(ctx context.Context, bookID uint) ([]*book.BookCopy, error) {
	panic("not used")
}

func (s *fakeBookService) GetCopyByBarcode(ctx context.Context, barcode string) (*book.BookCopy, error) {
	panic("not used")
}

func (s *fakeBookService) SetCopyStatus(ctx context.Context, c *book.BookCopy, target book.CopyStatus) error {
	if err := c.TransitionTo(target); err != nil {
		return err
	}
	return s.copyRepo.Update(ctx, c)
}

func (s *fakeBookService) RecountCopies(ctx context.Context, bookID uint) error {
	return nil
}

func (s *fakeBookService) DeleteCopy(ctx context.Context, copyID uint) error {
	panic("not used")
}

// fakeMembershipService 记录钩子调用次数
type fakeMembershipService struct {
	loanActivated int
	onTimeReturns int
	violations    int
}

func (s *fakeMembershipService) EnsureMembership(ctx context.Context, patronID uint) (*membership.UserMembership, error) {
	return &membership.UserMembership{PatronID: patronID}, nil
}

func (s *fakeMembershipService) GetMembership(ctx context.Context, patronID uint) (*membership.UserMembership, error) {
	return &membership.UserMembership{PatronID: patronID}, nil
}

func (s *fakeMembershipService) ListTiers(ctx context.Context) ([]*membership.MembershipTier, error) {
	return nil, nil
}

func (s *fakeMembershipService) OnLoanActivated(ctx context.Context, patronID uint) error {
	s.loanActivated++
	return nil
}

func (s *fakeMembershipService) OnOnTimeReturn(ctx context.Context, patronID uint) error {
	s.onTimeReturns++
	return nil
}

func (s *fakeMembershipService) OnViolation(ctx context.Context, patronID uint) error {
	s.violations++
	return nil
}

func (s *fakeMembershipService) EvaluateTier(ctx context.Context, m *membership.UserMembership) (*membership.MembershipTier, error) {
	return nil, nil
}

// ==============================
// 测试环境组装
// ==============================

type testEnv struct {
	loanRepo      *fakeLoanRepo
	paymentRepo   *fakePaymentRepo
	fineRepo      *fakeFineRepo
	copyRepo      *fakeCopyRepo
	patronRepo    *fakePatronRepo
	bookSvc       *fakeBookService
	membershipSvc *fakeMembershipService
	txManager     *mysql.TxManager
	cfg           config.LoanConfig
}

func newTestEnv() *testEnv {
	copyRepo := newFakeCopyRepo()
	return &testEnv{
		loanRepo:      newFakeLoanRepo(),
		paymentRepo:   newFakePaymentRepo(),
		fineRepo:      newFakeFineRepo(),
		copyRepo:      copyRepo,
		patronRepo:    newFakePatronRepo(),
		bookSvc:       &fakeBookService{copyRepo: copyRepo},
		membershipSvc: &fakeMembershipService{},
		txManager:     mysql.NewTxManager(nil),
		cfg: config.LoanConfig{
			DepositAmount: 50000,
			FinePerDay:    5000,
			LoanPeriod:    14 * 24 * time.Hour,
			RenewalLimit:  2,
			PaymentExpire: 15 * time.Minute,
		},
	}
}

// seedPatron 建一个可借书的读者账户
func (e *testEnv) seedPatron(t *testing.T, id uint) *user.Patron {
	t.Helper()
	p := user.NewPatron("reader@example.com", "$2a$10$hash", "读者甲", "0912345678", user.RolePatron)
	p.ID = id
	if err := e.patronRepo.Create(context.Background(), p); err != nil {
		t.Fatalf("创建读者失败: %v", err)
	}
	return p
}

// seedCopies 为图书上架count个在架副本
func (e *testEnv) seedCopies(t *testing.T, bookID uint, count int) []*book.BookCopy {
	t.Helper()
	out := make([]*book.BookCopy, 0, count)
	for i := 1; i <= count; i++ {
		c := book.NewBookCopy(bookID, book.FormatBarcode("97860431", i), i, book.ConditionNew, "A区3排")
		if err := e.copyRepo.Create(context.Background(), c); err != nil {
			t.Fatalf("创建副本失败: %v", err)
		}
		out = append(out, c)
	}
	return out
}

// seedActiveLoan 建一张已生效(BORROWED)的借阅单和对应外借副本
func (e *testEnv) seedActiveLoan(t *testing.T, patronID, bookID uint) *loan.Loan {
	t.Helper()
	ctx := context.Background()

	c := e.seedCopies(t, bookID, 1)[0]
	if err := c.TransitionTo(book.CopyStatusBorrowed); err != nil {
		t.Fatalf("外借副本失败: %v", err)
	}
	if err := e.copyRepo.Update(ctx, c); err != nil {
		t.Fatalf("更新副本失败: %v", err)
	}

	l := loan.NewDirectLoan(patronID, bookID, c.ID, e.cfg.LoanPeriod)
	if err := e.loanRepo.Create(ctx, l); err != nil {
		t.Fatalf("创建借阅单失败: %v", err)
	}
	return l
}

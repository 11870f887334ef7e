package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 内存仓储实现,用于领域服务单元测试

type fakeBookRepo struct {
	books  map[uint]*Book
	nextID uint
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uint]*Book), nextID: 1}
}

func (r *fakeBookRepo) Create(ctx context.Context, b *Book) error {
	b.ID = r.nextID
	r.nextID++
	r.books[b.ID] = b
	return nil
}

func (r *fakeBookRepo) FindByID(ctx context.Context, id uint) (*Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return b, nil
}

func (r *fakeBookRepo) FindByISBN(ctx context.Context, isbn string) (*Book, error) {
	for _, b := range r.books {
		if b.ISBN == isbn {
			return b, nil
		}
	}
	return nil, ErrBookNotFound
}

func (r *fakeBookRepo) Update(ctx context.Context, b *Book) error {
	r.books[b.ID] = b
	return nil
}

func (r *fakeBookRepo) Delete(ctx context.Context, id uint) error {
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) List(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	out := make([]*Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookRepo) UpdateCopyCounts(ctx context.Context, id uint, total, available int) error {
	b, ok := r.books[id]
	if !ok {
		return ErrBookNotFound
	}
	b.TotalCopies = total
	b.AvailableCopies = available
	return nil
}

type fakeCopyRepo struct {
	copies map[uint]*BookCopy
	nextID uint
}

func newFakeCopyRepo() *fakeCopyRepo {
	return &fakeCopyRepo{copies: make(map[uint]*BookCopy), nextID: 1}
}

func (r *fakeCopyRepo) Create(ctx context.Context, c *BookCopy) error {
	for _, existing := range r.copies {
		if existing.Barcode == c.Barcode {
			return ErrBarcodeDuplicate
		}
	}
	c.ID = r.nextID
	r.nextID++
	r.copies[c.ID] = c
	return nil
}

func (r *fakeCopyRepo) FindByID(ctx context.Context, id uint) (*BookCopy, error) {
	c, ok := r.copies[id]
	if !ok {
		return nil, ErrCopyNotFound
	}
	return c, nil
}

func (r *fakeCopyRepo) FindByBarcode(ctx context.Context, barcode string) (*BookCopy, error) {
	for _, c := range r.copies {
		if c.Barcode == barcode {
			return c, nil
		}
	}
	return nil, ErrCopyNotFound
}

func (r *fakeCopyRepo) ListByBookID(ctx context.Context, bookID uint) ([]*BookCopy, error) {
	out := make([]*BookCopy, 0)
	for _, c := range r.copies {
		if c.BookID == bookID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCopyRepo) Update(ctx context.Context, c *BookCopy) error {
	r.copies[c.ID] = c
	return nil
}

func (r *fakeCopyRepo) Delete(ctx context.Context, id uint) error {
	delete(r.copies, id)
	return nil
}

func (r *fakeCopyRepo) LockFirstAvailable(ctx context.Context, bookID uint) (*BookCopy, error) {
	var best *BookCopy
	for _, c := range r.copies {
		if c.BookID == bookID && c.IsAvailable() {
			if best == nil || c.CopyNumber < best.CopyNumber {
				best = c
			}
		}
	}
	if best == nil {
		return nil, ErrNoAvailableCopy
	}
	return best, nil
}

func (r *fakeCopyRepo) LockByID(ctx context.Context, id uint) (*BookCopy, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCopyRepo) CountByStatus(ctx context.Context, bookID uint) (int, int, error) {
	total, available := 0, 0
	for _, c := range r.copies {
		if c.BookID == bookID {
			total++
			if c.IsAvailable() {
				available++
			}
		}
	}
	return total, available, nil
}

func (r *fakeCopyRepo) MaxCopyNumber(ctx context.Context, bookID uint) (int, error) {
	max := 0
	for _, c := range r.copies {
		if c.BookID == bookID && c.CopyNumber > max {
			max = c.CopyNumber
		}
	}
	return max, nil
}

func newTestService() (Service, *fakeBookRepo, *fakeCopyRepo) {
	repo := newFakeBookRepo()
	copyRepo := newFakeCopyRepo()
	return NewService(repo, copyRepo), repo, copyRepo
}

// TestRegisterBook 测试图书登记
func TestRegisterBook(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	t.Run("正常登记", func(t *testing.T) {
		b, err := svc.RegisterBook(ctx, "9787115428028", "Go语言实战", "William Kennedy", "人民邮电出版社", "编程", "", "")
		require.NoError(t, err)
		assert.NotZero(t, b.ID)
		assert.Equal(t, 0, b.TotalCopies)
	})

	t.Run("ISBN重复", func(t *testing.T) {
		_, err := svc.RegisterBook(ctx, "9787115428028", "另一本", "某作者", "某出版社", "编程", "", "")
		assert.ErrorIs(t, err, ErrISBNDuplicate)
	})

	t.Run("ISBN格式非法", func(t *testing.T) {
		_, err := svc.RegisterBook(ctx, "12345", "书", "作者", "出版社", "", "", "")
		assert.ErrorIs(t, err, ErrInvalidISBN)
	})

	t.Run("带分隔符的ISBN", func(t *testing.T) {
		b, err := svc.RegisterBook(ctx, "978-7-115-54608-1", "Go程序设计语言", "Alan Donovan", "人民邮电出版社", "编程", "", "")
		require.NoError(t, err)
		assert.NotZero(t, b.ID)
	})
}

// TestAddCopies 测试副本添加与条码生成
func TestAddCopies(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	b, err := svc.RegisterBook(ctx, "9787115428028", "Go语言实战", "William Kennedy", "人民邮电出版社", "编程", "", "")
	require.NoError(t, err)

	t.Run("条码按ISBN前8位生成", func(t *testing.T) {
		copies, err := svc.AddCopies(ctx, b.ID, 3, ConditionNew, "A区1排")
		require.NoError(t, err)
		require.Len(t, copies, 3)

		assert.Equal(t, "97871154-C001", copies[0].Barcode)
		assert.Equal(t, "97871154-C002", copies[1].Barcode)
		assert.Equal(t, "97871154-C003", copies[2].Barcode)
		assert.Equal(t, CopyStatusAvailable, copies[0].Status)
	})

	t.Run("副本计数被重算", func(t *testing.T) {
		got, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.TotalCopies)
		assert.Equal(t, 3, got.AvailableCopies)
	})

	t.Run("续加副本序号延续", func(t *testing.T) {
		copies, err := svc.AddCopies(ctx, b.ID, 2, ConditionGood, "A区1排")
		require.NoError(t, err)
		require.Len(t, copies, 2)
		assert.Equal(t, "97871154-C004", copies[0].Barcode)
		assert.Equal(t, "97871154-C005", copies[1].Barcode)
	})

	t.Run("数量非法", func(t *testing.T) {
		_, err := svc.AddCopies(ctx, b.ID, 0, ConditionNew, "")
		assert.Error(t, err)
	})
}

// TestSetCopyStatus 测试副本状态流转与计数重算
func TestSetCopyStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	b, err := svc.RegisterBook(ctx, "9787115428028", "Go语言实战", "William Kennedy", "人民邮电出版社", "编程", "", "")
	require.NoError(t, err)
	copies, err := svc.AddCopies(ctx, b.ID, 2, ConditionNew, "")
	require.NoError(t, err)

	t.Run("借出后在架数减一", func(t *testing.T) {
		err := svc.SetCopyStatus(ctx, copies[0], CopyStatusBorrowed)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalCopies)
		assert.Equal(t, 1, got.AvailableCopies)
	})

	t.Run("非法流转被拒绝", func(t *testing.T) {
		// BORROWED不能直接到RESERVED
		err := svc.SetCopyStatus(ctx, copies[0], CopyStatusReserved)
		assert.Error(t, err)
	})

	t.Run("破损归还转入修复中", func(t *testing.T) {
		err := svc.SetCopyStatus(ctx, copies[0], CopyStatusRepairing)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		// 修复中不计入在架数
		assert.Equal(t, 1, got.AvailableCopies)
	})
}

// TestDeleteCopy 测试副本删除规则
func TestDeleteCopy(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	b, err := svc.RegisterBook(ctx, "9787115428028", "Go语言实战", "William Kennedy", "人民邮电出版社", "编程", "", "")
	require.NoError(t, err)
	copies, err := svc.AddCopies(ctx, b.ID, 2, ConditionNew, "")
	require.NoError(t, err)

	t.Run("外借中不能删除", func(t *testing.T) {
		require.NoError(t, svc.SetCopyStatus(ctx, copies[0], CopyStatusBorrowed))

		err := svc.DeleteCopy(ctx, copies[0].ID)
		assert.ErrorIs(t, err, ErrCopyBorrowed)
	})

	t.Run("在架副本可以删除", func(t *testing.T) {
		err := svc.DeleteCopy(ctx, copies[1].ID)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalCopies)
		assert.Equal(t, 0, got.AvailableCopies)
	})
}

// TestLockFirstAvailable 测试取编号最小的在架副本
func TestLockFirstAvailable(t *testing.T) {
	ctx := context.Background()
	svc, _, copyRepo := newTestService()

	b, err := svc.RegisterBook(ctx, "9787115428028", "Go语言实战", "William Kennedy", "人民邮电出版社", "编程", "", "")
	require.NoError(t, err)
	copies, err := svc.AddCopies(ctx, b.ID, 3, ConditionNew, "")
	require.NoError(t, err)

	// 1号副本借出后,应取到2号
	require.NoError(t, svc.SetCopyStatus(ctx, copies[0], CopyStatusBorrowed))

	got, err := copyRepo.LockFirstAvailable(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CopyNumber)

	// 全部借出后返回ErrNoAvailableCopy
	require.NoError(t, svc.SetCopyStatus(ctx, copies[1], CopyStatusBorrowed))
	require.NoError(t, svc.SetCopyStatus(ctx, copies[2], CopyStatusBorrowed))

	_, err = copyRepo.LockFirstAvailable(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNoAvailableCopy)
}

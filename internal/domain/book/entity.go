package book

import (
	"fmt"
	"regexp"
	"time"
)

// CopyStatus 副本状态
// 教学要点:
// 1. 使用string类型而非int,和盘点单、条码枪导出的报表保持一致
// 2. 定义为类型别名,便于添加方法
type CopyStatus string

const (
	CopyStatusAvailable CopyStatus = "AVAILABLE" // 在架可借
	CopyStatusBorrowed  CopyStatus = "BORROWED"  // 已借出
	CopyStatusReserved  CopyStatus = "RESERVED"  // 已锁定(押金待支付)
	CopyStatusLost      CopyStatus = "LOST"      // 丢失
	CopyStatusRepairing CopyStatus = "REPAIRING" // 修复中(破损下架)
)

// String 实现Stringer接口(方便日志输出)
func (s CopyStatus) String() string {
	return string(s)
}

// Valid 检查状态值是否合法
func (s CopyStatus) Valid() bool {
	switch s {
	case CopyStatusAvailable, CopyStatusBorrowed, CopyStatusReserved,
		CopyStatusLost, CopyStatusRepairing:
		return true
	}
	return false
}

// Condition 副本品相
type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
	ConditionPoor    Condition = "POOR"
	ConditionDamaged Condition = "DAMAGED"
)

// Valid 检查品相值是否合法
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是书目信息,BookCopy是物理副本,借阅发生在副本上
// 2. ISBN作为业务唯一标识(数据库层保证唯一性)
// 3. AvailableCopies是冗余计数,只通过重算副本状态更新,不做增减
type Book struct {
	ID              uint
	ISBN            string // ISBN号(国际标准书号)
	Title           string // 书名
	Author          string // 作者
	Publisher       string // 出版社
	Category        string // 分类
	CoverURL        string // 封面图片URL
	Description     string // 图书描述
	TotalCopies     int    // 副本总数
	AvailableCopies int    // 在架可借副本数(冗余计数)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBook 创建新图书(工厂方法)
func NewBook(isbn, title, author, publisher, category, coverURL, description string) *Book {
	now := time.Now()
	return &Book{
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		Publisher:   publisher,
		Category:    category,
		CoverURL:    coverURL,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateInfo 更新图书基本信息
func (b *Book) UpdateInfo(title, author, publisher, category, description string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if publisher != "" {
		b.Publisher = publisher
	}
	if category != "" {
		b.Category = category
	}
	if description != "" {
		b.Description = description
	}
	b.UpdatedAt = time.Now()
}

// BarcodePrefix 生成副本条码前缀
// 规则:取ISBN去除分隔符后的前8位;ISBN不足8位时用图书ID补零(%08d)
func (b *Book) BarcodePrefix() string {
	clean := nonDigit.ReplaceAllString(b.ISBN, "")
	if len(clean) >= 8 {
		return clean[:8]
	}
	return fmt.Sprintf("%08d", b.ID)
}

var nonDigit = regexp.MustCompile(`[^0-9]`)

// BookCopy 图书副本实体
// 教学要点:
// 1. 副本是实际被借出/归还的物理对象,Barcode全馆唯一
// 2. CopyNumber在同一本书内递增,和条码后缀一致(C001,C002...)
// 3. Notes记录破损归还等运营备注,只追加不覆盖
type BookCopy struct {
	ID         uint
	BookID     uint       // 所属图书ID
	Barcode    string     // 条码(全馆唯一,如 97871154-C001)
	CopyNumber int        // 副本序号(同一本书内从1递增)
	Status     CopyStatus // 副本状态
	Condition  Condition  // 品相
	Location   string     // 馆藏位置(如 A区3排)
	Notes      string     // 运营备注
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBookCopy 创建新副本(工厂方法)
// 初始状态为AVAILABLE,品相默认NEW
func NewBookCopy(bookID uint, barcode string, copyNumber int, condition Condition, location string) *BookCopy {
	if !condition.Valid() {
		condition = ConditionNew
	}
	now := time.Now()
	return &BookCopy{
		BookID:     bookID,
		Barcode:    barcode,
		CopyNumber: copyNumber,
		Status:     CopyStatusAvailable,
		Condition:  condition,
		Location:   location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FormatBarcode 生成副本条码
// 格式:{前缀}-C{三位序号},如 97871154-C001
func FormatBarcode(prefix string, copyNumber int) string {
	return fmt.Sprintf("%s-C%03d", prefix, copyNumber)
}

// IsAvailable 副本是否在架可借
func (c *BookCopy) IsAvailable() bool {
	return c.Status == CopyStatusAvailable
}

// CanTransitionTo 检查副本状态是否可以转换到目标状态
// 状态机设计,防止非法状态跳转
// 例如:LOST是终态,不能直接回到AVAILABLE
func (c *BookCopy) CanTransitionTo(target CopyStatus) bool {
	transitions := map[CopyStatus][]CopyStatus{
		// 在架→锁定(押金流程)/借出(现场直借)/下架
		CopyStatusAvailable: {CopyStatusReserved, CopyStatusBorrowed, CopyStatusLost, CopyStatusRepairing},
		// 锁定→借出(押金到账)/在架(支付失败或超时释放)
		CopyStatusReserved: {CopyStatusBorrowed, CopyStatusAvailable},
		// 借出→在架(完好归还)/修复中(破损归还)/丢失
		CopyStatusBorrowed: {CopyStatusAvailable, CopyStatusRepairing, CopyStatusLost},
		// 修复中→在架(修复完成)/丢失(报废)
		CopyStatusRepairing: {CopyStatusAvailable, CopyStatusLost},
		// 丢失→终态
		CopyStatusLost: {},
	}

	allowedTargets, exists := transitions[c.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 副本状态转换
func (c *BookCopy) TransitionTo(target CopyStatus) error {
	if !c.CanTransitionTo(target) {
		return ErrInvalidCopyTransition
	}
	c.Status = target
	c.UpdatedAt = time.Now()
	return nil
}

// AppendNote 追加运营备注(如破损归还记录)
func (c *BookCopy) AppendNote(note string) {
	if note == "" {
		return
	}
	if c.Notes == "" {
		c.Notes = note
	} else {
		c.Notes = c.Notes + "; " + note
	}
	c.UpdatedAt = time.Now()
}

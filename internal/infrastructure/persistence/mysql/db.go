package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）,生产环境应改用版本化迁移脚本
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PatronModel{},
		&BookModel{},
		&BookCopyModel{},
		&LoanModel{},
		&LoanPaymentModel{},
		&FineModel{},
		&MembershipTierModel{},
		&UserMembershipModel{},
	)
}

// PatronModel GORM读者模型
// 设计说明：
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain/user/entity.go是领域实体,不依赖GORM
// 3. Repository负责两者之间的转换
type PatronModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码(bcrypt加密)"`
	Name      string         `gorm:"size:50;not null;comment:姓名"`
	Phone     string         `gorm:"size:20;comment:电话"`
	Role      string         `gorm:"size:20;not null;default:PATRON;comment:角色(PATRON/LIBRARIAN/ADMIN)"`
	Active    bool           `gorm:"not null;default:1;comment:账号是否可用"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (PatronModel) TableName() string {
	return "patrons"
}

// BookModel GORM图书模型
// 设计说明:
// 1. ISBN有唯一索引,防止重复入编
// 2. TotalCopies/AvailableCopies是副本表的冗余统计,借还后重算回写
// 3. 标题/作者加搜索索引,分类加过滤索引
type BookModel struct {
	ID              uint           `gorm:"primaryKey"`
	ISBN            string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title           string         `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author          string         `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Publisher       string         `gorm:"size:100;comment:出版社"`
	Category        string         `gorm:"index;size:50;comment:分类"`
	CoverURL        string         `gorm:"size:500;comment:封面图片URL"`
	Description     string         `gorm:"type:text;comment:图书简介"`
	TotalCopies     int            `gorm:"default:0;comment:副本总数"`
	AvailableCopies int            `gorm:"default:0;comment:可借副本数"`
	CreatedAt       time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time      `gorm:"comment:更新时间"`
	DeletedAt       gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// BookCopyModel GORM副本模型
// 设计说明:
// 1. Barcode有唯一索引(条码枪扫码定位)
// 2. (book_id, status)复合索引服务"锁定第一个可借副本"查询
// 3. CopyNumber在同一图书内递增,生成条码后缀
type BookCopyModel struct {
	ID         uint           `gorm:"primaryKey"`
	BookID     uint           `gorm:"index:idx_book_status;not null;comment:图书ID"`
	Barcode    string         `gorm:"uniqueIndex;size:32;not null;comment:副本条码"`
	CopyNumber int            `gorm:"not null;comment:副本序号"`
	Status     string         `gorm:"index:idx_book_status;size:20;not null;default:AVAILABLE;comment:副本状态"`
	Condition  string         `gorm:"size:20;not null;default:NEW;comment:品相"`
	Location   string         `gorm:"size:50;comment:架位"`
	Notes      string         `gorm:"size:500;comment:备注(破损记录等)"`
	CreatedAt  time.Time      `gorm:"comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"comment:更新时间"`
	DeletedAt  gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookCopyModel) TableName() string {
	return "book_copies"
}

// LoanModel GORM借阅单模型
// 设计说明:
// 1. (patron_id, status)复合索引服务"我的借阅"与重复借阅检查
// 2. (status, due_date)复合索引服务逾期扫描
// 3. 金额单位为VND,int64存储
type LoanModel struct {
	ID            uint       `gorm:"primaryKey"`
	PatronID      uint       `gorm:"index:idx_patron_status;not null;comment:读者ID"`
	BookID        uint       `gorm:"index;not null;comment:图书ID"`
	CopyID        uint       `gorm:"index;not null;comment:副本ID"`
	Status        string     `gorm:"index:idx_patron_status;index:idx_status_due;size:20;not null;comment:借阅状态"`
	BorrowedAt    time.Time  `gorm:"comment:借出时间"`
	DueDate       time.Time  `gorm:"index:idx_status_due;comment:应还日期"`
	ReturnDate    *time.Time `gorm:"comment:实际归还时间"`
	RenewalCount  int        `gorm:"default:0;comment:已续借次数"`
	DepositAmount int64      `gorm:"default:0;comment:押金金额(VND)"`
	FineAmount    int64      `gorm:"default:0;comment:罚金金额(VND)"`
	Notes         string     `gorm:"size:500;comment:备注"`
	CreatedAt     time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanModel) TableName() string {
	return "loans"
}

// LoanPaymentModel GORM支付单模型
// 设计说明:
// 1. TxnRef是对接网关的商户订单号,唯一索引兼作回调幂等锁的定位键
// 2. LoanID/FineID二选一:押金单挂借阅单,罚款单挂罚款记录
type LoanPaymentModel struct {
	ID           uint       `gorm:"primaryKey"`
	LoanID       uint       `gorm:"index;default:0;comment:借阅单ID(押金支付)"`
	FineID       uint       `gorm:"index;default:0;comment:罚款单ID(罚款支付)"`
	PatronID     uint       `gorm:"index;not null;comment:读者ID"`
	Amount       int64      `gorm:"not null;comment:金额(VND)"`
	Method       string     `gorm:"size:10;not null;comment:支付方式(CASH/VNPAY)"`
	Status       string     `gorm:"index;size:20;not null;default:PENDING;comment:支付状态"`
	TxnRef       string     `gorm:"uniqueIndex;size:64;not null;comment:商户订单号"`
	GatewayTxnNo string     `gorm:"size:64;comment:网关交易号"`
	BankCode     string     `gorm:"size:20;comment:银行代码"`
	ConfirmedBy  uint       `gorm:"default:0;comment:确认人(现金支付的馆员ID)"`
	PaidAt       *time.Time `gorm:"comment:到账时间"`
	CreatedAt    time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt    time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanPaymentModel) TableName() string {
	return "loan_payments"
}

// FineModel GORM罚款单模型
type FineModel struct {
	ID        uint       `gorm:"primaryKey"`
	LoanID    uint       `gorm:"index;not null;comment:借阅单ID"`
	PatronID  uint       `gorm:"index:idx_fine_patron_status;not null;comment:读者ID"`
	Amount    int64      `gorm:"not null;comment:金额(VND)"`
	Reason    string     `gorm:"size:255;comment:罚款原因"`
	Status    string     `gorm:"index:idx_fine_patron_status;size:10;not null;default:UNPAID;comment:状态(UNPAID/PAID/WAIVED)"`
	PaidAt    *time.Time `gorm:"comment:缴清时间"`
	CreatedAt time.Time  `gorm:"comment:创建时间"`
	UpdatedAt time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (FineModel) TableName() string {
	return "fines"
}

// MembershipTierModel GORM会员等级模型
// 运营配置数据,启动时种子写入
type MembershipTierModel struct {
	ID                   uint      `gorm:"primaryKey"`
	Name                 string    `gorm:"uniqueIndex;size:20;not null;comment:等级名称(BASIC/VIP/PREMIUM)"`
	DisplayName          string    `gorm:"size:50;comment:展示名"`
	Description          string    `gorm:"size:255;comment:等级说明"`
	MaxBooks             int       `gorm:"not null;comment:同时在借上限"`
	LoanDurationDays     int       `gorm:"not null;comment:借期(天)"`
	LateFeeDiscount      float64   `gorm:"default:0;comment:罚金折扣"`
	ReservationPriority  bool      `gorm:"default:0;comment:预约优先"`
	EarlyAccess          bool      `gorm:"default:0;comment:新书优先"`
	MinLoansRequired     int       `gorm:"default:0;comment:升级所需累计借阅数"`
	MinPointsRequired    int       `gorm:"default:0;comment:升级所需信誉积分"`
	MaxViolationsAllowed int       `gorm:"default:0;comment:容忍违规上限"`
	Color                string    `gorm:"size:10;comment:展示色"`
	Icon                 string    `gorm:"size:50;comment:展示图标"`
	CreatedAt            time.Time `gorm:"comment:创建时间"`
	UpdatedAt            time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (MembershipTierModel) TableName() string {
	return "membership_tiers"
}

// UserMembershipModel GORM读者会员记录模型
type UserMembershipModel struct {
	ID             uint       `gorm:"primaryKey"`
	PatronID       uint       `gorm:"uniqueIndex;not null;comment:读者ID"`
	TierID         uint       `gorm:"index;not null;comment:当前等级ID"`
	TotalLoans     int        `gorm:"default:0;comment:累计借阅数"`
	Points         int        `gorm:"default:0;comment:信誉积分"`
	ViolationCount int        `gorm:"default:0;comment:违规次数"`
	TierChangedAt  *time.Time `gorm:"comment:最近等级变动时间"`
	JoinedAt       time.Time  `gorm:"comment:入会时间"`
	CreatedAt      time.Time  `gorm:"comment:创建时间"`
	UpdatedAt      time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserMembershipModel) TableName() string {
	return "user_memberships"
}

package dto

// BorrowBookRequest HTTP借书请求
// method决定押金支付方式:CASH需到柜台由馆员确认,VNPAY随后调用支付接口拿网关URL
type BorrowBookRequest struct {
	BookID uint   `json:"book_id" binding:"required" example:"1"`
	Method string `json:"method" binding:"required,oneof=CASH VNPAY" example:"VNPAY"`
}

// DirectBorrowRequest 柜台直借请求(馆员操作,需指定读者)
type DirectBorrowRequest struct {
	PatronID uint `json:"patron_id" binding:"required" example:"10"`
	BookID   uint `json:"book_id" binding:"required" example:"1"`
}

// BorrowBookResponse HTTP借书响应
type BorrowBookResponse struct {
	LoanID        uint   `json:"loan_id" example:"1"`
	PaymentID     uint   `json:"payment_id" example:"1"`
	TxnRef        string `json:"txn_ref" example:"LOAN_1_1699248000123"`
	CopyBarcode   string `json:"copy_barcode" example:"97860431-C001"`
	Status        string `json:"status" example:"PENDING_PAYMENT"`
	DepositAmount int64  `json:"deposit_amount" example:"50000"`
	DueDate       string `json:"due_date" example:"2024-01-29 10:30:00"`
}

// LoanResponse HTTP借阅单响应
type LoanResponse struct {
	ID            uint   `json:"id" example:"1"`
	PatronID      uint   `json:"patron_id" example:"1"`
	BookID        uint   `json:"book_id" example:"1"`
	CopyID        uint   `json:"copy_id" example:"1"`
	Status        string `json:"status" example:"BORROWED"`
	BorrowedAt    string `json:"borrowed_at" example:"2024-01-15 10:30:00"`
	DueDate       string `json:"due_date" example:"2024-01-29 10:30:00"`
	ReturnDate    string `json:"return_date,omitempty"`
	RenewalCount  int    `json:"renewal_count" example:"0"`
	DepositAmount int64  `json:"deposit_amount" example:"50000"`
	FineAmount    int64  `json:"fine_amount" example:"0"`
	Notes         string `json:"notes,omitempty"`
}

// ListLoansRequest HTTP借阅列表请求
type ListLoansRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING_PAYMENT BORROWED RENEWED PENDING_RETURN OVERDUE RETURNED" example:"BORROWED"`
}

// ConfirmReturnRequest HTTP确认归还请求(馆员)
type ConfirmReturnRequest struct {
	Damaged    bool   `json:"damaged" example:"false"`
	DamageFine int64  `json:"damage_fine" binding:"min=0" example:"0"` // 破损赔偿金额(VND)
	Notes      string `json:"notes" binding:"max=500"`
}

// ReturnBookResponse HTTP还书结果响应
type ReturnBookResponse struct {
	LoanID      uint   `json:"loan_id" example:"1"`
	Status      string `json:"status" example:"RETURNED"`
	OnTime      bool   `json:"on_time" example:"true"`
	DaysOverdue int64  `json:"days_overdue" example:"0"`
	OverdueFine int64  `json:"overdue_fine" example:"0"`
	DamageFine  int64  `json:"damage_fine" example:"0"`
	FineID      uint   `json:"fine_id,omitempty"`
	ReturnedAt  string `json:"returned_at" example:"2024-01-20 14:00:00"`
}

// OverdueScanResponse HTTP逾期扫描结果
type OverdueScanResponse struct {
	Scanned int `json:"scanned" example:"10"`
	Marked  int `json:"marked" example:"3"`
}

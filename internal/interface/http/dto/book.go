package dto

// RegisterBookRequest HTTP图书入编请求
// validator tag说明:
// - required: 必填字段
// - min/max: 数值范围校验
type RegisterBookRequest struct {
	ISBN        string `json:"isbn" binding:"required,min=10,max=13" example:"9786043191721"`
	Title       string `json:"title" binding:"required,max=200" example:"Lập trình Go"`
	Author      string `json:"author" binding:"required,max=100" example:"Nguyễn Văn A"`
	Publisher   string `json:"publisher" binding:"max=100" example:"NXB Trẻ"`
	Category    string `json:"category" binding:"max=50" example:"Công nghệ"`
	CoverURL    string `json:"cover_url" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	Description string `json:"description" binding:"max=5000"`
	// 入编时一并登记的副本数,0表示暂不登记
	InitialCopies int    `json:"initial_copies" binding:"min=0,max=100" example:"3"`
	Condition     string `json:"condition" binding:"omitempty,oneof=NEW GOOD WORN" example:"NEW"`
	Location      string `json:"location" binding:"max=50" example:"A区3排"`
}

// RegisterBookResponse HTTP图书入编响应
type RegisterBookResponse struct {
	ID           uint     `json:"id" example:"1"`
	ISBN         string   `json:"isbn" example:"9786043191721"`
	Title        string   `json:"title" example:"Lập trình Go"`
	CopyBarcodes []string `json:"copy_barcodes,omitempty"`
}

// BookResponse HTTP图书详情响应
type BookResponse struct {
	ID              uint   `json:"id" example:"1"`
	ISBN            string `json:"isbn" example:"9786043191721"`
	Title           string `json:"title" example:"Lập trình Go"`
	Author          string `json:"author" example:"Nguyễn Văn A"`
	Publisher       string `json:"publisher" example:"NXB Trẻ"`
	Category        string `json:"category" example:"Công nghệ"`
	CoverURL        string `json:"cover_url" example:"https://example.com/cover.jpg"`
	Description     string `json:"description"`
	TotalCopies     int    `json:"total_copies" example:"5"`
	AvailableCopies int    `json:"available_copies" example:"3"`
	CreatedAt       string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt       string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// BookListItem HTTP目录列表项
// 列表查询时不返回Description字段(减少数据传输量)
type BookListItem struct {
	ID              uint   `json:"id" example:"1"`
	ISBN            string `json:"isbn" example:"9786043191721"`
	Title           string `json:"title" example:"Lập trình Go"`
	Author          string `json:"author" example:"Nguyễn Văn A"`
	Publisher       string `json:"publisher" example:"NXB Trẻ"`
	Category        string `json:"category" example:"Công nghệ"`
	CoverURL        string `json:"cover_url" example:"https://example.com/cover.jpg"`
	TotalCopies     int    `json:"total_copies" example:"5"`
	AvailableCopies int    `json:"available_copies" example:"3"`
}

// ListBooksRequest HTTP目录查询请求
type ListBooksRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword       string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Category      string `form:"category" binding:"omitempty,max=50" example:"Công nghệ"`
	OnlyAvailable bool   `form:"only_available" example:"false"`
}

// ListBooksResponse HTTP目录查询响应
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total" example:"100"`
	Page       int            `json:"page" example:"1"`
	PageSize   int            `json:"page_size" example:"20"`
	TotalPages int            `json:"total_pages" example:"5"`
}

// AddCopiesRequest HTTP批量登记副本请求
type AddCopiesRequest struct {
	Count     int    `json:"count" binding:"required,min=1,max=100" example:"3"`
	Condition string `json:"condition" binding:"omitempty,oneof=NEW GOOD WORN" example:"NEW"`
	Location  string `json:"location" binding:"max=50" example:"A区3排"`
}

// CopyResponse HTTP副本响应
type CopyResponse struct {
	ID         uint   `json:"id" example:"1"`
	BookID     uint   `json:"book_id" example:"1"`
	Barcode    string `json:"barcode" example:"97860431-C001"`
	CopyNumber int    `json:"copy_number" example:"1"`
	Status     string `json:"status" example:"AVAILABLE"`
	Condition  string `json:"condition" example:"NEW"`
	Location   string `json:"location" example:"A区3排"`
	Notes      string `json:"notes"`
}

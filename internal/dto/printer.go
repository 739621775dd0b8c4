package dto

// ── 打印机模块 DTO ──

// CreatePrinterRequest 创建打印机请求
type CreatePrinterRequest struct {
	Name        string  `json:"name"        binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Location    *string `json:"location"    binding:"omitempty,min=1,max=100"`
	Status      string  `json:"status"      binding:"omitempty,oneof=AVAILABLE MAINTENANCE OUT_OF_ORDER"`
}

// UpdatePrinterRequest 更新打印机请求
type UpdatePrinterRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Location    *string `json:"location"    binding:"omitempty,min=1,max=100"`
	Status      *string `json:"status"      binding:"omitempty,oneof=AVAILABLE MAINTENANCE OUT_OF_ORDER"`
}

// PrinterReservationsRequest 打印机日历窗口查询参数
// 日期格式 2006-01-02 或 RFC3339；缺省为今天起 7 天
type PrinterReservationsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// PrinterResponse 打印机信息响应
type PrinterResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Location    string  `json:"location"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// PrinterBrief 嵌入在预约中的打印机摘要
type PrinterBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

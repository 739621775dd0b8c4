package model

// 打印机状态
const (
	PrinterAvailable   = "AVAILABLE"
	PrinterMaintenance = "MAINTENANCE"
	PrinterOutOfOrder  = "OUT_OF_ORDER"
)

// DefaultPrinterLocation 未指定位置时的默认值
const DefaultPrinterLocation = "Technobothnia"

// ValidPrinterStatus 判断打印机状态是否合法
func ValidPrinterStatus(status string) bool {
	switch status {
	case PrinterAvailable, PrinterMaintenance, PrinterOutOfOrder:
		return true
	}
	return false
}

// Printer 打印机表 — 对应 printers
type Printer struct {
	BaseModel
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_printers_name" json:"name"`
	Description *string `gorm:"type:text"                                                json:"description,omitempty"`
	Location    string  `gorm:"type:varchar(100);not null"                               json:"location"`
	Status      string  `gorm:"type:varchar(20);not null"                                json:"status"`
}

// TableName 指定表名
func (Printer) TableName() string { return "printers" }

// IsBookable 只有 AVAILABLE 的打印机接受新预约
func (p *Printer) IsBookable() bool {
	return p.Status == PrinterAvailable
}

package model

import "time"

// ImportRow 账单导入的标准行（每个号码每个账期一行）
type ImportRow struct {
	RowIndex       int     `json:"rowIndex"`
	Phone          string  `json:"phone"`
	ContractNumber string  `json:"contractNumber"`
	TariffName     string  `json:"tariffName"`
	PeriodStart    string  `json:"periodStart"`
	PeriodEnd      string  `json:"periodEnd"`
	Month          string  `json:"month"`
	Amount         float64 `json:"amount"`
	VAT            float64 `json:"vat"`
	Total          float64 `json:"total"`
	TariffFee      float64 `json:"tariffFee"`
	IsVatOnly      bool    `json:"isVatOnly"`
	VatMismatch    bool    `json:"vatMismatch"`
}

// ImportStatus 导入记录状态
type ImportStatus string

const (
	ImportUploaded ImportStatus = "uploaded"
	ImportPreview  ImportStatus = "preview"
	ImportApplied  ImportStatus = "applied"
)

// PreviewSummary 预览汇总
type PreviewSummary struct {
	Rows             int     `json:"rows"`
	ContractsMissing int     `json:"contractsMissing"`
	SimCardsMissing  int     `json:"simCardsMissing"`
	TariffsMissing   int     `json:"tariffsMissing"`
	VatMismatches    int     `json:"vatMismatches"`
	TotalAmount      float64 `json:"totalAmount"`
	TotalVat         float64 `json:"totalVat"`
	TotalTotal       float64 `json:"totalTotal"`
}

// AppliedSummary 应用结果计数
type AppliedSummary struct {
	ExpensesCreated  int `json:"expensesCreated"`
	SimCardsCreated  int `json:"simCardsCreated"`
	TariffsCreated   int `json:"tariffsCreated"`
	ContractsCreated int `json:"contractsCreated"`
}

// BillingImport 上传的账单文件记录
type BillingImport struct {
	ID             int64           `json:"id"`
	FileName       string          `json:"fileName"`
	FilePath       string          `json:"-"`
	FileSize       int64           `json:"fileSize"`
	FileHash       string          `json:"fileHash"`
	Status         ImportStatus    `json:"status"`
	PreviewSummary *PreviewSummary `json:"previewSummary,omitempty"`
	AppliedSummary *AppliedSummary `json:"appliedSummary,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	AppliedAt      *time.Time      `json:"appliedAt,omitempty"`
}

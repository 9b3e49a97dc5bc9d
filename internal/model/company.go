package model

import "time"

// Company 企业（合同签约方）
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	INN       string    `json:"inn,omitempty"`
	KPP       string    `json:"kpp,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Operator 通信运营商
type Operator struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	Manager   string    `json:"manager,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContractStatus 合同状态
type ContractStatus string

const (
	ContractActive  ContractStatus = "active"
	ContractClosing ContractStatus = "closing"
)

// Contract 运营商合同，Number 为自然键
type Contract struct {
	ID         int64          `json:"id"`
	Number     string         `json:"number"`
	CompanyID  int64          `json:"companyId"`
	OperatorID int64          `json:"operatorId"`
	Type       string         `json:"type"`
	Status     ContractStatus `json:"status"`
	StartDate  string         `json:"startDate,omitempty"`
	EndDate    string         `json:"endDate,omitempty"`
	MonthlyFee float64        `json:"monthlyFee"`
	SimCount   int            `json:"simCount"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Tariff 资费，运营商 + 名称唯一
type Tariff struct {
	ID         int64     `json:"id"`
	OperatorID int64     `json:"operatorId"`
	Name       string    `json:"name"`
	MonthlyFee float64   `json:"monthlyFee"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SimCard SIM 卡，Number 为自然键
type SimCard struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	CompanyID  int64     `json:"companyId"`
	OperatorID int64     `json:"operatorId"`
	TariffID   *int64    `json:"tariffId,omitempty"`
	Status     string    `json:"status"`
	Type       string    `json:"type,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Expense 费用记录（导入后持久化的结果）
type Expense struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"companyId"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	VAT         float64   `json:"vat"`
	Total       float64   `json:"total"`
	Month       string    `json:"month"`
	SimNumber   string    `json:"simNumber,omitempty"`
	Contract    string    `json:"contract"`
	Operator    string    `json:"operator"`
	Status      string    `json:"status"`
	HasDocument bool      `json:"hasDocument"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MasterData 主数据快照（每次预览/应用时读取一次）
type MasterData struct {
	Companies []*Company
	Operators []*Operator
	Contracts []*Contract
	Tariffs   []*Tariff
	SimCards  []*SimCard
}

package model

// CompanyChoice 合同的企业选择：ExistingCompany 或 NewCompany
type CompanyChoice interface {
	isCompanyChoice()
}

// ExistingCompany 使用已有企业
type ExistingCompany struct {
	ID int64
}

// NewCompany 新建企业；ForceCreate 跳过相似名称校验
type NewCompany struct {
	Name        string
	INN         string
	KPP         string
	Comment     string
	ForceCreate bool
}

func (ExistingCompany) isCompanyChoice() {}
func (NewCompany) isCompanyChoice()      {}

// OperatorChoice 合同的运营商选择：ExistingOperator 或 NewOperator
type OperatorChoice interface {
	isOperatorChoice()
}

// ExistingOperator 使用已有运营商
type ExistingOperator struct {
	ID int64
}

// NewOperator 新建运营商（同名已存在时复用）
type NewOperator struct {
	Name    string
	Type    string
	Manager string
	Phone   string
	Email   string
}

func (ExistingOperator) isOperatorChoice() {}
func (NewOperator) isOperatorChoice()      {}

// ContractResolution 用户对缺失合同的处理决定
type ContractResolution struct {
	ContractNumber string
	Company        CompanyChoice
	Operator       OperatorChoice
	Type           string
	Status         ContractStatus
	StartDate      string
	EndDate        string
	MonthlyFee     float64
	SimCount       int
}

// SimCardAction 号码处理方式
type SimCardAction string

const (
	SimCreate SimCardAction = "create"
	SimSkip   SimCardAction = "skip"
)

// SimCardDecision 针对单个号码的决定
type SimCardDecision struct {
	Phone  string
	Action SimCardAction
}

// TariffOverride 新建资费的月费覆盖；MonthlyFee 为空时按 0 处理
type TariffOverride struct {
	OperatorID int64
	TariffName string
	MonthlyFee *float64
}

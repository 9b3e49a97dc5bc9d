// Package reconcile 将账单行与主数据（合同、运营商、资费、SIM 卡、企业）对账
package reconcile

import (
	"telecost/internal/model"
)

// Index 主数据只读索引，每次预览或应用时构建一次
type Index struct {
	contractsByNumber map[string]*model.Contract
	operatorsByID     map[int64]*model.Operator
	operatorsByName   map[string]*model.Operator
	tariffsByKey      map[string]*model.Tariff
	simsByPhone       map[string]*model.SimCard
	companies         []NormalizedCompany
}

// NewIndex 由主数据快照构建索引
func NewIndex(data *model.MasterData) *Index {
	idx := &Index{
		contractsByNumber: make(map[string]*model.Contract),
		operatorsByID:     make(map[int64]*model.Operator),
		operatorsByName:   make(map[string]*model.Operator),
		tariffsByKey:      make(map[string]*model.Tariff),
		simsByPhone:       make(map[string]*model.SimCard),
	}
	if data == nil {
		return idx
	}
	for _, c := range data.Contracts {
		idx.contractsByNumber[c.Number] = c
	}
	for _, o := range data.Operators {
		idx.operatorsByID[o.ID] = o
		idx.operatorsByName[model.OperatorNameKey(o.Name)] = o
	}
	for _, t := range data.Tariffs {
		idx.tariffsByKey[model.TariffKey(t.OperatorID, t.Name)] = t
	}
	for _, s := range data.SimCards {
		for _, variant := range model.PhoneVariants(s.Number) {
			idx.simsByPhone[variant] = s
		}
	}
	idx.companies = NormalizeCompanies(data.Companies)
	return idx
}

// Contract 按合同号查找
func (idx *Index) Contract(number string) (*model.Contract, bool) {
	c, ok := idx.contractsByNumber[number]
	return c, ok
}

// ContractNumbers 已有合同号集合
func (idx *Index) ContractNumbers() map[string]bool {
	out := make(map[string]bool, len(idx.contractsByNumber))
	for number := range idx.contractsByNumber {
		out[number] = true
	}
	return out
}

// Operator 按 ID 查找运营商
func (idx *Index) Operator(id int64) (*model.Operator, bool) {
	o, ok := idx.operatorsByID[id]
	return o, ok
}

// OperatorByName 按名称（忽略大小写和首尾空白）查找运营商
func (idx *Index) OperatorByName(name string) (*model.Operator, bool) {
	o, ok := idx.operatorsByName[model.OperatorNameKey(name)]
	return o, ok
}

// Tariff 按资费键查找
func (idx *Index) Tariff(key string) (*model.Tariff, bool) {
	t, ok := idx.tariffsByKey[key]
	return t, ok
}

// SimCard 按号码的任一变体查找 SIM 卡
func (idx *Index) SimCard(phone string) (*model.SimCard, bool) {
	for _, variant := range model.PhoneVariants(phone) {
		if s, ok := idx.simsByPhone[variant]; ok {
			return s, true
		}
	}
	return nil, false
}

// Companies 已有企业的规范化名称
func (idx *Index) Companies() []NormalizedCompany {
	return idx.companies
}

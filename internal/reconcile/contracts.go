package reconcile

import (
	"telecost/internal/model"
)

// CollectMissingContracts 既不在已有合同中、也未被处理决定覆盖的合同号（按首次出现顺序去重）
func CollectMissingContracts(rows []model.ImportRow, known, resolved map[string]bool) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, row := range rows {
		number := row.ContractNumber
		if known[number] || resolved[number] || seen[number] {
			continue
		}
		seen[number] = true
		missing = append(missing, number)
	}
	return missing
}

// ResolvedContractNumbers 处理决定覆盖的合同号
func ResolvedContractNumbers(resolutions []model.ContractResolution) map[string]bool {
	out := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		out[r.ContractNumber] = true
	}
	return out
}

// ContractLookup 合同号查找
type ContractLookup func(number string) (*model.Contract, bool)

// BuildTariffFeeByKey 每个资费键取所有行中最大的月费；资费名为空或合同未知的行忽略
func BuildTariffFeeByKey(rows []model.ImportRow, lookup ContractLookup) map[string]float64 {
	fees := make(map[string]float64)
	for _, row := range rows {
		if row.TariffName == "" {
			continue
		}
		contract, ok := lookup(row.ContractNumber)
		if !ok {
			continue
		}
		key := model.TariffKey(contract.OperatorID, row.TariffName)
		if row.TariffFee > fees[key] {
			fees[key] = row.TariffFee
		}
	}
	return fees
}

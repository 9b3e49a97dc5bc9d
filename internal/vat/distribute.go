// Package vat 按合同和账期分摊汇总增值税，并校验行金额
package vat

import (
	"github.com/shopspring/decimal"

	"telecost/internal/model"
	"telecost/internal/money"
)

// Result 分摊结果
type Result struct {
	Rows        []model.ImportRow
	Mismatches  int
	Distributed map[string]struct{} // 已分摊的分组键
}

// IsDistributed 分组是否已把汇总税额分摊到明细行
func (r Result) IsDistributed(key string) bool {
	_, ok := r.Distributed[key]
	return ok
}

// group 一个 合同::月份 分组的累计值
type group struct {
	key          string
	vatOnlyTotal decimal.Decimal
	baseSum      decimal.Decimal
	baseIndexes  []int
}

// vatOnlyValue 汇总税额行的可用金额：vat，其次 total，其次 amount
func vatOnlyValue(row model.ImportRow) float64 {
	switch {
	case row.VAT > 0:
		return row.VAT
	case row.Total > 0:
		return row.Total
	case row.Amount > 0:
		return row.Amount
	}
	return 0
}

// Distribute 重新计算每行的 VAT、Total 与 VatMismatch
//
// 分组内同时存在汇总税额行与明细行时按金额比例分摊，最后一行吸收尾差；
// 否则仅逐行校验 total 与 amount+vat 是否一致
func Distribute(rows []model.ImportRow) Result {
	adjusted := make([]model.ImportRow, len(rows))
	copy(adjusted, rows)

	var groups []*group
	byKey := make(map[string]*group)
	for i := range adjusted {
		adjusted[i].VatMismatch = false
		row := adjusted[i]

		key := model.VatGroupKey(row)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		if row.IsVatOnly {
			g.vatOnlyTotal = g.vatOnlyTotal.Add(decimal.NewFromFloat(vatOnlyValue(row)))
			continue
		}
		g.baseSum = g.baseSum.Add(decimal.NewFromFloat(row.Amount))
		g.baseIndexes = append(g.baseIndexes, i)
	}

	result := Result{Rows: adjusted, Distributed: make(map[string]struct{})}
	for _, g := range groups {
		if g.vatOnlyTotal.IsPositive() && g.baseSum.IsPositive() && len(g.baseIndexes) > 0 {
			result.Distributed[g.key] = struct{}{}
			result.Mismatches += distributeGroup(adjusted, g)
			continue
		}
		result.Mismatches += validateRows(adjusted, g.baseIndexes)
	}
	return result
}

// distributeGroup 比例分摊；汇总税额与明细金额 20% 不符时整组标记，返回标记行数
func distributeGroup(rows []model.ImportRow, g *group) int {
	allocated := decimal.Zero
	last := len(g.baseIndexes) - 1
	for idx, rowIndex := range g.baseIndexes {
		row := &rows[rowIndex]
		var share decimal.Decimal
		if idx == last {
			share = money.RoundDecimal(g.vatOnlyTotal.Sub(allocated))
		} else {
			share = money.RoundDecimal(g.vatOnlyTotal.Mul(decimal.NewFromFloat(row.Amount)).Div(g.baseSum))
		}
		allocated = allocated.Add(share)
		row.VAT = money.Round(share)
		row.Total = money.RoundCurrency(row.Amount + row.VAT)
	}

	vatOnly := g.vatOnlyTotal.InexactFloat64()
	expected := money.Round(g.baseSum.Mul(decimal.NewFromFloat(money.VATRate)))
	if !money.Differs(vatOnly, expected) {
		return 0
	}
	for _, rowIndex := range g.baseIndexes {
		rows[rowIndex].VatMismatch = true
	}
	return len(g.baseIndexes)
}

// validateRows 逐行校验，返回不一致的行数
func validateRows(rows []model.ImportRow, indexes []int) int {
	mismatches := 0
	for _, rowIndex := range indexes {
		row := &rows[rowIndex]
		if row.Total <= 0 {
			continue
		}
		if money.Differs(row.Total, money.RoundCurrency(row.Amount+row.VAT)) {
			row.VatMismatch = true
			mismatches++
		}
	}
	return mismatches
}

package parser

import (
	"strings"

	"telecost/internal/model"
	"telecost/internal/money"
)

// 运营商明细账单中的标记
const (
	markerSubscriber  = "Абонентский номер"
	markerTariff      = "Тарифный план"
	markerTotal       = "Итого"
	markerCharged     = "начислено"
	markerVAT         = "в том числе НДС"
	markerNotConsumed = "не потреблялись"
)

// StatementMeta 整份账单的合同号与账期（每个文档只识别一次）
type StatementMeta struct {
	ContractNumber string
	PeriodStart    string
	PeriodEnd      string
	Month          string
}

// ExtractStatementMeta 扫描所有行：合同号取第一次匹配，账期取最后一次匹配
func ExtractStatementMeta(lines []string) StatementMeta {
	var meta StatementMeta
	for _, line := range lines {
		if m := periodRe.FindStringSubmatch(line); len(m) > 2 {
			meta.PeriodStart = m[1]
			meta.PeriodEnd = m[2]
		}
		if meta.ContractNumber == "" {
			if m := contractRe.FindStringSubmatch(line); len(m) > 1 {
				meta.ContractNumber = m[1]
			}
		}
	}
	meta.Month = periodMonth(meta.PeriodStart, meta.PeriodEnd)
	return meta
}

// statementState 状态机累加器
type statementState struct {
	phone        string
	tariff       string
	total        float64
	vat          float64
	expectTotals bool
	rows         []model.ImportRow
}

// step 处理一行，返回新状态
func (s statementState) step(meta StatementMeta, line string) statementState {
	if strings.Contains(line, markerSubscriber) {
		s = s.flush(meta)
		s.phone = extractPhone(line)
		s.tariff = ""
		s.total = 0
		s.vat = 0
		s.expectTotals = false
		return s
	}
	if strings.HasPrefix(line, markerTariff) {
		s.tariff = ExtractTariff(line)
		return s
	}
	if strings.Contains(line, markerTotal) && strings.Contains(line, markerCharged) {
		if total, ok := lastAmount(line); ok {
			s.total = total
			s.expectTotals = false
		} else {
			s.expectTotals = true
		}
		return s
	}
	if s.expectTotals {
		if total, ok := lastAmount(line); ok {
			s.total = total
			s.expectTotals = false
		}
	}
	if strings.Contains(line, markerVAT) {
		s.vat, _ = lastAmount(line)
	}
	if strings.Contains(line, markerNotConsumed) {
		s.total = 0
		s.vat = 0
	}
	return s
}

// flush 输出当前号码的累计行（遇到新号码时及输入结束时调用）
func (s statementState) flush(meta StatementMeta) statementState {
	if s.phone == "" {
		return s
	}
	phone := model.DigitsOnly(s.phone)
	if phone == "" {
		return s
	}
	total := s.total
	vat := s.vat
	if vat == 0 {
		vat = money.ImpliedVAT(total)
	}
	amount := money.RoundCurrency(total - vat)
	if total <= 0 && vat <= 0 && amount <= 0 {
		return s
	}
	if len(phone) == 10 {
		phone = "7" + phone
	}
	s.rows = append(s.rows, model.ImportRow{
		RowIndex:       len(s.rows) + 1,
		Phone:          phone,
		ContractNumber: meta.ContractNumber,
		TariffName:     s.tariff,
		PeriodStart:    meta.PeriodStart,
		PeriodEnd:      meta.PeriodEnd,
		Month:          meta.Month,
		Amount:         amount,
		VAT:            vat,
		Total:          total,
	})
	return s
}

// ParseStatement 对规范化后的行序列运行明细账单状态机
// CSV 与 PDF 两种格式共用，仅行的来源不同
func ParseStatement(lines []string) []model.ImportRow {
	meta := ExtractStatementMeta(lines)
	if meta.ContractNumber == "" {
		return nil
	}
	var state statementState
	for _, line := range lines {
		state = state.step(meta, line)
	}
	state = state.flush(meta)
	return state.rows
}

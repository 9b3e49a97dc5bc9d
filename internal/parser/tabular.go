package parser

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"telecost/internal/model"
	"telecost/internal/money"
)

// 表格账单识别的列名
const (
	ColumnPhone       = "Номер телефона"
	ColumnContract    = "Договор"
	ColumnPeriodStart = "Дата начала периода"
	ColumnPeriodEnd   = "Дата окончания периода"
	ColumnTariff      = "Тарифный план"
	ColumnTotal       = "Всего по строке"
	ColumnVAT         = "НДС"
	ColumnAmount      = "Итого по строке"
	ColumnTariffFee   = "Абонентская плата по тарифному плану"
)

var tabularColumns = []string{
	ColumnPhone,
	ColumnContract,
	ColumnPeriodStart,
	ColumnPeriodEnd,
	ColumnTariff,
	ColumnTotal,
	ColumnVAT,
	ColumnAmount,
	ColumnTariffFee,
}

// cell 原始单元格值
type cell struct {
	raw     string
	numeric bool
	date    bool
}

// TabularParser 表格账单解析器（读取第一个工作表）
type TabularParser struct {
	file     *excelize.File
	date1904 bool
}

// NewTabularParser 从字节加载工作簿
func NewTabularParser(data []byte) (*TabularParser, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	p := &TabularParser{file: file}
	if props, err := file.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		p.date1904 = *props.Date1904
	}
	return p, nil
}

// Close 释放工作簿
func (p *TabularParser) Close() error {
	return p.file.Close()
}

// ParseTabular 解析表格账单
func ParseTabular(data []byte) ([]model.ImportRow, error) {
	p, err := NewTabularParser(data)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse()
}

// Parse 解析第一个工作表的数据行
func (p *TabularParser) Parse() ([]model.ImportRow, error) {
	sheets := p.file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]

	rows, err := p.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	columns := mapColumns(rows[0])

	var out []model.ImportRow
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		values := make(map[string]cell, len(columns))
		for name, colIdx := range columns {
			if colIdx >= len(rows[rowIdx]) {
				continue
			}
			c, err := p.readCell(sheet, rows[rowIdx][colIdx], colIdx, rowIdx)
			if err != nil {
				return nil, err
			}
			values[name] = c
		}
		if row, ok := p.buildRow(values); ok {
			row.RowIndex = len(out) + 1
			out = append(out, row)
		}
	}
	return out, nil
}

// mapColumns 表头名称 -> 列索引（首次出现优先）
func mapColumns(headers []string) map[string]int {
	known := make(map[string]bool, len(tabularColumns))
	for _, name := range tabularColumns {
		known[name] = true
	}
	out := make(map[string]int)
	for idx, header := range headers {
		name := strings.TrimSpace(header)
		if !known[name] {
			continue
		}
		if _, exists := out[name]; !exists {
			out[name] = idx
		}
	}
	return out
}

func (p *TabularParser) readCell(sheet, raw string, colIdx, rowIdx int) (cell, error) {
	if raw == "" {
		return cell{}, nil
	}
	axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return cell{}, fmt.Errorf("cell coordinates: %w", err)
	}
	cellType, err := p.file.GetCellType(sheet, axis)
	if err != nil {
		return cell{}, fmt.Errorf("cell type %s: %w", axis, err)
	}
	c := cell{raw: raw}
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		_, parseErr := strconv.ParseFloat(raw, 64)
		c.numeric = parseErr == nil
	case excelize.CellTypeDate:
		c.date = true
	}
	return c, nil
}

// buildRow 按列规则组装一行；无合同号或金额全为 0 时丢弃
func (p *TabularParser) buildRow(values map[string]cell) (model.ImportRow, bool) {
	contractNumber := normalizeContractNumber(values[ColumnContract])
	if contractNumber == "" {
		return model.ImportRow{}, false
	}

	phone := normalizePhoneCell(values[ColumnPhone])
	amount := amountCell(values[ColumnAmount])
	vat := amountCell(values[ColumnVAT])
	total := amountCell(values[ColumnTotal])
	tariffFee := amountCell(values[ColumnTariffFee])

	resolvedTotal := total
	if resolvedTotal <= 0 {
		resolvedTotal = amount + vat
	}
	if resolvedTotal <= 0 && vat <= 0 && amount <= 0 {
		return model.ImportRow{}, false
	}

	periodStart := formatDateCell(values[ColumnPeriodStart], p.date1904)
	periodEnd := formatDateCell(values[ColumnPeriodEnd], p.date1904)

	return model.ImportRow{
		Phone:          phone,
		ContractNumber: contractNumber,
		TariffName:     strings.TrimSpace(values[ColumnTariff].raw),
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Month:          periodMonth(periodStart, periodEnd),
		Amount:         amount,
		VAT:            vat,
		Total:          resolvedTotal,
		TariffFee:      tariffFee,
		IsVatOnly:      model.IsZeroPhone(phone),
	}, true
}

func normalizeContractNumber(c cell) string {
	if c.numeric {
		value, _ := strconv.ParseFloat(c.raw, 64)
		if !math.IsNaN(value) && !math.IsInf(value, 0) {
			return strconv.FormatFloat(math.Trunc(value), 'f', -1, 64)
		}
	}
	return strings.TrimSpace(c.raw)
}

func normalizePhoneCell(c cell) string {
	if c.numeric {
		value, _ := strconv.ParseFloat(c.raw, 64)
		return model.DigitsOnly(strconv.FormatFloat(math.Trunc(value), 'f', -1, 64))
	}
	return model.DigitsOnly(c.raw)
}

func amountCell(c cell) float64 {
	if c.numeric {
		value, _ := strconv.ParseFloat(c.raw, 64)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0
		}
		return value
	}
	return money.ParseAmount(c.raw)
}

// formatDateCell 日期单元格格式化为 dd.mm.yyyy；序列号按工作簿纪元换算
func formatDateCell(c cell, date1904 bool) string {
	switch {
	case c.raw == "":
		return ""
	case c.date:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, c.raw); err == nil {
				return t.Format("02.01.2006")
			}
		}
	case c.numeric:
		serial, _ := strconv.ParseFloat(c.raw, 64)
		if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil && serial > 0 {
			return t.Format("02.01.2006")
		}
	}
	return strings.TrimSpace(c.raw)
}

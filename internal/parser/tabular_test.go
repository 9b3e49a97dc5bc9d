package parser

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook 构造单工作表账单，headers 为表头，rows 为数据行
func buildWorkbook(t *testing.T, headers []string, rows [][]interface{}) []byte {
	t.Helper()

	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())

	header := make([]interface{}, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow header failed: %v", err)
	}
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := wb.SetSheetRow(sheet, axis, &r); err != nil {
			t.Fatalf("SetSheetRow %s failed: %v", axis, err)
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

var fullHeaders = []string{
	ColumnPhone, ColumnContract, ColumnTariff, ColumnPeriodStart, ColumnPeriodEnd,
	ColumnAmount, ColumnVAT, ColumnTotal, ColumnTariffFee,
}

func TestParseTabular_ValidRow(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, fullHeaders, [][]interface{}{
		{"7 (900) 123-45-67", 123, "Тестовый", "01.11.2025", "30.11.2025", 1000, 200, 0, 500},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	row := rows[0]
	if row.RowIndex != 1 || row.Phone != "79001234567" || row.ContractNumber != "123" {
		t.Fatalf("unexpected identity fields: %+v", row)
	}
	if row.TariffName != "Тестовый" || row.PeriodStart != "01.11.2025" || row.PeriodEnd != "30.11.2025" {
		t.Fatalf("unexpected text fields: %+v", row)
	}
	if row.Month != "Ноябрь 2025" {
		t.Fatalf("month=%q, want Ноябрь 2025", row.Month)
	}
	if row.Amount != 1000 || row.VAT != 200 || row.Total != 1200 || row.TariffFee != 500 {
		t.Fatalf("unexpected amounts: %+v", row)
	}
	if row.IsVatOnly {
		t.Fatalf("row should not be VAT-only")
	}
}

func TestParseTabular_UsesTotalAndSkipsZeroRows(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, fullHeaders, [][]interface{}{
		{"9001234567", "A-1", "План", nil, "30.11.2025", 100, 0, 110, nil},
		{"9001234567", "A-1", "План", nil, "30.11.2025", 0, 0, 0, nil},
		{"9001234567", "A-1", "План", nil, "30.11.2025", "12,50", "2,50", nil, nil},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	if rows[0].Total != 110 {
		t.Fatalf("total=%v, want 110", rows[0].Total)
	}
	if rows[0].RowIndex != 1 || rows[1].RowIndex != 2 {
		t.Fatalf("row indexes must be sequential among emitted rows: %d %d", rows[0].RowIndex, rows[1].RowIndex)
	}
	if rows[1].Amount != 12.5 || rows[1].VAT != 2.5 || rows[1].Total != 15 {
		t.Fatalf("decimal comma amounts not parsed: %+v", rows[1])
	}
}

func TestParseTabular_VatOnlyRows(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, fullHeaders, [][]interface{}{
		{"", "A-1", nil, nil, "30.11.2025", 100, 0, 110, nil},
		{"0000000000", "A-2", nil, nil, "30.11.2025", 100, 0, 110, nil},
		{"79001234567", "A-3", nil, nil, "30.11.2025", 100, 0, 110, nil},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(rows))
	}
	if !rows[0].IsVatOnly || !rows[1].IsVatOnly || rows[2].IsVatOnly {
		t.Fatalf("unexpected VAT-only flags: %v %v %v", rows[0].IsVatOnly, rows[1].IsVatOnly, rows[2].IsVatOnly)
	}
}

func TestParseTabular_SkipsRowsWithoutContract(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, fullHeaders, [][]interface{}{
		{"79001234567", "", nil, nil, "30.11.2025", 100, 0, 110, nil},
		{"79001234567", "   ", nil, nil, "30.11.2025", 100, 0, 110, nil},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows=%d, want 0", len(rows))
	}
}

func TestParseTabular_DateCellsAndNumericContract(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC)
	data := buildWorkbook(t, fullHeaders, [][]interface{}{
		{79001234567, 4501234.9, "Связь", start, end, 300, 60, 360, 250},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	row := rows[0]
	if row.ContractNumber != "4501234" {
		t.Fatalf("contract=%q, want truncated 4501234", row.ContractNumber)
	}
	if row.Phone != "79001234567" {
		t.Fatalf("phone=%q", row.Phone)
	}
	if row.PeriodStart != "01.10.2025" || row.PeriodEnd != "31.10.2025" {
		t.Fatalf("dates=%q..%q", row.PeriodStart, row.PeriodEnd)
	}
	if row.Month != "Октябрь 2025" {
		t.Fatalf("month=%q", row.Month)
	}
}

func TestParseTabular_UnknownPeriod(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, []string{ColumnContract, ColumnAmount}, [][]interface{}{
		{"A-1", 10},
	})

	rows, err := ParseTabular(data)
	if err != nil {
		t.Fatalf("ParseTabular: %v", err)
	}
	if len(rows) != 1 || rows[0].Month != CurrentPeriodLabel {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseTabular_CorruptWorkbook(t *testing.T) {
	t.Parallel()

	if _, err := ParseTabular([]byte("PK\x03\x04 definitely not a workbook")); err == nil {
		t.Fatalf("expected error for corrupt workbook")
	}
}

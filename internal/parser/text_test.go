package parser

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const sampleCSV = "\ufeffДоговор № 555;;;\r\n" +
	"\"Период\";01.11.2025 - 30.11.2025\r\n" +
	"Абонентский номер;;9001112233\r\n" +
	"Тарифный план на 01.11.2025;<Офис>\r\n" +
	"Итого начислено;;;240,00\r\n" +
	";;\r\n"

func TestDecodeText_Windows1251(t *testing.T) {
	t.Parallel()

	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Абонентский номер"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeText(encoded)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	if got != "Абонентский номер" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeText_UTF8(t *testing.T) {
	t.Parallel()

	got, err := DecodeText([]byte("Итого начислено"))
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	if got != "Итого начислено" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeLines(t *testing.T) {
	t.Parallel()

	lines := NormalizeLines(sampleCSV)
	want := []string{
		"Договор № 555",
		"Период 01.11.2025 - 30.11.2025",
		"Абонентский номер 9001112233",
		"Тарифный план на 01.11.2025 <Офис>",
		"Итого начислено 240,00",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines=%q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d=%q, want %q", i, lines[i], want[i])
		}
	}
}

func TestParseText_Windows1251Statement(t *testing.T) {
	t.Parallel()

	encoded, err := charmap.Windows1251.NewEncoder().String(strings.TrimPrefix(sampleCSV, "\ufeff"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rows, err := ParseText([]byte(encoded))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	row := rows[0]
	if row.ContractNumber != "555" || row.Phone != "79001112233" || row.TariffName != "Офис" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Total != 240 || row.VAT != 40 || row.Amount != 200 {
		t.Fatalf("unexpected amounts: %+v", row)
	}
}

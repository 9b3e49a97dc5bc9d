package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"telecost/internal/model"
)

// Format 账单文件格式
type Format string

const (
	FormatTabular Format = "tabular" // xlsx 表格导出
	FormatText    Format = "text"    // 运营商明细 CSV/文本
	FormatPDF     Format = "pdf"     // 运营商明细 PDF
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat 无法识别的文件格式
var ErrUnsupportedFormat = errors.New("unsupported billing file format")

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat 先按文件头识别，再按扩展名识别
func DetectFormat(fileName string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF
	case bytes.HasPrefix(data, zipMagic):
		return FormatTabular
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatTabular
	case ".csv", ".txt":
		return FormatText
	case ".pdf":
		return FormatPDF
	}
	return FormatUnknown
}

// Parse 将上传的账单文件解析为标准行
func Parse(fileName string, data []byte) ([]model.ImportRow, error) {
	var (
		rows []model.ImportRow
		err  error
	)
	switch format := DetectFormat(fileName, data); format {
	case FormatTabular:
		rows, err = ParseTabular(data)
	case FormatText:
		rows, err = ParseText(data)
	case FormatPDF:
		rows, err = ParsePDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
	if err != nil {
		return nil, err
	}
	return admitRows(rows), nil
}

// ParseText 解析运营商明细文本（CSV）
func ParseText(data []byte) ([]model.ImportRow, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}
	return ParseStatement(NormalizeLines(text)), nil
}

// ParsePDF 解析运营商明细 PDF
func ParsePDF(data []byte) ([]model.ImportRow, error) {
	lines, err := PDFLines(data)
	if err != nil {
		return nil, err
	}
	return ParseStatement(lines), nil
}

// admitRows 丢弃无合同号的行
func admitRows(rows []model.ImportRow) []model.ImportRow {
	out := rows[:0]
	for _, row := range rows {
		if row.ContractNumber != "" {
			out = append(out, row)
		}
	}
	return out
}

package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	delimiterRunRe = regexp.MustCompile(`;+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// DecodeText 将运营商导出的字节解码为文本
// 默认按 Windows-1251 解码；仅当内容是含多字节序列的合法 UTF-8 时按 UTF-8 处理
func DecodeText(data []byte) (string, error) {
	if utf8.Valid(data) && hasMultibyte(data) {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode windows-1251: %w", err)
	}
	return string(decoded), nil
}

func hasMultibyte(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// NormalizeLines 规范化文本行：去 BOM、去引号、连续分号替换为空格、压缩空白，丢弃空行
func NormalizeLines(text string) []string {
	text = strings.ReplaceAll(text, "\ufeff", "")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = normalizeLine(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, `"`, "")
	line = delimiterRunRe.ReplaceAllString(line, " ")
	line = whitespaceRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

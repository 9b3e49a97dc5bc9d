package parser

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextFragment PDF 页面中带坐标的文本片段
type TextFragment struct {
	X     float64
	Y     float64
	Width float64
	Text  string
}

// PDFLines 提取 PDF 文本并按版面还原为行
func PDFLines(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var lines []string
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		fragments := make([]TextFragment, 0, len(content.Text))
		for _, item := range content.Text {
			fragments = append(fragments, TextFragment{
				X:     item.X,
				Y:     item.Y,
				Width: item.W,
				Text:  item.S,
			})
		}
		lines = append(lines, GroupFragments(fragments)...)
	}
	return lines, nil
}

// GroupFragments 先按纵坐标（取整，自上而下）分行，再按横坐标排序拼接
// 相邻片段之间有间隙时插入空格
func GroupFragments(fragments []TextFragment) []string {
	byY := make(map[int][]TextFragment)
	for _, f := range fragments {
		y := int(math.Round(f.Y))
		byY[y] = append(byY[y], f)
	}

	ys := make([]int, 0, len(byY))
	for y := range byY {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		bucket := byY[y]
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].X < bucket[j].X })

		var sb strings.Builder
		for i, f := range bucket {
			if i > 0 && needsSpace(bucket[i-1], f) {
				sb.WriteByte(' ')
			}
			sb.WriteString(f.Text)
		}
		if line := normalizeLine(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// needsSpace 无宽度信息的片段视为独立的词
func needsSpace(prev, next TextFragment) bool {
	if prev.Width <= 0 {
		return true
	}
	return next.X-(prev.X+prev.Width) > 0.5
}

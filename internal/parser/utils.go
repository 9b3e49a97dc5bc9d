package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// CurrentPeriodLabel 无法识别账期日期时的月份标签
const CurrentPeriodLabel = "текущий период"

var monthNames = []string{
	"Январь",
	"Февраль",
	"Март",
	"Апрель",
	"Май",
	"Июнь",
	"Июль",
	"Август",
	"Сентябрь",
	"Октябрь",
	"Ноябрь",
	"Декабрь",
}

var (
	dateRe         = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)
	amountRe       = regexp.MustCompile(`-?\d+,\d{2}`)
	phoneRe        = regexp.MustCompile(`\b\d{10,11}\b`)
	periodRe       = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})\s*[-–—]\s*(\d{2}\.\d{2}\.\d{4})`)
	contractRe     = regexp.MustCompile(`(?i)Договор[^№]*№\s*(\S+)`)
	angleRe        = regexp.MustCompile(`<([^>]+)>`)
	guillemetRe    = regexp.MustCompile(`«([^»]+)»`)
	tariffPrefixRe = regexp.MustCompile(`Тарифный план на \d{2}\.\d{2}\.\d{4}`)
)

// MonthLabel 由 dd.mm.yyyy 得到 "Ноябрь 2025"，无法识别时返回 "текущий период"
func MonthLabel(dateText string) string {
	matches := dateRe.FindStringSubmatch(dateText)
	if len(matches) < 4 {
		return CurrentPeriodLabel
	}
	month, err := strconv.Atoi(matches[2])
	if err != nil || month < 1 || month > len(monthNames) {
		return CurrentPeriodLabel
	}
	return monthNames[month-1] + " " + matches[3]
}

// periodMonth 优先使用账期结束日
func periodMonth(periodStart, periodEnd string) string {
	if periodEnd != "" {
		return MonthLabel(periodEnd)
	}
	return MonthLabel(periodStart)
}

// ExtractAmounts 提取所有 "123,45" 形式的金额
func ExtractAmounts(line string) []float64 {
	found := amountRe.FindAllString(line, -1)
	out := make([]float64, 0, len(found))
	for _, item := range found {
		value, err := strconv.ParseFloat(strings.Replace(item, ",", ".", 1), 64)
		if err != nil {
			value = 0
		}
		out = append(out, value)
	}
	return out
}

// lastAmount 行内最后一个金额
func lastAmount(line string) (float64, bool) {
	amounts := ExtractAmounts(line)
	if len(amounts) == 0 {
		return 0, false
	}
	return amounts[len(amounts)-1], true
}

// ExtractTariff 资费名：<...> 优先，其次 «...»，否则去掉 "Тарифный план на dd.mm.yyyy" 前缀
func ExtractTariff(line string) string {
	if m := angleRe.FindStringSubmatch(line); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := guillemetRe.FindStringSubmatch(line); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(tariffPrefixRe.ReplaceAllString(line, ""))
}

func extractPhone(line string) string {
	return phoneRe.FindString(line)
}

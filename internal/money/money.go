package money

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// VATRate 增值税率（НДС 20%）
	VATRate = 0.20
	// Tolerance 金额比较容差
	Tolerance = 0.02
)

// RoundCurrency 保留两位小数，对放大 100 倍后的值向上取半：floor(x*100+0.5)/100
func RoundCurrency(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return math.Floor(value*100+0.5) / 100
}

var half = decimal.NewFromFloat(0.5)

// RoundDecimal 与 RoundCurrency 相同的取整规则，用于 decimal 累计值
func RoundDecimal(value decimal.Decimal) decimal.Decimal {
	return value.Shift(2).Add(half).Floor().Shift(-2)
}

// Round 将 decimal 结果按货币精度转换为 float64
func Round(value decimal.Decimal) float64 {
	return RoundDecimal(value).InexactFloat64()
}

// Differs 判断两个金额的差值是否超过容差
func Differs(a, b float64) bool {
	return math.Abs(a-b) > Tolerance
}

// ImpliedVAT 由含税金额反推税额：total * rate / (1 + rate)
func ImpliedVAT(total float64) float64 {
	return RoundCurrency(total * (VATRate / (1 + VATRate)))
}

// ParseAmount 解析金额字符串
// 去除所有空白，首个逗号视为小数点；无法解析时返回 0
func ParseAmount(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return 0
	}
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

package model

import (
	"strconv"
	"strings"
)

// VatGroupKey НДС 分摊分组键：合同号 + 月份
func VatGroupKey(row ImportRow) string {
	return row.ContractNumber + "::" + row.Month
}

// TariffKey 资费键：运营商 ID + 小写去空格的资费名
func TariffKey(operatorID int64, tariffName string) string {
	return strconv.FormatInt(operatorID, 10) + ":" + strings.ToLower(strings.TrimSpace(tariffName))
}

// OperatorNameKey 运营商名称匹配键
func OperatorNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DigitsOnly 仅保留数字
func DigitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// IsZeroPhone 号码（仅数字）为空或全为 0
func IsZeroPhone(phone string) bool {
	return strings.Trim(phone, "0") == ""
}

// PhoneVariants 号码的匹配变体
// 11 位且以 7 开头: [原值, 去掉 7]；10 位: [原值, 前缀 7]；其他: [原值]
func PhoneVariants(value string) []string {
	normalized := DigitsOnly(value)
	if normalized == "" {
		return nil
	}
	if len(normalized) == 11 && strings.HasPrefix(normalized, "7") {
		return []string{normalized, normalized[1:]}
	}
	if len(normalized) == 10 {
		return []string{normalized, "7" + normalized}
	}
	return []string{normalized}
}

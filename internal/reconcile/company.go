package reconcile

import (
	"regexp"
	"strings"

	"telecost/internal/model"
)

var (
	companyQuoteRe = regexp.MustCompile("[\"'`]")
	companySpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizedCompanyName 企业名称及其匹配形式（仅用于相似度判断，不持久化）
type NormalizedCompanyName struct {
	Raw        string
	Normalized string
}

// NormalizedCompany 已有企业的规范化名称
type NormalizedCompany struct {
	ID int64
	NormalizedCompanyName
}

// CompanySuggestion 相似的已有企业
type CompanySuggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CompanyConflict 新建企业与已有企业名称相似
type CompanyConflict struct {
	ContractNumber string              `json:"contractNumber"`
	Name           string              `json:"name"`
	Suggestions    []CompanySuggestion `json:"suggestions"`
}

// NormalizeCompanyName 去首尾空白、转小写、去引号、压缩空白
func NormalizeCompanyName(value string) NormalizedCompanyName {
	raw := strings.TrimSpace(value)
	normalized := strings.ToLower(raw)
	normalized = companyQuoteRe.ReplaceAllString(normalized, "")
	normalized = companySpaceRe.ReplaceAllString(normalized, " ")
	return NormalizedCompanyName{Raw: raw, Normalized: strings.TrimSpace(normalized)}
}

// NormalizeCompanies 规范化企业列表
func NormalizeCompanies(companies []*model.Company) []NormalizedCompany {
	out := make([]NormalizedCompany, 0, len(companies))
	for _, c := range companies {
		out = append(out, NormalizedCompany{ID: c.ID, NormalizedCompanyName: NormalizeCompanyName(c.Name)})
	}
	return out
}

// FindSimilarCompanies 名称相同，或一方包含另一方即视为相似
func FindSimilarCompanies(target NormalizedCompanyName, companies []NormalizedCompany) []NormalizedCompany {
	if target.Normalized == "" {
		return nil
	}
	var out []NormalizedCompany
	for _, c := range companies {
		if c.Normalized == "" {
			continue
		}
		if c.Normalized == target.Normalized ||
			strings.Contains(c.Normalized, target.Normalized) ||
			strings.Contains(target.Normalized, c.Normalized) {
			out = append(out, c)
		}
	}
	return out
}

// CollectCompanyConflicts 检查所有新建企业的决定；ForceCreate 的决定不检查
func CollectCompanyConflicts(resolutions []model.ContractResolution, companies []NormalizedCompany) []CompanyConflict {
	var conflicts []CompanyConflict
	for _, resolution := range resolutions {
		create, ok := resolution.Company.(model.NewCompany)
		if !ok || create.ForceCreate {
			continue
		}
		similar := FindSimilarCompanies(NormalizeCompanyName(create.Name), companies)
		if len(similar) == 0 {
			continue
		}
		suggestions := make([]CompanySuggestion, 0, len(similar))
		for _, s := range similar {
			suggestions = append(suggestions, CompanySuggestion{ID: s.ID, Name: s.Raw})
		}
		conflicts = append(conflicts, CompanyConflict{
			ContractNumber: resolution.ContractNumber,
			Name:           create.Name,
			Suggestions:    suggestions,
		})
	}
	return conflicts
}

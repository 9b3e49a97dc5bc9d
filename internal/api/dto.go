package api

import (
	"fmt"
	"strings"

	"telecost/internal/importer"
	"telecost/internal/model"
)

// 企业 / 运营商选择方式
const (
	modeExisting = "existing"
	modeCreate   = "create"
)

// CompanyChoiceDTO 企业选择：mode=existing 时使用 id，mode=create 时使用名称等字段
type CompanyChoiceDTO struct {
	Mode        string `json:"mode"`
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	INN         string `json:"inn,omitempty"`
	KPP         string `json:"kpp,omitempty"`
	Comment     string `json:"comment,omitempty"`
	ForceCreate bool   `json:"forceCreate,omitempty"`
}

// OperatorChoiceDTO 运营商选择
type OperatorChoiceDTO struct {
	Mode    string `json:"mode"`
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Manager string `json:"manager,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ContractResolutionDTO 缺失合同的处理决定
type ContractResolutionDTO struct {
	ContractNumber string            `json:"contractNumber"`
	Company        CompanyChoiceDTO  `json:"company"`
	Operator       OperatorChoiceDTO `json:"operator"`
	Type           string            `json:"type"`
	Status         string            `json:"status"`
	StartDate      string            `json:"startDate"`
	EndDate        string            `json:"endDate"`
	MonthlyFee     float64           `json:"monthlyFee"`
	SimCount       int               `json:"simCount"`
}

// SimActionDTO 号码处理方式
type SimActionDTO struct {
	Phone  string `json:"phone"`
	Action string `json:"action"`
}

// TariffOverrideDTO 新建资费的月费覆盖
type TariffOverrideDTO struct {
	OperatorID int64    `json:"operatorId"`
	TariffName string   `json:"tariffName"`
	MonthlyFee *float64 `json:"monthlyFee"`
}

// ApplyRequestDTO 应用请求
type ApplyRequestDTO struct {
	Resolutions     []ContractResolutionDTO `json:"resolutions"`
	SimActions      []SimActionDTO          `json:"simActions"`
	TariffOverrides []TariffOverrideDTO     `json:"tariffOverrides"`
}

func (d CompanyChoiceDTO) toChoice() (model.CompanyChoice, error) {
	switch d.Mode {
	case modeExisting:
		if d.ID <= 0 {
			return nil, fmt.Errorf("company id is required")
		}
		return model.ExistingCompany{ID: d.ID}, nil
	case modeCreate:
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("company name is required")
		}
		return model.NewCompany{
			Name:        d.Name,
			INN:         d.INN,
			KPP:         d.KPP,
			Comment:     d.Comment,
			ForceCreate: d.ForceCreate,
		}, nil
	}
	return nil, fmt.Errorf("invalid company mode %q", d.Mode)
}

func (d OperatorChoiceDTO) toChoice() (model.OperatorChoice, error) {
	switch d.Mode {
	case modeExisting:
		if d.ID <= 0 {
			return nil, fmt.Errorf("operator id is required")
		}
		return model.ExistingOperator{ID: d.ID}, nil
	case modeCreate:
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("operator name is required")
		}
		return model.NewOperator{
			Name:    d.Name,
			Type:    d.Type,
			Manager: d.Manager,
			Phone:   d.Phone,
			Email:   d.Email,
		}, nil
	}
	return nil, fmt.Errorf("invalid operator mode %q", d.Mode)
}

func parseContractStatus(value string) (model.ContractStatus, error) {
	switch status := model.ContractStatus(value); status {
	case "", model.ContractActive, model.ContractClosing:
		return status, nil
	}
	return "", fmt.Errorf("invalid contract status %q", value)
}

// toRequest 校验并转换为导入协调器的请求
func (d ApplyRequestDTO) toRequest() (importer.ApplyRequest, error) {
	var req importer.ApplyRequest

	for i, r := range d.Resolutions {
		number := strings.TrimSpace(r.ContractNumber)
		if number == "" {
			return req, fmt.Errorf("resolutions[%d]: contract number is required", i)
		}
		company, err := r.Company.toChoice()
		if err != nil {
			return req, fmt.Errorf("resolutions[%d]: %w", i, err)
		}
		operator, err := r.Operator.toChoice()
		if err != nil {
			return req, fmt.Errorf("resolutions[%d]: %w", i, err)
		}
		status, err := parseContractStatus(r.Status)
		if err != nil {
			return req, fmt.Errorf("resolutions[%d]: %w", i, err)
		}
		req.Resolutions = append(req.Resolutions, model.ContractResolution{
			ContractNumber: number,
			Company:        company,
			Operator:       operator,
			Type:           r.Type,
			Status:         status,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			MonthlyFee:     r.MonthlyFee,
			SimCount:       r.SimCount,
		})
	}

	for i, a := range d.SimActions {
		action := model.SimCardAction(a.Action)
		if action != model.SimCreate && action != model.SimSkip {
			return req, fmt.Errorf("simActions[%d]: invalid action %q", i, a.Action)
		}
		req.SimActions = append(req.SimActions, model.SimCardDecision{Phone: a.Phone, Action: action})
	}

	for _, o := range d.TariffOverrides {
		req.TariffOverrides = append(req.TariffOverrides, model.TariffOverride{
			OperatorID: o.OperatorID,
			TariffName: o.TariffName,
			MonthlyFee: o.MonthlyFee,
		})
	}
	return req, nil
}

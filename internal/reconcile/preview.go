package reconcile

import (
	"github.com/shopspring/decimal"

	"telecost/internal/model"
	"telecost/internal/money"
	"telecost/internal/vat"
)

// Issue 行级问题标记
type Issue string

const (
	IssueVatMismatch     Issue = "vatMismatch"
	IssueMissingContract Issue = "missingContract"
	IssueMissingSim      Issue = "missingSim"
	IssueMissingTariff   Issue = "missingTariff"
)

// PreviewRow 预览行
type PreviewRow struct {
	model.ImportRow
	Issues []Issue `json:"issues"`
}

// MissingContract 缺失合同（周期取该合同号首行的值）
type MissingContract struct {
	ContractNumber string `json:"contractNumber"`
	RowsCount      int    `json:"rowsCount"`
	PeriodStart    string `json:"periodStart"`
	PeriodEnd      string `json:"periodEnd"`
}

// MissingSimCard 缺失 SIM 卡，Phone 为号码的首个变体
type MissingSimCard struct {
	Phone          string `json:"phone"`
	ContractNumber string `json:"contractNumber"`
	TariffName     string `json:"tariffName"`
}

// MissingTariff 缺失资费
type MissingTariff struct {
	OperatorID     int64  `json:"operatorId"`
	OperatorName   string `json:"operatorName"`
	ContractNumber string `json:"contractNumber"`
	TariffName     string `json:"tariffName"`
}

// Report 预览报告
type Report struct {
	Totals           model.PreviewSummary `json:"totals"`
	Rows             []PreviewRow         `json:"rows"`
	MissingContracts []MissingContract    `json:"missingContracts"`
	MissingSimCards  []MissingSimCard     `json:"missingSimCards"`
	MissingTariffs   []MissingTariff      `json:"missingTariffs"`
}

// registry 保持首次出现顺序的去重表
type registry[T any] struct {
	order []string
	items map[string]*T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[string]*T)}
}

func (r *registry[T]) get(key string) (*T, bool) {
	item, ok := r.items[key]
	return item, ok
}

// put 新键追加到末尾，已有键原位覆盖
func (r *registry[T]) put(key string, item T) {
	if existing, ok := r.items[key]; ok {
		*existing = item
		return
	}
	r.order = append(r.order, key)
	r.items[key] = &item
}

func (r *registry[T]) list() []T {
	out := make([]T, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.items[key])
	}
	return out
}

// Preview 对分摊后的行进行对账；对账缺口只作为报告数据返回
func Preview(distribution vat.Result, idx *Index) Report {
	contracts := newRegistry[MissingContract]()
	sims := newRegistry[MissingSimCard]()
	tariffs := newRegistry[MissingTariff]()

	var totalAmount, totalVat, totalTotal decimal.Decimal
	rows := make([]PreviewRow, 0, len(distribution.Rows))
	for _, row := range distribution.Rows {
		issues := []Issue{}

		// 已分摊分组的汇总税额行不计入合计
		if !(row.IsVatOnly && distribution.IsDistributed(model.VatGroupKey(row))) {
			totalAmount = totalAmount.Add(decimal.NewFromFloat(row.Amount))
			totalVat = totalVat.Add(decimal.NewFromFloat(row.VAT))
			totalTotal = totalTotal.Add(decimal.NewFromFloat(row.Total))
		}
		if row.VatMismatch {
			issues = append(issues, IssueVatMismatch)
		}

		contract, ok := idx.Contract(row.ContractNumber)
		switch {
		case !ok:
			issues = append(issues, IssueMissingContract)
			entry, seen := contracts.get(row.ContractNumber)
			if !seen {
				contracts.put(row.ContractNumber, MissingContract{
					ContractNumber: row.ContractNumber,
					PeriodStart:    row.PeriodStart,
					PeriodEnd:      row.PeriodEnd,
				})
				entry, _ = contracts.get(row.ContractNumber)
			}
			entry.RowsCount++
		case !row.IsVatOnly:
			if variants := model.PhoneVariants(row.Phone); len(variants) > 0 {
				if _, found := idx.SimCard(row.Phone); !found {
					issues = append(issues, IssueMissingSim)
					if _, seen := sims.get(variants[0]); !seen {
						sims.put(variants[0], MissingSimCard{
							Phone:          variants[0],
							ContractNumber: row.ContractNumber,
							TariffName:     row.TariffName,
						})
					}
				}
			}

			operator, found := idx.Operator(contract.OperatorID)
			if found && row.TariffName != "" {
				key := model.TariffKey(operator.ID, row.TariffName)
				if _, exists := idx.Tariff(key); !exists {
					issues = append(issues, IssueMissingTariff)
					tariffs.put(key, MissingTariff{
						OperatorID:     operator.ID,
						OperatorName:   operator.Name,
						ContractNumber: row.ContractNumber,
						TariffName:     row.TariffName,
					})
				}
			}
		}

		rows = append(rows, PreviewRow{ImportRow: row, Issues: issues})
	}

	report := Report{
		Rows:             rows,
		MissingContracts: contracts.list(),
		MissingSimCards:  sims.list(),
		MissingTariffs:   tariffs.list(),
	}
	report.Totals = model.PreviewSummary{
		Rows:             len(distribution.Rows),
		ContractsMissing: len(report.MissingContracts),
		SimCardsMissing:  len(report.MissingSimCards),
		TariffsMissing:   len(report.MissingTariffs),
		VatMismatches:    distribution.Mismatches,
		TotalAmount:      money.Round(totalAmount),
		TotalVat:         money.Round(totalVat),
		TotalTotal:       money.Round(totalTotal),
	}
	return report
}

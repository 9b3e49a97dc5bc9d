package importer

import (
	"fmt"

	"telecost/internal/model"
	"telecost/internal/reconcile"
	"telecost/internal/store"
)

const (
	expenseTypeVAT      = "НДС"
	expenseTypeFallback = "Начисления по счету"
	operatorFallback    = "Оператор"
	expenseConfirmed    = "confirmed"
	entityActive        = "active"
)

// batch 一次应用中的写入状态；已有主数据只读，本次新建的实体单独登记
type batch struct {
	idx *reconcile.Index
	w   store.Writer

	companies     map[string]int64           // 规范化企业名 -> 新建企业 ID
	operators     map[string]int64           // 运营商名称键 -> ID（新建或复用）
	operatorNames map[int64]string           // 新建运营商 ID -> 名称
	contracts     map[string]*model.Contract // 新建合同
	tariffs       map[string]*model.Tariff   // 新建资费
	sims          map[string]*model.SimCard  // 新建 SIM 卡（按号码全部变体登记）

	summary model.AppliedSummary
}

func newBatch(idx *reconcile.Index, w store.Writer) *batch {
	return &batch{
		idx:           idx,
		w:             w,
		companies:     make(map[string]int64),
		operators:     make(map[string]int64),
		operatorNames: make(map[int64]string),
		contracts:     make(map[string]*model.Contract),
		tariffs:       make(map[string]*model.Tariff),
		sims:          make(map[string]*model.SimCard),
	}
}

// run 依次创建企业、运营商、合同、资费、SIM 卡和费用记录
func (b *batch) run(rows []model.ImportRow, req ApplyRequest) error {
	pending := b.pendingResolutions(req.Resolutions)
	if err := b.createCompanies(pending); err != nil {
		return err
	}
	if err := b.createOperators(pending); err != nil {
		return err
	}
	if err := b.createContracts(pending); err != nil {
		return err
	}
	if err := b.createTariffs(rows, req.TariffOverrides); err != nil {
		return err
	}
	if err := b.createSimCards(rows, req.SimActions); err != nil {
		return err
	}
	return b.createExpenses(rows)
}

// pendingResolutions 合同号尚不存在的处理决定；同一合同号只取第一条
func (b *batch) pendingResolutions(resolutions []model.ContractResolution) []model.ContractResolution {
	seen := make(map[string]bool)
	var out []model.ContractResolution
	for _, r := range resolutions {
		if seen[r.ContractNumber] {
			continue
		}
		seen[r.ContractNumber] = true
		if _, exists := b.idx.Contract(r.ContractNumber); exists {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (b *batch) contract(number string) (*model.Contract, bool) {
	if c, ok := b.contracts[number]; ok {
		return c, true
	}
	return b.idx.Contract(number)
}

func (b *batch) tariff(key string) (*model.Tariff, bool) {
	if t, ok := b.tariffs[key]; ok {
		return t, true
	}
	return b.idx.Tariff(key)
}

func (b *batch) hasSim(variants []string) bool {
	for _, variant := range variants {
		if _, ok := b.sims[variant]; ok {
			return true
		}
	}
	_, ok := b.idx.SimCard(variants[0])
	return ok
}

func (b *batch) operatorName(id int64) string {
	if name, ok := b.operatorNames[id]; ok {
		return name
	}
	if o, ok := b.idx.Operator(id); ok {
		return o.Name
	}
	return operatorFallback
}

// createCompanies 按规范化名称去重，首次出现者创建
func (b *batch) createCompanies(resolutions []model.ContractResolution) error {
	for _, r := range resolutions {
		create, ok := r.Company.(model.NewCompany)
		if !ok {
			continue
		}
		key := reconcile.NormalizeCompanyName(create.Name).Normalized
		if _, done := b.companies[key]; done {
			continue
		}
		company := &model.Company{
			Name:    create.Name,
			INN:     create.INN,
			KPP:     create.KPP,
			Comment: create.Comment,
		}
		if err := b.w.CreateCompany(company); err != nil {
			return fmt.Errorf("failed to create company %q: %w", create.Name, err)
		}
		b.companies[key] = company.ID
	}
	return nil
}

// createOperators 同名（忽略大小写）运营商已存在时复用
func (b *batch) createOperators(resolutions []model.ContractResolution) error {
	for _, r := range resolutions {
		create, ok := r.Operator.(model.NewOperator)
		if !ok {
			continue
		}
		key := model.OperatorNameKey(create.Name)
		if _, done := b.operators[key]; done {
			continue
		}
		if existing, found := b.idx.OperatorByName(create.Name); found {
			b.operators[key] = existing.ID
			continue
		}
		operator := &model.Operator{
			Name:    create.Name,
			Type:    create.Type,
			Manager: create.Manager,
			Phone:   create.Phone,
			Email:   create.Email,
		}
		if err := b.w.CreateOperator(operator); err != nil {
			return fmt.Errorf("failed to create operator %q: %w", create.Name, err)
		}
		b.operators[key] = operator.ID
		b.operatorNames[operator.ID] = operator.Name
	}
	return nil
}

func (b *batch) companyID(r model.ContractResolution) (int64, error) {
	switch choice := r.Company.(type) {
	case model.ExistingCompany:
		return choice.ID, nil
	case model.NewCompany:
		if id, ok := b.companies[reconcile.NormalizeCompanyName(choice.Name).Normalized]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("company %q was not created", choice.Name)
	}
	return 0, fmt.Errorf("contract %s: company choice is required", r.ContractNumber)
}

func (b *batch) operatorID(r model.ContractResolution) (int64, error) {
	switch choice := r.Operator.(type) {
	case model.ExistingOperator:
		return choice.ID, nil
	case model.NewOperator:
		if id, ok := b.operators[model.OperatorNameKey(choice.Name)]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("operator %q was not created", choice.Name)
	}
	return 0, fmt.Errorf("contract %s: operator choice is required", r.ContractNumber)
}

func (b *batch) createContracts(resolutions []model.ContractResolution) error {
	for _, r := range resolutions {
		companyID, err := b.companyID(r)
		if err != nil {
			return err
		}
		operatorID, err := b.operatorID(r)
		if err != nil {
			return err
		}
		contract := &model.Contract{
			Number:     r.ContractNumber,
			CompanyID:  companyID,
			OperatorID: operatorID,
			Type:       r.Type,
			Status:     r.Status,
			StartDate:  r.StartDate,
			EndDate:    r.EndDate,
			MonthlyFee: r.MonthlyFee,
			SimCount:   r.SimCount,
		}
		if contract.Status == "" {
			contract.Status = model.ContractActive
		}
		if err := b.w.CreateContract(contract); err != nil {
			return fmt.Errorf("failed to create contract %s: %w", r.ContractNumber, err)
		}
		b.contracts[contract.Number] = contract
		b.summary.ContractsCreated++
	}
	return nil
}

// createTariffs 月费优先取覆盖值，其次取行中最大月费
func (b *batch) createTariffs(rows []model.ImportRow, overrides []model.TariffOverride) error {
	fees := reconcile.BuildTariffFeeByKey(rows, b.contract)
	overrideFees := make(map[string]float64, len(overrides))
	for _, o := range overrides {
		var fee float64
		if o.MonthlyFee != nil {
			fee = *o.MonthlyFee
		}
		overrideFees[model.TariffKey(o.OperatorID, o.TariffName)] = fee
	}

	for _, row := range rows {
		if row.TariffName == "" {
			continue
		}
		contract, ok := b.contract(row.ContractNumber)
		if !ok {
			continue
		}
		key := model.TariffKey(contract.OperatorID, row.TariffName)
		if _, exists := b.tariff(key); exists {
			continue
		}
		fee, overridden := overrideFees[key]
		if !overridden {
			fee = fees[key]
		}
		tariff := &model.Tariff{
			OperatorID: contract.OperatorID,
			Name:       row.TariffName,
			MonthlyFee: fee,
			Status:     entityActive,
		}
		if err := b.w.CreateTariff(tariff); err != nil {
			return fmt.Errorf("failed to create tariff %q: %w", row.TariffName, err)
		}
		b.tariffs[key] = tariff
		b.summary.TariffsCreated++
	}
	return nil
}

// createSimCards 新建的 SIM 卡立即按全部变体登记，后续行视为已存在
func (b *batch) createSimCards(rows []model.ImportRow, actions []model.SimCardDecision) error {
	decisions := make(map[string]model.SimCardAction)
	for _, a := range actions {
		for _, variant := range model.PhoneVariants(a.Phone) {
			decisions[variant] = a.Action
		}
	}

	for _, row := range rows {
		if row.IsVatOnly || row.Phone == "" {
			continue
		}
		contract, ok := b.contract(row.ContractNumber)
		if !ok {
			continue
		}
		variants := model.PhoneVariants(row.Phone)
		if len(variants) == 0 || b.hasSim(variants) {
			continue
		}
		if decisions[variants[0]] == model.SimSkip {
			continue
		}

		sim := &model.SimCard{
			Number:     row.Phone,
			CompanyID:  contract.CompanyID,
			OperatorID: contract.OperatorID,
			Status:     entityActive,
			Type:       row.TariffName,
		}
		if row.TariffName != "" {
			if t, exists := b.tariff(model.TariffKey(contract.OperatorID, row.TariffName)); exists {
				id := t.ID
				sim.TariffID = &id
			}
		}
		if err := b.w.CreateSimCard(sim); err != nil {
			return fmt.Errorf("failed to create sim card %s: %w", row.Phone, err)
		}
		for _, variant := range variants {
			b.sims[variant] = sim
		}
		b.summary.SimCardsCreated++
	}
	return nil
}

// createExpenses 每行一条费用记录，包括汇总税额行
func (b *batch) createExpenses(rows []model.ImportRow) error {
	for _, row := range rows {
		contract, ok := b.contract(row.ContractNumber)
		if !ok {
			continue
		}
		expense := &model.Expense{
			CompanyID:   contract.CompanyID,
			Type:        expenseType(row),
			Amount:      row.Amount,
			VAT:         row.VAT,
			Total:       row.Total,
			Month:       row.Month,
			Contract:    row.ContractNumber,
			Operator:    b.operatorName(contract.OperatorID),
			Status:      expenseConfirmed,
			HasDocument: true,
		}
		if !row.IsVatOnly {
			expense.SimNumber = row.Phone
		}
		if err := b.w.CreateExpense(expense); err != nil {
			return fmt.Errorf("failed to create expense for row %d: %w", row.RowIndex, err)
		}
		b.summary.ExpensesCreated++
	}
	return nil
}

func expenseType(row model.ImportRow) string {
	switch {
	case row.IsVatOnly:
		return expenseTypeVAT
	case row.TariffName != "":
		return row.TariffName
	}
	return expenseTypeFallback
}

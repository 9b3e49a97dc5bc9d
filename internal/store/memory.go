package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telecost/internal/model"
	"telecost/internal/money"
)

// MemoryStore 内存数据存储，与 Store 行为一致（自然键唯一、事务整体提交或丢弃）
type MemoryStore struct {
	mu      sync.RWMutex
	data    memoryData
	imports map[int64]*memoryImport
	nextID  int64
}

type memoryData struct {
	companies []*model.Company
	operators []*model.Operator
	contracts []*model.Contract
	tariffs   []*model.Tariff
	simCards  []*model.SimCard
	expenses  []*model.Expense
}

type memoryImport struct {
	record model.BillingImport
	data   []byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{imports: make(map[int64]*memoryImport)}
}

func (s *MemoryStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

// AddCompany 添加单个企业
func (s *MemoryStore) AddCompany(c *model.Company) *model.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.allocID()
	s.data.companies = append(s.data.companies, c)
	return c
}

// AddOperator 添加单个运营商
func (s *MemoryStore) AddOperator(o *model.Operator) *model.Operator {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.allocID()
	s.data.operators = append(s.data.operators, o)
	return o
}

// AddContract 添加单个合同
func (s *MemoryStore) AddContract(c *model.Contract) *model.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.allocID()
	s.data.contracts = append(s.data.contracts, c)
	return c
}

// AddTariff 添加单个资费
func (s *MemoryStore) AddTariff(t *model.Tariff) *model.Tariff {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.allocID()
	s.data.tariffs = append(s.data.tariffs, t)
	return t
}

// AddSimCard 添加单个 SIM 卡
func (s *MemoryStore) AddSimCard(sim *model.SimCard) *model.SimCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim.ID = s.allocID()
	s.data.simCards = append(s.data.simCards, sim)
	return sim
}

// CreateImport 保存上传内容并创建导入记录
func (s *MemoryStore) CreateImport(_ context.Context, fileName string, data []byte) (*model.BillingImport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := model.BillingImport{
		ID:        s.allocID(),
		FileName:  fileName,
		FileSize:  int64(len(data)),
		Status:    model.ImportUploaded,
		CreatedAt: time.Now().UTC(),
	}
	s.imports[record.ID] = &memoryImport{record: record, data: append([]byte(nil), data...)}
	out := record
	return &out, nil
}

// GetImport 按 ID 读取导入记录
func (s *MemoryStore) GetImport(_ context.Context, id int64) (*model.BillingImport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	imp, ok := s.imports[id]
	if !ok {
		return nil, fmt.Errorf("billing import %d: %w", id, ErrNotFound)
	}
	out := imp.record
	return &out, nil
}

// LoadImportFile 读取导入记录及其原始内容
func (s *MemoryStore) LoadImportFile(ctx context.Context, id int64) (*model.BillingImport, []byte, error) {
	record, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return record, s.imports[id].data, nil
}

// ListImports 按 ID 倒序列出导入记录
func (s *MemoryStore) ListImports(_ context.Context, limit int) ([]*model.BillingImport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.BillingImport, 0, len(s.imports))
	for id := s.nextID; id > 0 && len(out) < limit; id-- {
		if imp, ok := s.imports[id]; ok {
			record := imp.record
			out = append(out, &record)
		}
	}
	return out, nil
}

// SavePreviewSummary 保存预览汇总；已应用的导入保持 applied 状态
func (s *MemoryStore) SavePreviewSummary(_ context.Context, id int64, summary model.PreviewSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	imp, ok := s.imports[id]
	if !ok {
		return fmt.Errorf("billing import %d: %w", id, ErrNotFound)
	}
	imp.record.PreviewSummary = &summary
	if imp.record.Status != model.ImportApplied {
		imp.record.Status = model.ImportPreview
	}
	return nil
}

// MasterData 主数据快照
func (s *MemoryStore) MasterData(_ context.Context) (*model.MasterData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &model.MasterData{
		Companies: append([]*model.Company(nil), s.data.companies...),
		Operators: append([]*model.Operator(nil), s.data.operators...),
		Contracts: append([]*model.Contract(nil), s.data.contracts...),
		Tariffs:   append([]*model.Tariff(nil), s.data.tariffs...),
		SimCards:  append([]*model.SimCard(nil), s.data.simCards...),
	}, nil
}

// Expenses 所有费用记录
func (s *MemoryStore) Expenses() []*model.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Expense(nil), s.data.expenses...)
}

// ListExpenseMonths 与 Store.ListExpenseMonths 相同的月份统计
func (s *MemoryStore) ListExpenseMonths(_ context.Context) ([]ExpenseMonthStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]*ExpenseMonthStat)
	contracts := make(map[string]map[string]bool)
	var order []string
	for i := len(s.data.expenses) - 1; i >= 0; i-- {
		e := s.data.expenses[i]
		st, ok := stats[e.Month]
		if !ok {
			st = &ExpenseMonthStat{Month: e.Month}
			stats[e.Month] = st
			contracts[e.Month] = make(map[string]bool)
			order = append(order, e.Month)
		}
		st.Expenses++
		st.Total += e.Total
		contracts[e.Month][e.Contract] = true
	}

	out := make([]ExpenseMonthStat, 0, len(order))
	for _, month := range order {
		st := stats[month]
		st.Contracts = len(contracts[month])
		st.Total = money.RoundCurrency(st.Total)
		out = append(out, *st)
	}
	return out, nil
}

// WithTx 在数据副本上执行 fn，成功后整体替换
func (s *MemoryStore) WithTx(_ context.Context, fn func(Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &memoryWriter{
		store:   s,
		data:    s.data.clone(),
		applied: make(map[int64]model.AppliedSummary),
		nextID:  s.nextID,
	}
	if err := fn(w); err != nil {
		return err
	}

	s.data = w.data
	s.nextID = w.nextID
	now := time.Now().UTC()
	for id, summary := range w.applied {
		summary := summary
		imp := s.imports[id]
		imp.record.Status = model.ImportApplied
		imp.record.AppliedSummary = &summary
		imp.record.AppliedAt = &now
	}
	return nil
}

func (d memoryData) clone() memoryData {
	return memoryData{
		companies: append([]*model.Company(nil), d.companies...),
		operators: append([]*model.Operator(nil), d.operators...),
		contracts: append([]*model.Contract(nil), d.contracts...),
		tariffs:   append([]*model.Tariff(nil), d.tariffs...),
		simCards:  append([]*model.SimCard(nil), d.simCards...),
		expenses:  append([]*model.Expense(nil), d.expenses...),
	}
}

// memoryWriter 事务内写入器，只修改副本
type memoryWriter struct {
	store   *MemoryStore
	data    memoryData
	applied map[int64]model.AppliedSummary
	nextID  int64
}

func (w *memoryWriter) allocID() int64 {
	w.nextID++
	return w.nextID
}

func (w *memoryWriter) CreateCompany(c *model.Company) error {
	c.ID, c.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.companies = append(w.data.companies, c)
	return nil
}

func (w *memoryWriter) CreateOperator(o *model.Operator) error {
	o.ID, o.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.operators = append(w.data.operators, o)
	return nil
}

func (w *memoryWriter) CreateContract(c *model.Contract) error {
	for _, existing := range w.data.contracts {
		if existing.Number == c.Number {
			return fmt.Errorf("contract %s: %w", c.Number, ErrDuplicate)
		}
	}
	c.ID, c.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.contracts = append(w.data.contracts, c)
	return nil
}

func (w *memoryWriter) CreateTariff(t *model.Tariff) error {
	key := model.TariffKey(t.OperatorID, t.Name)
	for _, existing := range w.data.tariffs {
		if model.TariffKey(existing.OperatorID, existing.Name) == key {
			return fmt.Errorf("tariff %q: %w", t.Name, ErrDuplicate)
		}
	}
	t.ID, t.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.tariffs = append(w.data.tariffs, t)
	return nil
}

func (w *memoryWriter) CreateSimCard(sim *model.SimCard) error {
	for _, existing := range w.data.simCards {
		if existing.Number == sim.Number {
			return fmt.Errorf("sim card %s: %w", sim.Number, ErrDuplicate)
		}
	}
	sim.ID, sim.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.simCards = append(w.data.simCards, sim)
	return nil
}

func (w *memoryWriter) CreateExpense(e *model.Expense) error {
	e.ID, e.CreatedAt = w.allocID(), time.Now().UTC()
	w.data.expenses = append(w.data.expenses, e)
	return nil
}

func (w *memoryWriter) MarkApplied(importID int64, summary model.AppliedSummary) error {
	imp, ok := w.store.imports[importID]
	if !ok {
		return fmt.Errorf("billing import %d: %w", importID, ErrNotFound)
	}
	if imp.record.Status == model.ImportApplied {
		return fmt.Errorf("import %d: %w", importID, ErrAlreadyApplied)
	}
	if _, done := w.applied[importID]; done {
		return fmt.Errorf("import %d: %w", importID, ErrAlreadyApplied)
	}
	w.applied[importID] = summary
	return nil
}

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"telecost/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	st, err := New(filepath.Join(dir, "data", "telecost.db"), filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestNew_RunsMigrations(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	for _, table := range []string{"companies", "operators", "contracts", "tariffs", "sim_cards", "expenses", "billing_imports"} {
		var name string
		err := st.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestCreateImport_StoresFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	record, err := st.CreateImport(ctx, "bill.csv", []byte("Договор № 1"))
	if err != nil {
		t.Fatalf("CreateImport: %v", err)
	}
	if record.Status != model.ImportUploaded || record.FileSize != int64(len("Договор № 1")) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.FileHash == "" {
		t.Fatalf("expected file hash")
	}
	if _, err := os.Stat(record.FilePath); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	loaded, data, err := st.LoadImportFile(ctx, record.ID)
	if err != nil {
		t.Fatalf("LoadImportFile: %v", err)
	}
	if loaded.FileName != "bill.csv" || string(data) != "Договор № 1" {
		t.Fatalf("unexpected load: %+v %q", loaded, data)
	}
}

func TestGetImport_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if _, err := st.GetImport(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.SavePreviewSummary(context.Background(), 42, model.PreviewSummary{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTx_CommitAndApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	record, err := st.CreateImport(ctx, "bill.csv", []byte("x"))
	if err != nil {
		t.Fatalf("CreateImport: %v", err)
	}
	if err := st.SavePreviewSummary(ctx, record.ID, model.PreviewSummary{Rows: 2, TotalTotal: 360}); err != nil {
		t.Fatalf("SavePreviewSummary: %v", err)
	}

	summary := model.AppliedSummary{ContractsCreated: 1, ExpensesCreated: 1}
	err = st.WithTx(ctx, func(w Writer) error {
		company := &model.Company{Name: "ООО Ромашка"}
		if err := w.CreateCompany(company); err != nil {
			return err
		}
		operator := &model.Operator{Name: "МТС"}
		if err := w.CreateOperator(operator); err != nil {
			return err
		}
		contract := &model.Contract{Number: "C-1", CompanyID: company.ID, OperatorID: operator.ID, Status: model.ContractActive}
		if err := w.CreateContract(contract); err != nil {
			return err
		}
		tariff := &model.Tariff{OperatorID: operator.ID, Name: "Офис", MonthlyFee: 500, Status: "active"}
		if err := w.CreateTariff(tariff); err != nil {
			return err
		}
		tariffID := tariff.ID
		sim := &model.SimCard{Number: "79001112233", CompanyID: company.ID, OperatorID: operator.ID, TariffID: &tariffID, Status: "active"}
		if err := w.CreateSimCard(sim); err != nil {
			return err
		}
		expense := &model.Expense{
			CompanyID: company.ID, Type: "Офис", Amount: 200, VAT: 40, Total: 240,
			Month: "Ноябрь 2025", SimNumber: sim.Number, Contract: "C-1", Operator: "МТС",
			Status: "confirmed", HasDocument: true,
		}
		if err := w.CreateExpense(expense); err != nil {
			return err
		}
		return w.MarkApplied(record.ID, summary)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	data, err := st.MasterData(ctx)
	if err != nil {
		t.Fatalf("MasterData: %v", err)
	}
	if len(data.Companies) != 1 || len(data.Operators) != 1 || len(data.Contracts) != 1 ||
		len(data.Tariffs) != 1 || len(data.SimCards) != 1 {
		t.Fatalf("unexpected master data: %+v", data)
	}
	if data.SimCards[0].TariffID == nil || *data.SimCards[0].TariffID != data.Tariffs[0].ID {
		t.Fatalf("sim tariff not linked: %+v", data.SimCards[0])
	}

	expenses, err := st.ListExpenses(ctx, "C-1")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Total != 240 || !expenses[0].HasDocument {
		t.Fatalf("unexpected expenses: %+v", expenses)
	}

	months, err := st.ListExpenseMonths(ctx)
	if err != nil {
		t.Fatalf("ListExpenseMonths: %v", err)
	}
	if len(months) != 1 || months[0] != (ExpenseMonthStat{Month: "Ноябрь 2025", Contracts: 1, Expenses: 1, Total: 240}) {
		t.Fatalf("unexpected months: %+v", months)
	}

	applied, err := st.GetImport(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if applied.Status != model.ImportApplied || applied.AppliedAt == nil {
		t.Fatalf("import not applied: %+v", applied)
	}
	if applied.AppliedSummary == nil || *applied.AppliedSummary != summary {
		t.Fatalf("applied summary = %+v", applied.AppliedSummary)
	}
	if applied.PreviewSummary == nil || applied.PreviewSummary.Rows != 2 {
		t.Fatalf("preview summary lost: %+v", applied.PreviewSummary)
	}

	// 已应用的导入再次预览时保持 applied
	if err := st.SavePreviewSummary(ctx, record.ID, model.PreviewSummary{Rows: 3}); err != nil {
		t.Fatalf("SavePreviewSummary: %v", err)
	}
	again, _ := st.GetImport(ctx, record.ID)
	if again.Status != model.ImportApplied || again.PreviewSummary.Rows != 3 {
		t.Fatalf("unexpected import after re-preview: %+v", again)
	}
}

func TestWithTx_DuplicateContractRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	seed := func(w Writer) error {
		company := &model.Company{Name: "ООО Альфа"}
		if err := w.CreateCompany(company); err != nil {
			return err
		}
		operator := &model.Operator{Name: "Билайн"}
		if err := w.CreateOperator(operator); err != nil {
			return err
		}
		return w.CreateContract(&model.Contract{Number: "C-7", CompanyID: company.ID, OperatorID: operator.ID, Status: model.ContractActive})
	}
	if err := st.WithTx(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := st.WithTx(ctx, seed)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	companies, err := st.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("companies=%d, want 1 after rollback", len(companies))
	}
}

func TestMarkApplied_Twice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	record, err := st.CreateImport(ctx, "bill.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("CreateImport: %v", err)
	}
	mark := func(w Writer) error { return w.MarkApplied(record.ID, model.AppliedSummary{}) }
	if err := st.WithTx(ctx, mark); err != nil {
		t.Fatalf("first MarkApplied: %v", err)
	}
	if err := st.WithTx(ctx, mark); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
}

func TestListImports_NewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		if _, err := st.CreateImport(ctx, name, []byte(name)); err != nil {
			t.Fatalf("CreateImport %s: %v", name, err)
		}
	}
	imports, err := st.ListImports(ctx, 2)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(imports) != 2 || imports[0].FileName != "c.csv" {
		t.Fatalf("unexpected imports: %+v", imports)
	}
}

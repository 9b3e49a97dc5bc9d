package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"telecost/internal/model"
)

// Writer 事务内的写操作；Create* 成功后回填 ID 与创建时间
type Writer interface {
	CreateCompany(c *model.Company) error
	CreateOperator(o *model.Operator) error
	CreateContract(c *model.Contract) error
	CreateTariff(t *model.Tariff) error
	CreateSimCard(s *model.SimCard) error
	CreateExpense(e *model.Expense) error
	MarkApplied(importID int64, summary model.AppliedSummary) error
}

// WithTx 在单个事务中执行 fn；fn 返回错误时回滚，否则提交
func (s *Store) WithTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txWriter{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txWriter 绑定到单个事务的写入器
type txWriter struct {
	ctx context.Context
	tx  *sql.Tx
}

func (w *txWriter) insert(query string, args ...interface{}) (int64, error) {
	res, err := w.tx.ExecContext(w.ctx, query, args...)
	if err != nil {
		return 0, translateError(err)
	}
	return res.LastInsertId()
}

// CreateCompany 新建企业
func (w *txWriter) CreateCompany(c *model.Company) error {
	c.CreatedAt = time.Now().UTC()
	id, err := w.insert(`
		INSERT INTO companies (name, inn, kpp, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.Name, c.INN, c.KPP, c.Comment, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	c.ID = id
	return nil
}

// CreateOperator 新建运营商
func (w *txWriter) CreateOperator(o *model.Operator) error {
	o.CreatedAt = time.Now().UTC()
	id, err := w.insert(`
		INSERT INTO operators (name, type, manager, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.Name, o.Type, o.Manager, o.Phone, o.Email, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert operator: %w", err)
	}
	o.ID = id
	return nil
}

// CreateContract 新建合同；合同号重复时返回 ErrDuplicate
func (w *txWriter) CreateContract(c *model.Contract) error {
	c.CreatedAt = time.Now().UTC()
	id, err := w.insert(`
		INSERT INTO contracts (
			number, company_id, operator_id, type, status,
			start_date, end_date, monthly_fee, sim_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Number, c.CompanyID, c.OperatorID, c.Type, string(c.Status),
		c.StartDate, c.EndDate, c.MonthlyFee, c.SimCount, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contract %s: %w", c.Number, err)
	}
	c.ID = id
	return nil
}

// CreateTariff 新建资费；同一运营商下资费名（忽略大小写）唯一
func (w *txWriter) CreateTariff(t *model.Tariff) error {
	t.CreatedAt = time.Now().UTC()
	id, err := w.insert(`
		INSERT INTO tariffs (operator_id, name, name_key, monthly_fee, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.OperatorID, t.Name, model.OperatorNameKey(t.Name), t.MonthlyFee, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tariff %q: %w", t.Name, err)
	}
	t.ID = id
	return nil
}

// CreateSimCard 新建 SIM 卡
func (w *txWriter) CreateSimCard(s *model.SimCard) error {
	s.CreatedAt = time.Now().UTC()
	var tariffID sql.NullInt64
	if s.TariffID != nil {
		tariffID = sql.NullInt64{Int64: *s.TariffID, Valid: true}
	}
	id, err := w.insert(`
		INSERT INTO sim_cards (number, company_id, operator_id, tariff_id, status, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.Number, s.CompanyID, s.OperatorID, tariffID, s.Status, s.Type, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sim card %s: %w", s.Number, err)
	}
	s.ID = id
	return nil
}

// CreateExpense 新建费用记录
func (w *txWriter) CreateExpense(e *model.Expense) error {
	e.CreatedAt = time.Now().UTC()
	id, err := w.insert(`
		INSERT INTO expenses (
			company_id, type, amount, vat, total, month, sim_number,
			contract, operator, status, has_document, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.CompanyID, e.Type, e.Amount, e.VAT, e.Total, e.Month, e.SimNumber,
		e.Contract, e.Operator, e.Status, e.HasDocument, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID = id
	return nil
}

// MarkApplied 标记导入已应用；已应用的记录不会被再次标记
func (w *txWriter) MarkApplied(importID int64, summary model.AppliedSummary) error {
	payload, err := encodeSummary(summary)
	if err != nil {
		return err
	}
	res, err := w.tx.ExecContext(w.ctx, `
		UPDATE billing_imports SET
			status = ?,
			applied_summary = ?,
			applied_at = ?
		WHERE id = ? AND status <> ?
	`, string(model.ImportApplied), payload, time.Now().UTC(), importID, string(model.ImportApplied))
	if err != nil {
		return fmt.Errorf("failed to mark import applied: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark import applied: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import %d: %w", importID, ErrAlreadyApplied)
	}
	return nil
}

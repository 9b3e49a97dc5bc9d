package store

import (
	"context"
	"database/sql"
	"fmt"

	"telecost/internal/model"
)

// MasterData 读取主数据快照（企业、运营商、合同、资费、SIM 卡）
func (s *Store) MasterData(ctx context.Context) (*model.MasterData, error) {
	data := &model.MasterData{}
	var err error
	if data.Companies, err = s.ListCompanies(ctx); err != nil {
		return nil, err
	}
	if data.Operators, err = s.ListOperators(ctx); err != nil {
		return nil, err
	}
	if data.Contracts, err = s.ListContracts(ctx); err != nil {
		return nil, err
	}
	if data.Tariffs, err = s.ListTariffs(ctx); err != nil {
		return nil, err
	}
	if data.SimCards, err = s.ListSimCards(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

// queryAll 执行查询并逐行扫描
func queryAll[T any](ctx context.Context, db *sql.DB, what, query string, scan func(*sql.Rows) (*T, error)) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", what, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s failed: %w", what, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s failed: %w", what, err)
	}
	return out, nil
}

// ListCompanies 所有企业
func (s *Store) ListCompanies(ctx context.Context) ([]*model.Company, error) {
	return queryAll(ctx, s.db, "companies", `
		SELECT id, name, inn, kpp, comment, created_at FROM companies ORDER BY id
	`, func(rows *sql.Rows) (*model.Company, error) {
		var c model.Company
		err := rows.Scan(&c.ID, &c.Name, &c.INN, &c.KPP, &c.Comment, &c.CreatedAt)
		return &c, err
	})
}

// ListOperators 所有运营商
func (s *Store) ListOperators(ctx context.Context) ([]*model.Operator, error) {
	return queryAll(ctx, s.db, "operators", `
		SELECT id, name, type, manager, phone, email, created_at FROM operators ORDER BY id
	`, func(rows *sql.Rows) (*model.Operator, error) {
		var o model.Operator
		err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.Manager, &o.Phone, &o.Email, &o.CreatedAt)
		return &o, err
	})
}

// ListContracts 所有合同
func (s *Store) ListContracts(ctx context.Context) ([]*model.Contract, error) {
	return queryAll(ctx, s.db, "contracts", `
		SELECT id, number, company_id, operator_id, type, status,
			start_date, end_date, monthly_fee, sim_count, created_at
		FROM contracts ORDER BY id
	`, func(rows *sql.Rows) (*model.Contract, error) {
		var (
			c      model.Contract
			status string
		)
		err := rows.Scan(&c.ID, &c.Number, &c.CompanyID, &c.OperatorID, &c.Type, &status,
			&c.StartDate, &c.EndDate, &c.MonthlyFee, &c.SimCount, &c.CreatedAt)
		c.Status = model.ContractStatus(status)
		return &c, err
	})
}

// ListTariffs 所有资费
func (s *Store) ListTariffs(ctx context.Context) ([]*model.Tariff, error) {
	return queryAll(ctx, s.db, "tariffs", `
		SELECT id, operator_id, name, monthly_fee, status, created_at FROM tariffs ORDER BY id
	`, func(rows *sql.Rows) (*model.Tariff, error) {
		var t model.Tariff
		err := rows.Scan(&t.ID, &t.OperatorID, &t.Name, &t.MonthlyFee, &t.Status, &t.CreatedAt)
		return &t, err
	})
}

// ListSimCards 所有 SIM 卡
func (s *Store) ListSimCards(ctx context.Context) ([]*model.SimCard, error) {
	return queryAll(ctx, s.db, "sim cards", `
		SELECT id, number, company_id, operator_id, tariff_id, status, type, created_at
		FROM sim_cards ORDER BY id
	`, func(rows *sql.Rows) (*model.SimCard, error) {
		var (
			sim      model.SimCard
			tariffID sql.NullInt64
		)
		err := rows.Scan(&sim.ID, &sim.Number, &sim.CompanyID, &sim.OperatorID, &tariffID,
			&sim.Status, &sim.Type, &sim.CreatedAt)
		if tariffID.Valid {
			id := tariffID.Int64
			sim.TariffID = &id
		}
		return &sim, err
	})
}

// ListExpenses 指定合同的费用记录
func (s *Store) ListExpenses(ctx context.Context, contract string) ([]*model.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, type, amount, vat, total, month, sim_number,
			contract, operator, status, has_document, created_at
		FROM expenses WHERE contract = ? ORDER BY id
	`, contract)
	if err != nil {
		return nil, fmt.Errorf("query expenses failed: %w", err)
	}
	defer rows.Close()

	var out []*model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Type, &e.Amount, &e.VAT, &e.Total, &e.Month, &e.SimNumber,
			&e.Contract, &e.Operator, &e.Status, &e.HasDocument, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expenses failed: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses failed: %w", err)
	}
	return out, nil
}

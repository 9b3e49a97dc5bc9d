package store

import (
	"context"
	"fmt"

	"telecost/internal/money"
)

// ExpenseMonthStat 按账期月份统计的费用
type ExpenseMonthStat struct {
	Month     string  `json:"month"`
	Contracts int     `json:"contracts"`
	Expenses  int     `json:"expenses"`
	Total     float64 `json:"total"`
}

// ListExpenseMonths 列出已有费用的账期月份（最近写入的月份在前）
func (s *Store) ListExpenseMonths(ctx context.Context) ([]ExpenseMonthStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			month,
			COUNT(DISTINCT contract) AS contracts,
			COUNT(1) AS expenses,
			COALESCE(SUM(total), 0) AS total
		FROM expenses
		GROUP BY month
		ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query expense months failed: %w", err)
	}
	defer rows.Close()

	var out []ExpenseMonthStat
	for rows.Next() {
		var it ExpenseMonthStat
		if err := rows.Scan(&it.Month, &it.Contracts, &it.Expenses, &it.Total); err != nil {
			return nil, fmt.Errorf("scan expense months failed: %w", err)
		}
		it.Total = money.RoundCurrency(it.Total)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense months failed: %w", err)
	}
	return out, nil
}

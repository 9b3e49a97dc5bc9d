package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telecost/internal/model"
	"telecost/internal/parser"
	"telecost/internal/reconcile"
	"telecost/internal/store"
	"telecost/internal/vat"
)

// ErrAlreadyApplied 导入已应用，不能重复应用
var ErrAlreadyApplied = store.ErrAlreadyApplied

// Repository 导入所需的存储能力
type Repository interface {
	// LoadImportFile 读取导入记录及上传的原始文件
	LoadImportFile(ctx context.Context, id int64) (*model.BillingImport, []byte, error)
	// MasterData 当前主数据快照
	MasterData(ctx context.Context) (*model.MasterData, error)
	// SavePreviewSummary 保存预览汇总并将状态置为 preview
	SavePreviewSummary(ctx context.Context, id int64, summary model.PreviewSummary) error
	// WithTx 在单个事务中执行写入；fn 返回错误时整体回滚
	WithTx(ctx context.Context, fn func(store.Writer) error) error
}

// Coordinator 导入协调器
type Coordinator struct {
	repo   Repository
	logger zerolog.Logger
}

// NewCoordinator 创建导入协调器
func NewCoordinator(repo Repository, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		repo:   repo,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// PreviewResult 预览结果
type PreviewResult struct {
	ImportID int64  `json:"importId"`
	FileName string `json:"fileName"`
	reconcile.Report
}

// ApplyStatus 应用结果状态
type ApplyStatus string

const (
	StatusApplied           ApplyStatus = "applied"
	StatusNeedsConfirmation ApplyStatus = "needs_confirmation"
	StatusMissingContracts  ApplyStatus = "missing_contracts"
)

// ApplyRequest 用户提交的处理决定
type ApplyRequest struct {
	Resolutions     []model.ContractResolution
	SimActions      []model.SimCardDecision
	TariffOverrides []model.TariffOverride
}

// ApplyResult 应用结果；被拒绝时 OK 为 false，不产生任何写入
type ApplyResult struct {
	OK               bool                        `json:"ok"`
	Status           ApplyStatus                 `json:"status"`
	CompanyConflicts []reconcile.CompanyConflict `json:"companyConflicts,omitempty"`
	MissingContracts []string                    `json:"missingContracts,omitempty"`
	Summary          *model.AppliedSummary       `json:"appliedSummary,omitempty"`
}

// load 读取文件、解析并分摊税额
func (c *Coordinator) load(ctx context.Context, id int64) (*model.BillingImport, vat.Result, error) {
	record, data, err := c.repo.LoadImportFile(ctx, id)
	if err != nil {
		return nil, vat.Result{}, err
	}
	rows, err := parser.Parse(record.FileName, data)
	if err != nil {
		return nil, vat.Result{}, fmt.Errorf("failed to parse import %d: %w", id, err)
	}
	return record, vat.Distribute(rows), nil
}

// Preview 解析并对账，只读；保存预览汇总
func (c *Coordinator) Preview(ctx context.Context, id int64) (*PreviewResult, error) {
	start := time.Now()

	record, distribution, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := c.repo.MasterData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master data: %w", err)
	}

	report := reconcile.Preview(distribution, reconcile.NewIndex(data))
	if err := c.repo.SavePreviewSummary(ctx, id, report.Totals); err != nil {
		return nil, fmt.Errorf("failed to save preview summary: %w", err)
	}

	c.logger.Info().
		Int64("import_id", id).
		Str("file", record.FileName).
		Int("rows", report.Totals.Rows).
		Int("contracts_missing", report.Totals.ContractsMissing).
		Int("sim_cards_missing", report.Totals.SimCardsMissing).
		Int("tariffs_missing", report.Totals.TariffsMissing).
		Int("vat_mismatches", report.Totals.VatMismatches).
		Dur("duration", time.Since(start)).
		Msg("preview built")

	return &PreviewResult{ImportID: id, FileName: record.FileName, Report: report}, nil
}

// Apply 校验处理决定并在一个事务中写入主数据与费用记录
func (c *Coordinator) Apply(ctx context.Context, id int64, req ApplyRequest) (*ApplyResult, error) {
	start := time.Now()

	record, distribution, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == model.ImportApplied {
		return nil, fmt.Errorf("import %d: %w", id, ErrAlreadyApplied)
	}
	data, err := c.repo.MasterData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master data: %w", err)
	}
	idx := reconcile.NewIndex(data)
	rows := distribution.Rows

	if conflicts := reconcile.CollectCompanyConflicts(req.Resolutions, idx.Companies()); len(conflicts) > 0 {
		c.logger.Info().Int64("import_id", id).Int("conflicts", len(conflicts)).Msg("apply needs confirmation")
		return &ApplyResult{Status: StatusNeedsConfirmation, CompanyConflicts: conflicts}, nil
	}

	missing := reconcile.CollectMissingContracts(rows, idx.ContractNumbers(), reconcile.ResolvedContractNumbers(req.Resolutions))
	if len(missing) > 0 {
		c.logger.Info().Int64("import_id", id).Strs("contracts", missing).Msg("apply blocked by missing contracts")
		return &ApplyResult{Status: StatusMissingContracts, MissingContracts: missing}, nil
	}

	var summary model.AppliedSummary
	err = c.repo.WithTx(ctx, func(w store.Writer) error {
		b := newBatch(idx, w)
		if err := b.run(rows, req); err != nil {
			return err
		}
		summary = b.summary
		return w.MarkApplied(id, summary)
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("import_id", id).Msg("apply failed")
		return nil, fmt.Errorf("failed to apply import %d: %w", id, err)
	}

	c.logger.Info().
		Int64("import_id", id).
		Int("contracts_created", summary.ContractsCreated).
		Int("tariffs_created", summary.TariffsCreated).
		Int("sim_cards_created", summary.SimCardsCreated).
		Int("expenses_created", summary.ExpensesCreated).
		Dur("duration", time.Since(start)).
		Msg("import applied")

	return &ApplyResult{OK: true, Status: StatusApplied, Summary: &summary}, nil
}

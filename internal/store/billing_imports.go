package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"telecost/internal/model"
)

// CreateImport 保存上传文件并创建导入记录（状态 uploaded）
func (s *Store) CreateImport(ctx context.Context, fileName string, data []byte) (*model.BillingImport, error) {
	sum := sha256.Sum256(data)
	record := &model.BillingImport{
		FileName:  filepath.Base(fileName),
		FilePath:  filepath.Join(s.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(fileName))),
		FileSize:  int64(len(data)),
		FileHash:  hex.EncodeToString(sum[:]),
		Status:    model.ImportUploaded,
		CreatedAt: time.Now().UTC(),
	}
	if err := os.WriteFile(record.FilePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_imports (file_name, file_path, file_size, file_hash, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.FileName, record.FilePath, record.FileSize, record.FileHash, string(record.Status), record.CreatedAt)
	if err != nil {
		_ = os.Remove(record.FilePath)
		return nil, fmt.Errorf("failed to create billing import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get billing import id: %w", err)
	}
	record.ID = id
	return record, nil
}

// GetImport 按 ID 读取导入记录
func (s *Store) GetImport(ctx context.Context, id int64) (*model.BillingImport, error) {
	var (
		record    model.BillingImport
		status    string
		preview   sql.NullString
		applied   sql.NullString
		appliedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_path, file_size, file_hash, status,
			preview_summary, applied_summary, created_at, applied_at
		FROM billing_imports WHERE id = ?
	`, id).Scan(
		&record.ID, &record.FileName, &record.FilePath, &record.FileSize, &record.FileHash, &status,
		&preview, &applied, &record.CreatedAt, &appliedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("billing import %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing import: %w", err)
	}

	record.Status = model.ImportStatus(status)
	if preview.Valid {
		record.PreviewSummary = &model.PreviewSummary{}
		if err := json.Unmarshal([]byte(preview.String), record.PreviewSummary); err != nil {
			return nil, fmt.Errorf("failed to decode preview summary: %w", err)
		}
	}
	if applied.Valid {
		record.AppliedSummary = &model.AppliedSummary{}
		if err := json.Unmarshal([]byte(applied.String), record.AppliedSummary); err != nil {
			return nil, fmt.Errorf("failed to decode applied summary: %w", err)
		}
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		record.AppliedAt = &t
	}
	return &record, nil
}

// LoadImportFile 读取导入记录及其原始文件
func (s *Store) LoadImportFile(ctx context.Context, id int64) (*model.BillingImport, []byte, error) {
	record, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(record.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("billing import file %s: %w", record.FileName, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read billing import file: %w", err)
	}
	return record, data, nil
}

// SavePreviewSummary 保存预览汇总；已应用的导入保持 applied 状态
func (s *Store) SavePreviewSummary(ctx context.Context, id int64, summary model.PreviewSummary) error {
	payload, err := encodeSummary(summary)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE billing_imports SET
			preview_summary = ?,
			status = CASE WHEN status = ? THEN status ELSE ? END
		WHERE id = ?
	`, payload, string(model.ImportApplied), string(model.ImportPreview), id)
	if err != nil {
		return fmt.Errorf("failed to save preview summary: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("billing import %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListImports 按创建时间倒序列出导入记录
func (s *Store) ListImports(ctx context.Context, limit int) ([]*model.BillingImport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM billing_imports ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query billing imports failed: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan billing imports failed: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billing imports failed: %w", err)
	}

	out := make([]*model.BillingImport, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetImport(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func encodeSummary(summary interface{}) (string, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	return string(payload), nil
}

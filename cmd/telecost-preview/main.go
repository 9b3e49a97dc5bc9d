package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"telecost/internal/config"
	"telecost/internal/importer"
	"telecost/internal/store"
)

// 命令行预览账单文件：上传到数据目录并输出预览报告
func main() {
	dataDir := flag.String("dataDir", os.Getenv("TELECOST_DATA_DIR"), "数据目录")
	flag.Parse()

	if *dataDir == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: telecost-preview -dataDir DIR FILE")
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	logger := config.NewLogger(config.LogConfig{Level: "info", Pretty: true}, os.Stderr)

	st, err := store.New(config.DBPath(*dataDir), config.UploadDir(*dataDir))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() { _ = st.Close() }()

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Fatal().Err(err).Str("file", filePath).Msg("failed to read file")
	}

	ctx := context.Background()
	record, err := st.CreateImport(ctx, filePath, data)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create import")
	}

	result, err := importer.NewCoordinator(st, logger).Preview(ctx, record.ID)
	if err != nil {
		logger.Fatal().Err(err).Int64("import_id", record.ID).Msg("preview failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatal().Err(err).Msg("write json")
	}
}

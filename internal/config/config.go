package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ImportConfig 账单导入配置
type ImportConfig struct {
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	Path          string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Import: ImportConfig{
			MaxUploadMB: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func baseDir() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFromDir(baseDir())
}

// LoadFromDir 从指定目录加载 .env 与 config.toml，之后应用环境变量覆盖
func LoadFromDir(dir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: filepath.Join(dir, "config.toml")}
	config := DefaultConfig()

	// .env 不存在时忽略
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	data, err := os.ReadFile(info.Path)
	switch {
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	case err != nil:
		return nil, info, fmt.Errorf("failed to read config: %w", err)
	default:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse config %s: %w", info.Path, err)
		}
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于部署 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv("TELECOST_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TELECOST_PORT %q: %w", v, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv("TELECOST_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("TELECOST_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("TELECOST_MAX_UPLOAD_MB"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELECOST_MAX_UPLOAD_MB %q: %w", v, err)
		}
		config.Import.MaxUploadMB = size
	}
	return nil
}

// ResolveDataDir 数据目录：绝对路径原样使用，相对路径基于可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(baseDir(), config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及 uploads 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DBPath SQLite 数据库文件路径
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "telecost.db")
}

// UploadDir 上传文件目录
func UploadDir(dataDir string) string {
	return filepath.Join(dataDir, "uploads")
}

// MaxUploadBytes 单个上传文件大小上限
func (c ImportConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return DefaultConfig().Import.MaxUploadMB << 20
	}
	return c.MaxUploadMB << 20
}

// NewLogger 按日志配置创建进程日志；pretty 时输出控制台格式
func NewLogger(c LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

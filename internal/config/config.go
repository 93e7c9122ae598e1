package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀，如 PROFITPRO_PORT
const EnvPrefix = "PROFITPRO"

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Log      LogConfig      `toml:"log"`
	Business BusinessConfig `toml:"business"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int      `toml:"port"`
	DevMode      bool     `toml:"dev_mode"`
	OpenBrowser  bool     `toml:"open_browser"`
	AllowOrigins []string `toml:"allow_origins"`
	StaticDir    string   `toml:"static_dir"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir    string `toml:"data_dir"`
	MenusFile  string `toml:"menus_file"`
	AutoBackup bool   `toml:"auto_backup"`
	BackupKeep int    `toml:"backup_keep"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	DefaultCostMultiplier float64  `toml:"default_cost_multiplier"`
	DefaultMenus          []string `toml:"default_menus"`
	TopN                  int      `toml:"top_n"`
	ResaleFallbackRatio   float64  `toml:"resale_fallback_ratio"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// envOverrides 环境变量覆盖项，未设置的保持 nil
type envOverrides struct {
	Port      *int    `envconfig:"PORT"`
	DevMode   *bool   `envconfig:"DEV_MODE"`
	DataDir   *string `envconfig:"DATA_DIR"`
	StaticDir *string `envconfig:"STATIC_DIR"`
	LogLevel  *string `envconfig:"LOG_LEVEL"`
	LogFormat *string `envconfig:"LOG_FORMAT"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         20262,
			DevMode:      false,
			OpenBrowser:  false,
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Data: DataConfig{
			DataDir:    "data",
			MenusFile:  "menus.json",
			AutoBackup: true,
			BackupKeep: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Business: BusinessConfig{
			DefaultCostMultiplier: 1.1,
			DefaultMenus:          []string{"izMenu", "bellFood"},
			TopN:                  3,
			ResaleFallbackRatio:   0.7,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
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

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 与 .env 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	if err := loadDotEnv(filepath.Join(exeDir, ".env"), ".env"); err != nil {
		return nil, LoadConfigInfo{}, err
	}
	return LoadFromFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFromFile 读取指定 TOML 文件（不存在时使用默认配置），再应用环境变量覆盖
func LoadFromFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		info.Path = ""
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	config.fillDefaults()
	return config, info, nil
}

// loadDotEnv 按顺序加载 .env，文件不存在不报错；已存在的环境变量不被覆盖
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.Port != nil {
		config.Server.Port = *env.Port
		info.PortSpecified = true
	}
	if env.DevMode != nil {
		config.Server.DevMode = *env.DevMode
	}
	if env.DataDir != nil {
		config.Data.DataDir = *env.DataDir
	}
	if env.StaticDir != nil {
		config.Server.StaticDir = *env.StaticDir
	}
	if env.LogLevel != nil {
		config.Log.Level = *env.LogLevel
	}
	if env.LogFormat != nil {
		config.Log.Format = *env.LogFormat
	}
	return nil
}

// fillDefaults 配置文件中显式写为空或非法的值回落到默认值
func (c *AppConfig) fillDefaults() {
	def := DefaultConfig()
	if c.Server.Port <= 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Data.DataDir == "" {
		c.Data.DataDir = def.Data.DataDir
	}
	if c.Data.MenusFile == "" {
		c.Data.MenusFile = def.Data.MenusFile
	}
	if c.Business.DefaultCostMultiplier < 1 {
		c.Business.DefaultCostMultiplier = def.Business.DefaultCostMultiplier
	}
	if len(c.Business.DefaultMenus) == 0 {
		c.Business.DefaultMenus = def.Business.DefaultMenus
	}
	if c.Business.TopN <= 0 {
		c.Business.TopN = def.Business.TopN
	}
	if c.Business.ResaleFallbackRatio <= 0 {
		c.Business.ResaleFallbackRatio = def.Business.ResaleFallbackRatio
	}
}

// ResolveDataDir 相对路径的数据目录位于可执行文件同目录下
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及 exports、backups 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, path := range []string{ExportDir(dataDir), filepath.Dir(BackupPath(dataDir))} {
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// MenusPath 菜单数据文件路径
func MenusPath(config *AppConfig, dataDir string) string {
	if filepath.IsAbs(config.Data.MenusFile) {
		return config.Data.MenusFile
	}
	return filepath.Join(dataDir, config.Data.MenusFile)
}

// BackupPath 历史快照数据库路径
func BackupPath(dataDir string) string {
	return filepath.Join(dataDir, "backups", "backups.db")
}

// ExportDir 导出文件临时目录
func ExportDir(dataDir string) string {
	return filepath.Join(dataDir, "exports")
}

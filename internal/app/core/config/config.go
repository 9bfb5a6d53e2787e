package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-ledger-core/pkg/mysql"
)

// StoreDriver 儲存層實作
type StoreDriver string

const (
	// StoreDriverMemory 記憶體 + WAL
	StoreDriverMemory StoreDriver = "memory"
	// StoreDriverMySQL GORM / MySQL
	StoreDriverMySQL StoreDriver = "mysql"
)

// AuditSink 稽核輸出
type AuditSink string

const (
	AuditSinkMemory AuditSink = "memory"
	AuditSinkWAL    AuditSink = "wal"
	AuditSinkMySQL  AuditSink = "mysql"
	AuditSinkLog    AuditSink = "log"
)

// Config 應用程式設定
type Config struct {
	Store StoreConfig  `yaml:"store"`
	Audit AuditConfig  `yaml:"audit"`
	MySQL mysql.Config `yaml:"mysql"`
	Log   LogConfig    `yaml:"log"`
	// HistoryCapacity undo 歷史上限，0 表示不限制
	HistoryCapacity int `yaml:"history_capacity"`
}

type StoreConfig struct {
	Driver StoreDriver `yaml:"driver"`
	// WALDir memory driver 的 WAL 目錄，空字串表示純記憶體
	WALDir string `yaml:"wal_dir"`
}

type AuditConfig struct {
	Sink AuditSink `yaml:"sink"`
	// WALPath sink=wal 時的檔案
	WALPath string `yaml:"wal_path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load 讀取 YAML 設定並補上預設值
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 設定並補上預設值
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default 全部使用預設值的設定
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverMemory
	}
	if c.Audit.Sink == "" {
		c.Audit.Sink = AuditSinkLog
	}
	if c.Audit.Sink == AuditSinkWAL && c.Audit.WALPath == "" {
		c.Audit.WALPath = "audit.wal"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// 補全 MySQL 預設配置 (如果 yaml 沒寫)
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 100
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 10
	}
	if c.MySQL.ConnMaxLifetime == 0 {
		c.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	if c.MySQL.MaxRetries == 0 {
		c.MySQL.MaxRetries = 10
	}
	if c.MySQL.RetryInterval == 0 {
		c.MySQL.RetryInterval = 2 * time.Second
	}
}

// Validate 檢查設定組合
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverMySQL:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Audit.Sink {
	case AuditSinkMemory, AuditSinkWAL, AuditSinkLog:
	case AuditSinkMySQL:
		if c.Store.Driver != StoreDriverMySQL {
			return fmt.Errorf("audit sink %q requires store driver %q", c.Audit.Sink, StoreDriverMySQL)
		}
	default:
		return fmt.Errorf("unknown audit sink %q", c.Audit.Sink)
	}
	if c.HistoryCapacity < 0 {
		return fmt.Errorf("history_capacity must not be negative")
	}
	return nil
}

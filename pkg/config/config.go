package config

import (
	"encoding/json"
	"os"

	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Server    ServerConfig    `json:"server"`
	Push      PushConfig      `json:"push"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Logging   LoggingConfig   `json:"logging"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"` // "postgres" (default) or "sqlite"
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
	Path     string `json:"path"` // sqlite database file
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type PushConfig struct {
	VAPIDPublicKey  string `json:"vapid_public_key"`
	VAPIDPrivateKey string `json:"vapid_private_key"`
	Subscriber      string `json:"subscriber"`
	TTLSeconds      int    `json:"ttl_seconds"`
	Urgency         string `json:"urgency"`
}

type SchedulerConfig struct {
	Timezone         string   `json:"timezone"`
	AutoStart        bool     `json:"auto_start"`
	ProductionLocked bool     `json:"production_locked"`
	CleanupSchedule  string   `json:"cleanup_schedule"`
	TestAccounts     []string `json:"test_accounts"`
	AdminAccounts    []string `json:"admin_accounts"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

const (
	DefaultTTLSeconds      = 3600
	DefaultCleanupSchedule = "30 3 * * *"
)

var AppConfig Config

func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyDefaults(&AppConfig)
	applyEnv(&AppConfig)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Push.TTLSeconds <= 0 {
		cfg.Push.TTLSeconds = DefaultTTLSeconds
	}
	if cfg.Scheduler.CleanupSchedule == "" {
		cfg.Scheduler.CleanupSchedule = DefaultCleanupSchedule
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "UTC"
	}
}

// applyEnv layers deployment secrets over the file. VAPID keys are usually
// provisioned through the environment rather than checked into config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.VAPIDPublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.VAPIDPrivateKey = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
}

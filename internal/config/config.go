package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxWindowDays = 1098
	defaultPolicyFile    = "policies.toml"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr          string
	Port                string
	DatabasePath        string
	SessionSecret       string
	GinMode             string
	Timezone            string
	MaxWindowDays       int
	HistoryLookbackDays int
	PolicyFile          string
	SuperRootUserName   string
	SuperRootPassword   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitboard.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "habitboard-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	timezone := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if timezone == "" {
		timezone = "Local"
	}

	policyFile := strings.TrimSpace(os.Getenv("POLICY_FILE"))
	if policyFile == "" {
		policyFile = defaultPolicyFile
	}

	return AppConfig{
		ListenAddr:          listenAddr,
		Port:                port,
		DatabasePath:        databasePath,
		SessionSecret:       sessionSecret,
		GinMode:             ginMode,
		Timezone:            timezone,
		MaxWindowDays:       envInt("MAX_WINDOW_DAYS", defaultMaxWindowDays),
		HistoryLookbackDays: envInt("HISTORY_LOOKBACK_DAYS", 0),
		PolicyFile:          policyFile,
		SuperRootUserName:   strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword:   strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
	}
}

// LoadLocation 解析 TIMEZONE，空值或 local 使用本地时区，无法识别时返回错误。
func (c AppConfig) LoadLocation() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Location 返回日期键使用的规范时区，无法识别时记录日志并回退到本地时区。
// 启动阶段应先调用 LoadLocation 拒绝错误配置。
func (c AppConfig) Location() *time.Location {
	loc, err := c.LoadLocation()
	if err != nil {
		log.Printf("[config] %v, falling back to %s", err, time.Local)
		return time.Local
	}
	return loc
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

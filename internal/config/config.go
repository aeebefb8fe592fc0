// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（common.yaml + {env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	JWT_SECRET、STRIPE_SECRET_KEY、STRIPE_WEBHOOK_SECRET、SMTP_PASSWORD、
//	MINIO_ROOT_USER/MINIO_ROOT_PASSWORD 等只从环境变量读取。
//
// 环境：
//   - 开发: APP_ENV=dev → configs/dev.yaml + .env.dev
//   - 测试: APP_ENV=test → configs/test.yaml + .env.test
//   - 生产: APP_ENV=prod → /etc/tourbook/prod.yaml（凭据由 systemd 注入）
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/shared/mailer"
	"tourbook/internal/shared/payment"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     auth.Config    `yaml:"auth"`
	Payment  payment.Config `yaml:"payment"`
	Mail     mailer.Config  `yaml:"mail"`
}

// ServerConfig API Server 配置
type ServerConfig struct {
	Port string `yaml:"port"`
	// PublicURL 对外可达的基础 URL，支付回跳地址由此构建
	PublicURL string `yaml:"public_url"`
}

// DatabaseConfig MongoDB 配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 MONGO_ROOT_PASSWORD / DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
	URI      string `yaml:"uri"` // 连接 URI，优先于 host/port
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`   // 只从 REDIS_PASSWORD 环境变量读取
	URL      string `yaml:"url"` // 直接指定 URL，优先于 host/port/db
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env       Environment
	APIPort   string
	PublicURL string
	MongoURI  string
	MongoDB   string
	RedisURL  string
	MinIO     MinIOConfig
	Auth      auth.Config
	Payment   payment.Config
	Mail      mailer.Config
}

// configDir 由外部通过 SetConfigDir 指定，优先级最高
var configDir string

// envSearchDirs .env 文件搜索目录（仅 dev/test 使用，生产环境由 systemd 注入）
var envSearchDirs = []string{
	".",
	"..",
}

// SetConfigDir 设置配置文件目录（用于 --config 命令行参数）
func SetConfigDir(dir string) {
	configDir = dir
}

// Load 加载配置
// 1. 加载 .env.{env}（凭据 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/common.yaml 和 configs/{env}.yaml
// 3. 从环境变量补充凭据并构建最终配置
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)
	// .env 可能改写 APP_ENV
	env = parseEnv(getEnv("APP_ENV", string(env)))

	yamlCfg := loadYAMLConfig(env)

	yamlCfg.Database.Password = firstEnv("MONGO_ROOT_PASSWORD", "DB_PASSWORD")
	yamlCfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	yamlCfg.MinIO.AccessKey = os.Getenv("MINIO_ROOT_USER")
	yamlCfg.MinIO.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")
	yamlCfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	yamlCfg.Payment.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	yamlCfg.Payment.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	yamlCfg.Mail.Password = os.Getenv("SMTP_PASSWORD")

	return &Config{
		Env:       env,
		APIPort:   yamlCfg.Server.Port,
		PublicURL: yamlCfg.Server.PublicURL,
		MongoURI:  buildMongoURI(yamlCfg.Database),
		MongoDB:   yamlCfg.Database.Name,
		RedisURL:  buildRedisURL(yamlCfg.Redis),
		MinIO:     yamlCfg.MinIO,
		Auth:      yamlCfg.Auth,
		Payment:   yamlCfg.Payment,
		Mail:      yamlCfg.Mail,
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "3000", PublicURL: "http://localhost:3000"},
		Database: DatabaseConfig{Host: "localhost", Port: 27017, Name: "tourbook"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:    MinIOConfig{Bucket: "tourbook"},
		Auth:     auth.DefaultConfig(),
		Payment:  payment.DefaultConfig(),
		Mail:     mailer.DefaultConfig(),
	}

	paths := effectiveConfigPaths(env)
	for _, name := range []string{"common.yaml", fmt.Sprintf("%s.yaml", env)} {
		for _, base := range paths {
			path := filepath.Join(base, name)
			if data, err := os.ReadFile(path); err == nil {
				yaml.Unmarshal(data, cfg)
				break
			}
		}
	}

	return cfg
}

// effectiveConfigPaths 返回配置文件搜索路径
//
// 优先级：
//  1. --config 命令行参数（SetConfigDir）
//  2. CONFIG_DIR 环境变量
//  3. 按 APP_ENV 选择默认路径
func effectiveConfigPaths(env Environment) []string {
	if configDir != "" {
		return []string{configDir}
	}
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return []string{dir}
	}
	if env == EnvProduction {
		return []string{"/etc/tourbook"}
	}
	return []string{"configs", "../configs"}
}

// loadEnvFiles 加载 .env 文件
//
// 生产环境不搜索 .env 文件（凭据由 systemd EnvironmentFile 或 shell 环境注入）。
// godotenv.Load 不覆盖已有环境变量，优先级低于 shell 环境变量。
func loadEnvFiles(env Environment) {
	if env == EnvProduction {
		return
	}
	envFileName := fmt.Sprintf(".env.%s", string(env))
	for _, dir := range envSearchDirs {
		if err := godotenv.Load(filepath.Join(dir, envFileName)); err == nil {
			return
		}
	}
	for _, dir := range envSearchDirs {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s, Port: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDB, maskPassword(c.RedisURL), c.APIPort)
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// buildMongoURI 构建 MongoDB 连接字符串
// URI 字段非空时直接使用，否则从 host/port/user 构建
func buildMongoURI(db DatabaseConfig) string {
	if db.URI != "" {
		return db.URI
	}
	if db.User != "" && db.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", db.User, db.Password, db.Host, db.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
}

// buildRedisURL 构建 Redis 连接字符串
// URL 字段非空时直接使用，否则从 host/port/db/password 构建
func buildRedisURL(redis RedisConfig) string {
	if redis.URL != "" {
		return redis.URL
	}
	if redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", redis.Password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

// maskPassword 隐藏连接字符串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// parseEnv 解析环境字符串
func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// firstEnv 返回第一个非空的环境变量值
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// getEnv 获取环境变量，支持默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

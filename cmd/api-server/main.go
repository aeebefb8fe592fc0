// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbook/internal/apiserver/server"
	"tourbook/internal/config"
	"tourbook/internal/shared/cache/redis"
	"tourbook/internal/shared/mailer"
	"tourbook/internal/shared/objstore"
	"tourbook/internal/shared/payment"
	"tourbook/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	h := server.NewHandler(store, cfg)

	// 支付网关
	h.SetGateway(payment.NewClient(cfg.Payment))

	// Redis（Webhook 事件去重）；不可用时退化为不去重
	if dedup, err := redis.NewStoreFromURL(cfg.RedisURL); err != nil {
		log.Printf("Redis unavailable, webhook deduplication disabled: %v", err)
	} else {
		defer dedup.Close()
		h.SetCache(dedup)
	}

	// MinIO（行程封面图存储），未配置时封面上传不可用
	if cfg.MinIO.Endpoint != "" {
		objects, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := objects.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		cancel()
		h.SetObjects(objects)
	}

	// SMTP（欢迎邮件、密码重置邮件），未配置时只记日志
	if cfg.Mail.Enabled() {
		h.SetMailer(mailer.New(cfg.Mail))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

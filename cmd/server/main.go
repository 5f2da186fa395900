package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habitboard/internal/config"
	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/handler"
	"github.com/habitboard/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if _, err := cfg.LoadLocation(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}

	policies, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("failed to load streak policies: %v", err)
	}

	api := handler.NewAPI(db.DB, cfg, policies)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	log.Printf("[server] listening on %s (timezone=%s)", cfg.ListenAddr, cfg.Location())
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

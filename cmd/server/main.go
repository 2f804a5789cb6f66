package main

import (
	"github.com/blues/prs/internal/chain"
	"github.com/blues/prs/internal/config"
	"github.com/blues/prs/internal/event"
	"github.com/blues/prs/internal/ledger"
	"github.com/blues/prs/internal/logger"
	"github.com/blues/prs/internal/logic"
	"github.com/blues/prs/internal/repository"
	"github.com/blues/prs/internal/router"
	"github.com/blues/prs/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化区块计数来源
	blocks, err := chain.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize block source: %v", err)
	}

	// 初始化审计事件记录器
	recorder, err := event.NewRecorder(db, cfg.Registry.EventWorkers)
	if err != nil {
		logger.Fatal("Failed to initialize audit recorder: %v", err)
	}
	defer recorder.Release()

	// 初始化提案账本并从数据库恢复状态
	if !common.IsHexAddress(cfg.Registry.AdminAddress) {
		logger.Fatal("Invalid registry admin address: %s", cfg.Registry.AdminAddress)
	}
	admin := common.HexToAddress(cfg.Registry.AdminAddress)
	proposalLogic := logic.NewProposalLogic(db, ledger.New(admin), blocks, recorder)
	if err := proposalLogic.Load(admin); err != nil {
		logger.Fatal("Failed to restore ledger state: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(proposalLogic)

	// 启动定时任务
	manager := task.Start(proposalLogic, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

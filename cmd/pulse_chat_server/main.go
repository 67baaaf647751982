package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pulse_chat_server/internal/config"
	dao "pulse_chat_server/internal/dao/mysql"
	myredis "pulse_chat_server/internal/dao/redis"
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/https_server"
	"pulse_chat_server/internal/infrastructure/logger"
	"pulse_chat_server/internal/service"
	"pulse_chat_server/pkg/util/jwt"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	zap.L().Info("JWT 初始化成功")

	// 初始化雪花算法节点（消息 ID 生成）
	snowflake.Init()

	// 6. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}

	// 7. 组装 Service 层 (依赖注入)
	services := service.NewServices(repos, myredis.GetCacheService(), conf)
	zap.L().Info("Service 层初始化成功")

	// 8. 启动实时传输服务器
	go services.Server.Start()
	zap.L().Info("ChatServer 初始化成功")

	// 9. 初始化 HTTP 服务器并启动
	engine := https_server.Init(handler.NewHandlers(services))
	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	services.Server.Close()
	zap.L().Info("服务器已关闭")
}

//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 使用方式：
// Step 1: 修改Provider或Injector后运行 `wire gen ./cmd/api`
// Step 2: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 3: main.go可改为调用wire_gen.go中的InitializeApp()
//
// 当前main.go使用等价的手动注入，本文件保持与之同步

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appmembership "github.com/xiebiao/library/internal/application/membership"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/gateway/vnpay"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/mq"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
	redis.NewClient,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewCopyRepository,
	mysql.NewLoanRepository,
	mysql.NewPaymentRepository,
	mysql.NewFineRepository,
	mysql.NewTierRepository,
	mysql.NewMembershipRepository,
	mysql.NewTxManager,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
	membership.NewService,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appbook.NewRegisterBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewManageCopiesUseCase,
	apploan.NewBorrowBookUseCase,
	apploan.NewReturnBookUseCase,
	apploan.NewRenewLoanUseCase,
	apploan.NewRequestReturnUseCase,
	apploan.NewConfirmReturnUseCase,
	apploan.NewOverdueScanUseCase,
	apploan.NewQueryUseCase,
	apppayment.NewCreatePaymentURLUseCase,
	apppayment.NewGatewayCallbackUseCase,
	apppayment.NewConfirmCashUseCase,
	apppayment.NewCancelPaymentUseCase,
	apppayment.NewReconcileStaleUseCase,
	apppayment.NewPayFineUseCase,
	apppayment.NewWaiveFineUseCase,
	apppayment.NewQueryUseCase,
	appmembership.NewQueryUseCase,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,
	provideSessionStore,
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewLoanHandler,
	handler.NewPaymentHandler,
	handler.NewMembershipHandler,
)

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideLoanConfig 提取借阅策略配置
func provideLoanConfig(cfg *config.Config) config.LoanConfig {
	return cfg.Loan
}

// provideGateway 创建VNPay网关客户端
func provideGateway(cfg *config.Config) payment.Gateway {
	return vnpay.NewClient(cfg.VNPay)
}

// providePublisher 创建事件发布器
// MQ未启用或连接失败时返回nil,发布调用退化为空操作
func providePublisher(cfg *config.Config) *mq.Publisher {
	if !cfg.MQ.Enabled {
		return nil
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return nil
	}
	return publisher
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	membershipHandler *handler.MembershipHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Metrics())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing("library-api"))
	}

	registerRoutes(r, userHandler, bookHandler, loanHandler, paymentHandler, membershipHandler, authMiddleware)
	return r
}

// InitializeApp 初始化整个应用
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideLoanConfig,
		provideGateway,
		providePublisher,
		provideGinEngine,
	)
	return nil, nil
}

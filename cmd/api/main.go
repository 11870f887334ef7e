package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appmembership "github.com/xiebiao/library/internal/application/membership"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/gateway/vnpay"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/response"
	"github.com/xiebiao/library/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入（与cmd/api/wire.go中的Wire定义等价）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 初始化指标
	metrics.InitMetrics()

	// 3. 初始化数据库连接并播种会员等级
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 4. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 5. 可选组件：消息队列与链路追踪
	// Publisher为nil时发布调用是空操作,事件发布失败从不阻塞业务
	var publisher *mq.Publisher
	if cfg.MQ.Enabled {
		publisher, err = mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			log.Printf("⚠ MQ连接失败,事件发布已降级: %v", err)
			publisher = nil
		}
	}

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		shutdownTracer, err = tracing.InitTracer("library-api", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化链路追踪失败: %v", err)
		}
	}

	// 6. 依赖注入（手动组装）
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	patronRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	copyRepo := mysql.NewCopyRepository(db)
	loanRepo := mysql.NewLoanRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	fineRepo := mysql.NewFineRepository(db)
	tierRepo := mysql.NewTierRepository(db)
	membershipRepo := mysql.NewMembershipRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	gateway := vnpay.NewClient(cfg.VNPay)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	if err := mysql.SeedMembershipTiers(context.Background(), tierRepo); err != nil {
		log.Fatalf("播种会员等级失败: %v", err)
	}

	// 领域层
	userService := user.NewService(patronRepo)
	bookService := book.NewService(bookRepo, copyRepo)
	membershipService := membership.NewService(membershipRepo, tierRepo)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService, membershipService)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)

	registerBookUseCase := appbook.NewRegisterBookUseCase(bookService)
	listBooksUseCase := appbook.NewListBooksUseCase(bookService)
	getBookUseCase := appbook.NewGetBookUseCase(bookService)
	manageCopiesUseCase := appbook.NewManageCopiesUseCase(bookService)

	borrowUseCase := apploan.NewBorrowBookUseCase(
		loanRepo, paymentRepo, copyRepo, bookService, patronRepo, membershipService, txManager, cfg.Loan)
	returnUseCase := apploan.NewReturnBookUseCase(
		loanRepo, copyRepo, bookService, fineRepo, membershipService, txManager, publisher, cfg.Loan)
	renewUseCase := apploan.NewRenewLoanUseCase(loanRepo, txManager, cfg.Loan)
	requestReturnUseCase := apploan.NewRequestReturnUseCase(loanRepo, txManager)
	confirmReturnUseCase := apploan.NewConfirmReturnUseCase(loanRepo, returnUseCase, txManager)
	overdueScanUseCase := apploan.NewOverdueScanUseCase(loanRepo, txManager, publisher, cfg.Loan)
	loanQueryUseCase := apploan.NewQueryUseCase(loanRepo)

	createURLUseCase := apppayment.NewCreatePaymentURLUseCase(paymentRepo, gateway)
	callbackUseCase := apppayment.NewGatewayCallbackUseCase(
		paymentRepo, fineRepo, loanRepo, copyRepo, bookService, membershipService, gateway, txManager, cfg.Loan)
	confirmCashUseCase := apppayment.NewConfirmCashUseCase(
		paymentRepo, fineRepo, loanRepo, copyRepo, bookService, membershipService, txManager, cfg.Loan)
	cancelUseCase := apppayment.NewCancelPaymentUseCase(
		paymentRepo, fineRepo, loanRepo, copyRepo, bookService, membershipService, txManager, cfg.Loan)
	reconcileUseCase := apppayment.NewReconcileStaleUseCase(
		paymentRepo, fineRepo, loanRepo, copyRepo, bookService, membershipService, gateway, txManager, cfg.Loan)
	payFineUseCase := apppayment.NewPayFineUseCase(fineRepo, paymentRepo, gateway, txManager)
	waiveFineUseCase := apppayment.NewWaiveFineUseCase(fineRepo, txManager)
	paymentQueryUseCase := apppayment.NewQueryUseCase(paymentRepo, fineRepo)

	membershipQueryUseCase := appmembership.NewQueryUseCase(membershipService)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase)
	bookHandler := handler.NewBookHandler(registerBookUseCase, listBooksUseCase, getBookUseCase, manageCopiesUseCase)
	loanHandler := handler.NewLoanHandler(
		borrowUseCase, renewUseCase, requestReturnUseCase, confirmReturnUseCase, overdueScanUseCase, loanQueryUseCase)
	paymentHandler := handler.NewPaymentHandler(
		createURLUseCase, callbackUseCase, confirmCashUseCase, cancelUseCase,
		payFineUseCase, waiveFineUseCase, reconcileUseCase, paymentQueryUseCase)
	membershipHandler := handler.NewMembershipHandler(membershipQueryUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 7. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.Metrics())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing("library-api"))
	}

	// 8. 注册路由
	registerRoutes(r, userHandler, bookHandler, loanHandler, paymentHandler, membershipHandler, authMiddleware)

	// 9. 启动服务（优雅停机）
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("\n🚀 服务启动成功！\n")
		fmt.Printf("   访问地址: http://localhost%s\n", addr)
		fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
		fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", addr)
		fmt.Printf("\n按Ctrl+C停止服务\n\n")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("\n正在停止服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠ HTTP服务停止异常: %v", err)
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("⚠ 链路追踪停止异常: %v", err)
	}
	fmt.Println("服务已停止")
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	membershipHandler *handler.MembershipHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 读者账号（公开接口）
		patrons := v1.Group("/patrons")
		{
			patrons.POST("/register", userHandler.Register)
			patrons.POST("/login", userHandler.Login)
			patrons.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
		}

		// 馆藏目录（查询公开,管理需要馆员权限）
		books := v1.Group("/books")
		{
			books.GET("", bookHandler.List)
			books.GET("/:id", bookHandler.Get)

			books.POST("", authMiddleware.RequireAuth(), authMiddleware.RequireDesk(), bookHandler.Register)
			books.POST("/:id/copies", authMiddleware.RequireAuth(), authMiddleware.RequireDesk(), bookHandler.AddCopies)
			books.GET("/:id/copies", authMiddleware.RequireAuth(), authMiddleware.RequireDesk(), bookHandler.ListCopies)
		}

		copies := v1.Group("/copies")
		copies.Use(authMiddleware.RequireAuth(), authMiddleware.RequireDesk())
		{
			copies.GET("/:barcode", bookHandler.GetCopyByBarcode)
			copies.DELETE("/:id", bookHandler.RemoveCopy)
		}

		// 会员
		memberships := v1.Group("/memberships")
		{
			memberships.GET("/tiers", membershipHandler.ListTiers)
			memberships.GET("/my", authMiddleware.RequireAuth(), membershipHandler.My)
		}

		// 借阅（读者侧,需要登录）
		loans := v1.Group("/loans")
		loans.Use(authMiddleware.RequireAuth())
		{
			loans.POST("", loanHandler.Borrow)
			loans.GET("/my", loanHandler.MyLoans)
			loans.GET("/:id", loanHandler.Get)
			loans.POST("/:id/renew", loanHandler.Renew)
			loans.POST("/:id/return-request", loanHandler.RequestReturn)
		}

		// 支付
		payments := v1.Group("/payments")
		{
			// 网关回调入口不经过认证（请求来自VNPay,以签名校验身份）
			payments.GET("/vnpay/return", paymentHandler.VNPayReturn)
			payments.GET("/vnpay/ipn", paymentHandler.VNPayIPN)

			authorized := payments.Group("")
			authorized.Use(authMiddleware.RequireAuth())
			{
				authorized.GET("/my", paymentHandler.MyPayments)
				authorized.GET("/:id", paymentHandler.Get)
				authorized.POST("/:id/url", paymentHandler.CreatePaymentURL)
				authorized.POST("/:id/cancel", paymentHandler.Cancel)
			}
		}

		// 罚款（读者侧）
		fines := v1.Group("/fines")
		fines.Use(authMiddleware.RequireAuth())
		{
			fines.GET("/my", paymentHandler.MyFines)
			fines.GET("/my/unpaid-total", paymentHandler.UnpaidFineTotal)
			fines.POST("/:id/pay", paymentHandler.PayFine)
		}

		// 柜台（馆员权限）
		desk := v1.Group("/desk")
		desk.Use(authMiddleware.RequireAuth(), authMiddleware.RequireDesk())
		{
			desk.POST("/loans", loanHandler.BorrowDirect)
			desk.GET("/loans", loanHandler.List)
			desk.GET("/loans/pending-returns", loanHandler.PendingReturns)
			desk.POST("/loans/:id/confirm-return", loanHandler.ConfirmReturn)
			desk.POST("/loans/:id/reject-return", loanHandler.RejectReturn)
			desk.POST("/loans/overdue-scan", loanHandler.OverdueScan)

			desk.GET("/payments/pending-cash", paymentHandler.PendingCash)
			desk.POST("/payments/:id/confirm-cash", paymentHandler.ConfirmCash)
			desk.POST("/payments/reconcile", paymentHandler.Reconcile)

			desk.POST("/fines/:id/waive", paymentHandler.WaiveFine)
		}
	}
}

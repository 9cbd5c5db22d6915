package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"library-lite/internal/auth"
	"library-lite/internal/config"
	"library-lite/internal/domains/fine"
	infraCache "library-lite/internal/infrastructure/cache"
	"library-lite/internal/infrastructure/database"
	"library-lite/internal/infrastructure/queue"
	"library-lite/internal/infrastructure/storage"
	"library-lite/internal/shared"
	pkgDatabase "library-lite/pkg/database"
	"library-lite/pkg/logger"
	"library-lite/pkg/ratelimit"

	activityHandler "library-lite/internal/domains/activity/handler"
	activityRepo "library-lite/internal/domains/activity/repository"
	activityService "library-lite/internal/domains/activity/service"
	bookHandler "library-lite/internal/domains/book/handler"
	bookRepo "library-lite/internal/domains/book/repository"
	bookService "library-lite/internal/domains/book/service"
	loanHandler "library-lite/internal/domains/loan/handler"
	loanRepo "library-lite/internal/domains/loan/repository"
	loanService "library-lite/internal/domains/loan/service"
	memberHandler "library-lite/internal/domains/member/handler"
	memberRepo "library-lite/internal/domains/member/repository"
	memberService "library-lite/internal/domains/member/service"
	paymentHandler "library-lite/internal/domains/payment/handler"
	paymentRepo "library-lite/internal/domains/payment/repository"
	paymentService "library-lite/internal/domains/payment/service"
	reportHandler "library-lite/internal/domains/report/handler"
	reportRepo "library-lite/internal/domains/report/repository"
	reportService "library-lite/internal/domains/report/service"
	reservationHandler "library-lite/internal/domains/reservation/handler"
	reservationRepo "library-lite/internal/domains/reservation/repository"
	reservationService "library-lite/internal/domains/reservation/service"
	userHandler "library-lite/internal/domains/user/handler"
	userRepo "library-lite/internal/domains/user/repository"
	userService "library-lite/internal/domains/user/service"
)

// membership expiry reminder window
const memberReminderDays = 7

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependency graph của api, worker và libctl.
// Lifecycle: mỗi component là singleton trong suốt process.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Tx          pkgDatabase.TxManager
	Cache       *infraCache.RedisCache
	AsynqClient *asynq.Client
	Notifier    queue.Notifier
	Storage     storage.ObjectStorage // nil khi MinIO không sẵn sàng
	Auth        auth.Provider
	Clock       shared.Clock
	Calculator  *fine.Calculator
	RateLimiter *ratelimit.FixedWindowLimiter

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo        userRepo.Repository
	MemberRepo      memberRepo.Repository
	BookRepo        bookRepo.BookRepository
	AuthorRepo      bookRepo.AuthorRepository
	LoanRepo        loanRepo.Repository
	ReservationRepo reservationRepo.Repository
	PaymentRepo     paymentRepo.Repository
	ActivityRepo    activityRepo.Repository
	ReportRepo      reportRepo.Repository

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService        userService.ServiceInterface
	MemberService      memberService.ServiceInterface
	BookService        bookService.ServiceInterface
	LoanService        loanService.ServiceInterface
	ReservationService reservationService.ServiceInterface
	PaymentService     paymentService.ServiceInterface
	ActivityService    activityService.ServiceInterface
	ReportService      reportService.ServiceInterface

	// ========================================
	// HANDLER LAYER
	// ========================================
	UserHandler        *userHandler.UserHandler
	MemberHandler      *memberHandler.MemberHandler
	BookHandler        *bookHandler.BookHandler
	LoanHandler        *loanHandler.LoanHandler
	ReservationHandler *reservationHandler.ReservationHandler
	PaymentHandler     *paymentHandler.PaymentHandler
	ActivityHandler    *activityHandler.ActivityHandler
	ReportHandler      *reportHandler.ReportHandler
}

// NewContainer build toàn bộ dependency graph.
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Redis, queue, storage, auth provider)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	logger.Info("Initializing DI container", nil)

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("Config loaded", map[string]interface{}{
		"environment":   cfg.App.Environment,
		"auth_provider": cfg.Auth.Provider,
	})

	// ========================================
	// STEP 2: INFRASTRUCTURE
	// ========================================
	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initQueue()
	c.initStorage()

	provider, err := auth.NewProvider(cfg.Auth, cfg.JWT, c.Cache)
	if err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init auth provider: %w", err)
	}
	c.Auth = provider

	policy := fine.PolicyFromConfig(cfg.Fine)
	if err := policy.Validate(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("invalid fine policy: %w", err)
	}
	c.Clock = shared.SystemClock()
	c.Calculator = fine.NewCalculator(policy, c.Clock)

	// ========================================
	// STEP 3-5: REPOSITORIES -> SERVICES -> HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("DI container initialized", nil)
	return c, nil
}

// initDatabase: connect pgx pool, optional auto-migrate
func (c *Container) initDatabase() error {
	dbConfig, err := c.Config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database health check failed: %w", err)
	}

	if c.Config.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("auto migrate failed: %w", err)
		}
	}

	c.DB = db
	c.Tx = pkgDatabase.NewTxManager(db.Pool)
	return nil
}

// initRedis: token revocation (local provider) và rate limiting cần Redis
func (c *Container) initRedis() error {
	redisCache := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := redisCache.Connect(context.Background()); err != nil {
		_ = redisCache.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = redisCache

	limiter, err := ratelimit.NewFixedWindowLimiter(
		redisCache.Client,
		"library:ratelimit",
		c.Config.RateLimit.Requests,
		c.Config.RateLimit.Window,
	)
	if err != nil {
		// Rate limit tắt khi config không hợp lệ (vd RATE_LIMIT_REQUESTS=0)
		logger.Warn("Rate limiting disabled", map[string]interface{}{"reason": err.Error()})
		return nil
	}
	c.RateLimiter = limiter
	return nil
}

func (c *Container) initQueue() {
	c.AsynqClient = asynq.NewClient(c.RedisOpt())
	c.Notifier = queue.NewNotifier(c.AsynqClient)
}

// initStorage: MinIO không critical, cover upload trả về lỗi khi storage nil
func (c *Container) initStorage() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	minioStorage, err := storage.NewMinIOStorage(ctx, c.Config.MinIO)
	if err != nil {
		logger.Warn("MinIO unavailable, cover upload disabled", map[string]interface{}{
			"endpoint": c.Config.MinIO.Endpoint,
			"error":    err.Error(),
		})
		return
	}
	c.Storage = minioStorage
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.MemberRepo = memberRepo.NewPostgresRepository(pool)
	c.BookRepo = bookRepo.NewPostgresBookRepository(pool)
	c.AuthorRepo = bookRepo.NewPostgresAuthorRepository(pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(pool)
	c.ReservationRepo = reservationRepo.NewPostgresRepository(pool)
	c.PaymentRepo = paymentRepo.NewPostgresRepository(pool)
	c.ActivityRepo = activityRepo.NewPostgresRepository(pool)
	c.ReportRepo = reportRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.UserService = userService.NewUserService(
		c.Tx,
		c.UserRepo,
		c.MemberRepo,
		c.Auth,
		c.Clock,
		cfg.Loan.MemberTermDays,
	)

	c.MemberService = memberService.NewMemberService(memberService.Deps{
		Tx:           c.Tx,
		Members:      c.MemberRepo,
		Users:        c.UserRepo,
		Clock:        c.Clock,
		Notifier:     c.Notifier,
		TermDays:     cfg.Loan.MemberTermDays,
		ReminderDays: memberReminderDays,
	})

	c.BookService = bookService.NewBookService(
		c.Tx,
		c.BookRepo,
		c.AuthorRepo,
		c.Storage,
		storage.NewImageProcessor(),
	)

	c.LoanService = loanService.NewLoanService(loanService.Deps{
		Tx:           c.Tx,
		Loans:        c.LoanRepo,
		Books:        c.BookRepo,
		Users:        c.UserRepo,
		Reservations: c.ReservationRepo,
		Activity:     c.ActivityRepo,
		Calculator:   c.Calculator,
		Notifier:     c.Notifier,
		PeriodDays:   cfg.Loan.DefaultPeriodDays,
		DueSoonDays:  cfg.Loan.DueSoonDays,
	})

	c.ReservationService = reservationService.NewReservationService(reservationService.Deps{
		Tx:           c.Tx,
		Reservations: c.ReservationRepo,
		Books:        c.BookRepo,
		Users:        c.UserRepo,
		Activity:     c.ActivityRepo,
		Clock:        c.Clock,
		Notifier:     c.Notifier,
		HoldDays:     cfg.Loan.ReservationDays,
	})

	c.PaymentService = paymentService.NewPaymentService(paymentService.Deps{
		Tx:       c.Tx,
		Payments: c.PaymentRepo,
		Loans:    c.LoanRepo,
		Activity: c.ActivityRepo,
		Clock:    c.Clock,
		Notifier: c.Notifier,
	})

	c.ActivityService = activityService.NewActivityService(c.ActivityRepo)

	c.ReportService = reportService.NewReportService(reportService.Deps{
		Reports:    c.ReportRepo,
		Activity:   c.ActivityRepo,
		Loans:      c.LoanRepo,
		Payments:   c.PaymentRepo,
		Members:    c.MemberRepo,
		Calculator: c.Calculator,
	})
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService, c.ReportService)
	c.MemberHandler = memberHandler.NewMemberHandler(c.MemberService)
	c.BookHandler = bookHandler.NewBookHandler(c.BookService)
	c.LoanHandler = loanHandler.NewLoanHandler(c.LoanService)
	c.ReservationHandler = reservationHandler.NewReservationHandler(c.ReservationService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
	c.ActivityHandler = activityHandler.NewActivityHandler(c.ActivityService)
	c.ReportHandler = reportHandler.NewReportHandler(c.ReportService)
}

// RedisOpt dùng chung cho asynq client, worker server và scheduler
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown. Safe to call multiple times.
func (c *Container) Cleanup() {
	logger.Info("Cleaning up container resources", nil)

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
		c.AsynqClient = nil
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.Error("Failed to close redis", err)
		}
		c.Cache = nil
	}

	if c.DB != nil {
		_ = c.DB.Close()
	}
}

package container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Eoic/Shelf/internal/config"
	infraCache "github.com/Eoic/Shelf/internal/infrastructure/cache"
	"github.com/Eoic/Shelf/internal/infrastructure/database"
	infraStorage "github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/pkg/cache"
	"github.com/Eoic/Shelf/pkg/jwt"

	bookHandler "github.com/Eoic/Shelf/internal/domains/book/handler"
	bookRepo "github.com/Eoic/Shelf/internal/domains/book/repository"
	bookService "github.com/Eoic/Shelf/internal/domains/book/service"
	shelfHandler "github.com/Eoic/Shelf/internal/domains/shelf/handler"
	shelfRepo "github.com/Eoic/Shelf/internal/domains/shelf/repository"
	shelfService "github.com/Eoic/Shelf/internal/domains/shelf/service"
	storageHandler "github.com/Eoic/Shelf/internal/domains/storage/handler"
	storageRepo "github.com/Eoic/Shelf/internal/domains/storage/repository"
	storageService "github.com/Eoic/Shelf/internal/domains/storage/service"
	"github.com/Eoic/Shelf/internal/domains/user"
	userHandler "github.com/Eoic/Shelf/internal/domains/user/handler"
	userRepo "github.com/Eoic/Shelf/internal/domains/user/repository"
	userService "github.com/Eoic/Shelf/internal/domains/user/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
// Struct này là "root" của dependency graph
// Pattern: Service Locator + Dependency Injection
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	// Shared across all domains, lifecycle: singleton

	Config      *config.Config
	DB          *database.PostgresDB
	RedisClient *infraCache.RedisClient
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	StorageFactory *infraStorage.Factory
	CoverProcessor *infraStorage.CoverProcessor

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================

	UserRepo    user.Repository
	BookRepo    bookRepo.RepositoryInterface
	StorageRepo storageRepo.RepositoryInterface
	ShelfRepo   shelfRepo.RepositoryInterface

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================

	UserService    user.Service
	BookService    bookService.ServiceInterface
	IngestService  bookService.IngestServiceInterface
	StorageService storageService.ServiceInterface
	ShelfService   shelfService.ServiceInterface

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================

	UserHandler    *userHandler.UserHandler
	BookHandler    *bookHandler.Handler
	StorageHandler *storageHandler.StorageHandler
	ShelfHandler   *shelfHandler.ShelfHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph
//
// QUAN TRỌNG: Thứ tự initialization:
// 1. Config (không phụ thuộc gì)
// 2. Infrastructure (DB, Cache, Asynq, Storage factory) - phụ thuộc Config
// 3. Repositories - phụ thuộc Infrastructure
// 4. Services - phụ thuộc Repositories
// 5. Handlers - phụ thuộc Services
//
// Nếu thứ tự sai → panic (nil pointer dereference)
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE + QUEUE CLIENT
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisClient := infraCache.NewRedisClient(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if err := redisClient.Connect(context.Background()); err != nil {
		// Redis failure không critical cho API startup - cache layer
		// tự degrade, nhưng upload sẽ fail khi enqueue
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}

	c.RedisClient = redisClient
	c.Cache = infraCache.NewRedisCache(redisClient.Client)

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// ========================================
	// STEP 4: INITIALIZE AUTH + STORAGE INFRA
	// ========================================
	accessTTL := time.Duration(cfg.JWT.AccessTokenExpiry) * time.Minute
	refreshTTL := time.Duration(cfg.JWT.RefreshTokenExpiry) * time.Hour
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, accessTTL, refreshTTL)

	// Temp dir và library root phải tồn tại trước khi nhận upload
	for _, dir := range []string{cfg.Storage.TempDir, cfg.Storage.LibraryRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}

	c.StorageFactory = infraStorage.NewFactory(cfg.Storage.LibraryRoot, cfg.Storage.TempDir)
	c.CoverProcessor = infraStorage.NewCoverProcessor()
	log.Println("✅ Storage infrastructure initialized")

	// ========================================
	// STEP 5: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")

	if err := c.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 6: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")

	if err := c.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 7: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")

	if err := c.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

// initRepositories khởi tạo tất cả repositories
// Pattern: Constructor Injection
func (c *Container) initRepositories() error {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.BookRepo = bookRepo.NewPostgresRepository(pool)
	c.StorageRepo = storageRepo.NewPostgresRepository(pool)
	c.ShelfRepo = shelfRepo.NewPostgresRepository(pool)

	return nil
}

// initServices khởi tạo tất cả services
func (c *Container) initServices() error {
	accessTTL := time.Duration(c.Config.JWT.AccessTokenExpiry) * time.Minute

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, accessTTL)

	// Storage service trước: book service cần nó để resolve backend
	c.StorageService = storageService.NewStorageService(c.StorageRepo, c.StorageFactory)

	c.BookService = bookService.NewService(
		c.BookRepo,
		c.StorageService,
		c.Cache,
		c.AsynqClient,
		c.Config.Storage.TempDir,
	)

	c.IngestService = bookService.NewIngestService(
		c.BookRepo,
		c.StorageService,
		c.CoverProcessor,
		c.Cache,
	)

	c.ShelfService = shelfService.NewShelfService(c.ShelfRepo)

	return nil
}

// initHandlers khởi tạo tất cả HTTP handlers
func (c *Container) initHandlers() error {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.StorageHandler = storageHandler.NewStorageHandler(c.StorageService)
	c.ShelfHandler = shelfHandler.NewShelfHandler(c.ShelfService)

	return nil
}

// ========================================
// CLEANUP
// ========================================

// Cleanup dọn dẹp resources khi shutdown
// Gọi trong graceful shutdown của server
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close Asynq client: %v", err)
		} else {
			log.Println("✅ Asynq client closed")
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yashrajoria/affiliate-storefront/cache"
	"github.com/yashrajoria/affiliate-storefront/catalog"
	"github.com/yashrajoria/affiliate-storefront/common/auth"
	"github.com/yashrajoria/affiliate-storefront/common/logger"
	"github.com/yashrajoria/affiliate-storefront/common/middleware"
	"github.com/yashrajoria/affiliate-storefront/controllers"
	"github.com/yashrajoria/affiliate-storefront/database"
	"github.com/yashrajoria/affiliate-storefront/events"
	sessionmw "github.com/yashrajoria/affiliate-storefront/middleware"
	aws_pkg "github.com/yashrajoria/affiliate-storefront/pkg/aws"
	ddb "github.com/yashrajoria/affiliate-storefront/pkg/dynamodb"
	"github.com/yashrajoria/affiliate-storefront/repository"
	"github.com/yashrajoria/affiliate-storefront/routes"
	"github.com/yashrajoria/affiliate-storefront/services"
	"github.com/yashrajoria/affiliate-storefront/staticdata"
	"github.com/yashrajoria/affiliate-storefront/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "storefront-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}

	// --- 1. Logging ---

	var cwWriter *aws_pkg.CloudWatchLogsClient
	if cfg.CloudWatchEnabled {
		cwWriter, err = aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, os.Getenv("CLOUDWATCH_LOG_GROUP"), serviceName)
		if err != nil {
			// Keep going with stdout only.
			cwWriter = nil
		}
	}
	var log *zap.Logger
	if cwWriter != nil {
		log, err = logger.New(cfg.Env, cwWriter)
	} else {
		log, err = logger.New(cfg.Env, nil)
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("product_backend", cfg.ProductBackend),
		zap.String("aws_endpoint", cfg.AWS.Endpoint),
		zap.String("aws_region", cfg.AWS.Region),
		zap.Bool("cloudwatch_logs", cwWriter != nil),
	)

	// --- 2. Stores ---

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable at startup", zap.Error(err))
	}

	localCache := cache.NewLocalCache(redisClient)
	localRepo := repository.NewLocalAdapter(localCache)

	var (
		productRepo repository.ProductRepo
		remote      catalog.ProductLister
		mongoConn   *database.Mongo
	)
	switch cfg.ProductBackend {
	case BackendDynamo:
		dynamoRepo := repository.NewDynamoAdapter(ddb.NewClientFromConfig(awsCfg, cfg.AWS.Endpoint), cfg.DynamoTable)
		productRepo, remote = dynamoRepo, dynamoRepo
	case BackendMongo:
		mongoConn, err = database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, log)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		mongoRepo := repository.NewMongoAdapter(mongoConn.DB)
		productRepo, remote = mongoRepo, mongoRepo
	default:
		// The local cache is the product store; the reconciler already
		// reads it as its local source.
		productRepo = localRepo
	}

	blobStore := storage.NewS3Store(aws_pkg.NewS3Client(awsCfg, cfg.S3Endpoint), cfg.S3Bucket, cfg.S3Endpoint, cfg.CloudFrontDomain)
	static := staticdata.New(cfg.StaticDataURL)

	var publisher events.Publisher = events.Nop{}
	if cfg.CatalogTopicArn != "" {
		publisher = events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.CatalogTopicArn, log)
	}
	metrics := aws_pkg.NewMetricsClient(awsCfg, "Storefront", cfg.MetricsEnabled)

	// --- 3. Services & controllers ---

	reconciler := catalog.NewReconciler(localCache, remote, static, log)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)

	productService := services.NewProductService(productRepo, localRepo, static, blobStore, publisher, metrics, log)
	kitService := services.NewKitService(localCache, static, publisher, log)
	authService := services.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, issuer, cfg.SessionTTL, log)
	gate := services.NewGate(localCache, cfg.AdminPasscode, log)
	exporter := services.NewExportService(reconciler, log)

	cacheManager := controllers.NewCacheManager(redisClient, cfg.CatalogCacheTTL, log)
	catalogController := controllers.NewCatalogController(reconciler, cacheManager, metrics, log)
	productController := controllers.NewProductController(productService, cacheManager)
	kitController := controllers.NewKitController(kitService, cacheManager)
	adminController := controllers.NewAdminController(authService, gate, exporter, cfg.Env == "production")

	// --- 4. HTTP Server & Middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(sessionmw.Timeout(30 * time.Second))
	r.Use(sessionmw.SessionMiddleware(issuer))

	// 5 attempts per minute per IP on the credential endpoints.
	limiter := middleware.NewRateLimiter(ctx, rate.Every(12*time.Second), 5, 10*time.Minute)
	routes.RegisterRoutes(r, catalogController, productController, kitController, adminController, limiter)

	// --- 5. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storefront service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down storefront service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	if mongoConn != nil {
		if err := mongoConn.Close(); err != nil {
			log.Error("Failed to close MongoDB", zap.Error(err))
		}
	}

	log.Info("Storefront service stopped gracefully")
}

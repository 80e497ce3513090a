package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/countrydata/country-service/handlers"
	"github.com/countrydata/country-service/internal/config"
	"github.com/countrydata/country-service/internal/country"
	"github.com/countrydata/country-service/internal/country/handler"
	"github.com/countrydata/country-service/internal/country/repository"
	"github.com/countrydata/country-service/internal/country/service"
	"github.com/countrydata/country-service/internal/database"
	"github.com/countrydata/country-service/internal/gateway"
	"github.com/countrydata/country-service/internal/report"
	"github.com/countrydata/country-service/pkg/logger"
	"github.com/countrydata/country-service/pkg/metrics"
	"github.com/countrydata/country-service/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	ctx := context.Background()

	// persistent store: Mongo when configured, in-memory otherwise
	var repo repository.CountryRepository
	var mongoOK bool
	if cfg.MongoDB.URI != "" {
		// retry/backoff when connecting to MongoDB to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		col := client.Database(cfg.MongoDB.Database).Collection("countries")
		repo = repository.NewMongoRepo(col)
		mongoOK = true
		logger.Infof("using MongoDB store: %s/%s", cfg.MongoDB.Database, "countries")
	} else {
		repo = repository.NewMemoryRepo()
		logger.Warn("MONGODB_URI not set; using in-memory store (data is lost on restart)")
	}

	// distributed refresh lock when Redis is configured
	var locker service.Locker
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v; refresh lock is process-local only", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			locker = service.NewRedisLocker(rdb, "country-service:refresh-lock", cfg.Redis.LockTTL)
			logger.Infof("connected to Redis for the refresh lock: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// summary artifact store: object store when configured, cache dir otherwise
	var artifacts report.ArtifactStore
	if cfg.MinIO.Endpoint != "" {
		s, err := report.NewMinIOStore(&report.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Fatalf("minio store: %v", err)
		}
		artifacts = s
		logger.Infof("summary artifacts stored in MinIO bucket %q", cfg.MinIO.Bucket)
	} else {
		artifacts = report.NewLocalStore(cfg.Cache.Dir)
	}

	gw := gateway.NewClient(cfg.Sources.CountriesURL, cfg.Sources.RatesURL, cfg.Sources.FetchTimeout)
	svc := service.New(repo, gw, report.NewGenerator(artifacts), locker, country.NewRandMultiplier())
	handler.New(svc, artifacts).Register(r)
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: the memory store is always ready; Mongo-backed deployments
	// report their connection state
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"storage": cfg.MongoDB.URI == "" || mongoOK}
		if !deps["storage"] {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting country service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

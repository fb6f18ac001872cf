package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Uric01/machine-learning/internal/api"
	"github.com/Uric01/machine-learning/internal/cache"
	"github.com/Uric01/machine-learning/internal/config"
	"github.com/Uric01/machine-learning/internal/redis"
	"github.com/Uric01/machine-learning/internal/service/clv"
	"github.com/Uric01/machine-learning/internal/storage"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CLV_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("CLV_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: datasets, model_runs
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
	}

	datasetCache := cache.New(
		cfg.BasicConfig.CacheEntries,
		rdb,
		time.Duration(cfg.BasicConfig.CacheTTLMinutes)*time.Minute,
	)
	service := clv.NewService(db, datasetCache)
	handlers := api.NewHandler(service, int64(cfg.BasicConfig.MaxUploadMB)<<20)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

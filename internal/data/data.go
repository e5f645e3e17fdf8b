package data

import (
	authdata "github.com/pdfvault/pdfvault-backend/internal/auth/data"
	"github.com/pdfvault/pdfvault-backend/internal/conf"
	filedata "github.com/pdfvault/pdfvault-backend/internal/file/data"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data bundles the shared infrastructure clients
type Data struct {
	DB          *database.DB
	RedisClient *redis.Client
}

// NewData initializes the database and Redis connections and runs
// schema migration. The returned cleanup closes everything.
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, err
	}

	if err := db.AutoMigrate(&authdata.UserPO{}, &filedata.FilePO{}); err != nil {
		db.Close()
		return nil, nil, err
	}

	redisClient, err := redis.New(&config.Redis, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.Info("closing data layer")
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}

	return &Data{
		DB:          db,
		RedisClient: redisClient,
	}, cleanup, nil
}

package db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"opinions/internal/enums"
	"opinions/internal/models"
)

// gormWriter 把 gorm 的日志转给 zerolog
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

func newGormLogger(log zerolog.Logger) logger.Interface {
	return logger.New(
		gormWriter{log: log},
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Open 连接数据库，启动时数据库可能还没就绪，按指数退避重试直到 timeout
func Open(ctx context.Context, dsn string, timeout time.Duration, log zerolog.Logger) (*gorm.DB, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = timeout

	var db *gorm.DB
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         newGormLogger(log),
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	log.Info().Int("attempts", attempt).Msg("database connection established")
	return db, nil
}

// Migrate 建表并写入状态表
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	err := db.AutoMigrate(
		&models.Status{},
		&models.User{},
		&models.Category{},
		&models.Opinion{},
		&models.Comment{},
		&models.ReviewRecord{},
		&models.HideRecord{},
		&models.PinRecord{},
		&models.FollowRecord{},
		&models.AgreementRecord{},
		&models.Notification{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	log.Info().Msg("database migration completed")
	return seedStatuses(db, log)
}

// seedStatuses 每个原子状态一行，已存在的跳过
func seedStatuses(db *gorm.DB, log zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.Status{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "count statuses")
	}
	atomic := enums.AtomicStatuses()
	if count == int64(len(atomic)) {
		log.Debug().Msg("statuses already seeded, skipping")
		return nil
	}

	for _, s := range atomic {
		st := models.StatusOf(s)
		if err := db.Where(models.Status{Name: st.Name}).FirstOrCreate(&st).Error; err != nil {
			return errors.Wrapf(err, "failed to create status %s", st.Name)
		}
	}
	log.Info().Int("statuses", len(atomic)).Msg("statuses seeded")
	return nil
}

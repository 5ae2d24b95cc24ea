package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ourcity/internal/logger"
	"ourcity/internal/models"
)

// Open connects to postgres. Slow queries are logged through logrus.
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(logger.Log, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	logger.Log.Info("database connection established")
	return gdb, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.CommentVote{},
		&models.UserReport{},
		&models.Bookmark{},
	)
	if err != nil {
		return errors.Wrap(err, "migrate database")
	}
	logger.Log.Info("database migration completed")
	return nil
}

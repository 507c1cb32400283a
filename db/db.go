package db

import (
	"fmt"
	"os"
	"path/filepath"

	"corretor/config"
	"corretor/logging"
	"corretor/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"go.uber.org/zap"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect abre conexão com o banco configurado (sqlite3 por padrão).
// Com automigrate ligado, cria/atualiza as tabelas.
func Connect() (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		logging.L().Info("Utilizando conexão com o postgresql...", zap.String("host", conf.DbHost))
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass + " sslmode=" + conf.DbSSLMode
		db, err = gorm.Open("postgres", path)
	} else {
		path := conf.SqlitePath
		if path == "" {
			path = "db/database.db"
		}
		logging.L().Info("Utilizando conexão com o sqlite3...", zap.String("path", path))
		if path != ":memory:" {
			if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
				return nil, mkErr
			}
		}
		db, err = gorm.Open("sqlite3", path)
		if err == nil {
			// sqlite não lida bem com escrita concorrente
			db.DB().SetMaxOpenConns(1)
		}
	}

	if err != nil {
		logging.L().Error("Got error when connect database", zap.Error(err))
		return nil, fmt.Errorf("connect %s: %w", database, err)
	}

	db.LogMode(conf.LogLevel == "debug")

	if conf.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate cria/atualiza as tabelas de todos os modelos.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Lead{},
		&models.InsuranceProduct{},
		&models.Property{},
		&models.Agendamento{},
		&models.AvailabilitySlot{},
		&models.Attachment{},
	).Error
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

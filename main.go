package main

import (
	"fmt"
	"os"

	"corretor/config"
	"corretor/controllers"
	"corretor/db"
	"corretor/logging"

	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =====================
// ENV principais (sobrescrevem o config.json)
// =====================
//
// - CONFIG_PATH          caminho do config.json (padrão: config.json)
// - PORT, LOG_LEVEL, LOG_PATH, CORS_ORIGINS
// - DATABASE (sqlite3|postgres), DB_HOST, DB_PORT, DB_USER, DB_NAME, DB_PASS, DB_SSLMODE, SQLITE_PATH
// - JWT_SECRET, N8N_INTERNAL_API_KEY
// - S3_BUCKET, AWS_REGION, S3_ENDPOINT, S3_PUBLIC_BASE_URL
// - REDIS_URL
//
// =====================

var configPath string

var rootCmd = &cobra.Command{
	Use:           "corretor",
	Short:         "Backend do CRM de corretores de seguros",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.json"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "caminho do config.json")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, importLeadsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap carrega config, inicia o logger e conecta no banco.
func bootstrap() (config.Configuration, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := logging.InitLogger(cfg.LogLevel, cfg.LogPath); err != nil {
		return cfg, nil, fmt.Errorf("logger: %w", err)
	}

	db.SetConfigurations(cfg)
	database, err := db.Connect()
	if err != nil {
		return cfg, nil, fmt.Errorf("db: %w", err)
	}

	controllers.SetDependencies(controllers.Dependencies{Config: cfg})
	if cfg.UsesDefaultJwtSecret() {
		logging.L().Warn("JWT_SECRET não configurado: usando o segredo padrão, sessões podem ser forjadas")
	}
	logging.L().Info("configuração carregada",
		zap.String("database", cfg.Database),
		zap.Bool("automigrate", cfg.AutoMigrate),
	)
	return cfg, database, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"corretor/cache"
	"corretor/controllers"
	"corretor/db"
	"corretor/logging"
	"corretor/models"
	"corretor/router"
	"corretor/tools"
	"corretor/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sobe a API HTTP e os workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Cria/atualiza as tabelas do banco",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()
		defer logging.Sync()

		if err := db.Migrate(database); err != nil {
			return err
		}
		logging.L().Info("migração concluída")
		return nil
	},
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
	adminPhone    string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Cria um usuário ADMIN (ou promove um existente pelo email)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()
		defer logging.Sync()

		var existing models.User
		err = database.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(adminEmail))).First(&existing).Error
		if err == nil {
			// já existe: promove e troca a senha
			if tools.CheckPassword(adminPassword) != "" {
				return fmt.Errorf("senha deve ter no mínimo 6 caracteres")
			}
			if err := database.Model(&existing).Update("role", models.USER_ROLE_ADMIN).Error; err != nil {
				return err
			}
			if err := controllers.SetUserPassword(database, existing.ID, adminPassword, cfg.Security.BcryptCost); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usuário promovido a admin: id=%d email=%s\n", existing.ID, existing.Email)
			return nil
		} else if !gorm.IsRecordNotFoundError(err) {
			return err
		}

		user, err := controllers.CreateUser(database, models.User{
			Name:     adminName,
			Email:    adminEmail,
			Password: adminPassword,
			Phone:    adminPhone,
			Role:     models.USER_ROLE_ADMIN,
		}, cfg.Security.BcryptCost)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin criado: id=%d email=%s\n", user.ID, user.Email)
		return nil
	},
}

var (
	importUserID int64
	importFile   string
)

var importLeadsCmd = &cobra.Command{
	Use:   "import-leads",
	Short: "Importa leads de uma planilha (.xlsx ou .csv) para um corretor",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()
		defer logging.Sync()

		var owner models.User
		if err := database.First(&owner, importUserID).Error; err != nil {
			return fmt.Errorf("corretor %d: %w", importUserID, err)
		}

		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		parsed, err := tools.ParseLeadSpreadsheet(importFile, f)
		if err != nil {
			return err
		}
		stats, err := controllers.ImportLeads(database, owner.ID, controllers.BulkLeadsFromSpreadsheet(parsed))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "linhas=%d válidas=%d importados=%d duplicados=%d ignorados=%d\n",
			parsed.Total, parsed.Valid, stats.Count, stats.Duplicates, parsed.Ignored+stats.Ignored)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrador", "nome")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "senha (mínimo 6 caracteres)")
	createAdminCmd.Flags().StringVar(&adminPhone, "phone", "", "telefone")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	_ = createAdminCmd.MarkFlagRequired("phone")

	importLeadsCmd.Flags().Int64Var(&importUserID, "user", 0, "id do corretor dono dos leads")
	importLeadsCmd.Flags().StringVar(&importFile, "file", "", "planilha .xlsx ou .csv")
	_ = importLeadsCmd.MarkFlagRequired("user")
	_ = importLeadsCmd.MarkFlagRequired("file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close()
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := cache.New(ctx, cfg.Redis.URL, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second)
	if err != nil {
		// sem redis a API funciona, só sem cache e sem lock distribuído
		logging.L().Warn("redis indisponível, seguindo sem cache", zap.Error(err))
		c = cache.Noop{}
	}

	var storage tools.BlobStorage
	if cfg.Storage.Bucket != "" {
		s3, err := tools.NewS3Storage(ctx, tools.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			return err
		}
		storage = s3
	} else {
		logging.L().Warn("S3_BUCKET não configurado, uploads desabilitados")
	}

	controllers.SetDependencies(controllers.Dependencies{Config: cfg, Storage: storage, Cache: c})
	if err := controllers.RegisterValidators(); err != nil {
		return err
	}

	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, cfg, database)

	janitorDone := workers.StartSlotJanitor(ctx, database,
		time.Duration(cfg.Workers.SlotJanitorIntervalSeconds)*time.Second,
		time.Duration(cfg.Workers.SlotRetentionDays)*24*time.Hour,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.L().Info("corretor listening", zap.String("port", cfg.ApiPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		<-janitorDone
		return err
	case <-ctx.Done():
	}

	logging.L().Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-janitorDone
	logging.L().Info("server exited gracefully")
	return nil
}

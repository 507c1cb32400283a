package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJwtSecret só serve para desenvolvimento: com ele qualquer um forja sessões.
const DefaultJwtSecret = "CHANGE_ME"

type Configuration struct {
	ApiPort     string   `json:"api_port"`
	LogPath     string   `json:"log_path"`
	LogLevel    string   `json:"log_level"`
	CorsOrigins []string `json:"cors_origins"`

	Database    string `json:"database"` // "sqlite3" ou "postgres"
	DbHost      string `json:"db_host"`
	DbPort      string `json:"db_port"`
	DbUser      string `json:"db_user"`
	DbName      string `json:"db_name"`
	DbPass      string `json:"db_pass"`
	DbSSLMode   string `json:"db_sslmode"`
	SqlitePath  string `json:"sqlite_path"`
	AutoMigrate bool   `json:"automigrate"`

	Security struct {
		JwtSecret       string `json:"jwt_secret"`
		SessionTTLHours int    `json:"session_ttl_hours"`
		CookieName      string `json:"cookie_name"`
		CookieSecure    bool   `json:"cookie_secure"`
		BcryptCost      int    `json:"bcrypt_cost"`
		N8NApiKey       string `json:"n8n_api_key"`
	} `json:"security"`

	Storage struct {
		Bucket            string `json:"bucket"`
		Region            string `json:"region"`
		Endpoint          string `json:"endpoint"`
		PublicBaseURL     string `json:"public_base_url"`
		AccessKeyID       string `json:"access_key_id"`
		SecretAccessKey   string `json:"secret_access_key"`
		PresignTTLMinutes int    `json:"presign_ttl_minutes"`
		MaxUploadMB       int    `json:"max_upload_mb"`
	} `json:"storage"`

	Redis struct {
		URL             string `json:"url"`
		CacheTTLSeconds int    `json:"cache_ttl_seconds"`
	} `json:"redis"`

	Bot struct {
		DefaultWelcomeMessage string            `json:"default_welcome_message"`
		DefaultQuestions      []string          `json:"default_questions"`
		DefaultClassification map[string]string `json:"default_classification"`
		UncontactedBatch      int               `json:"uncontacted_batch"`
		PostSalesStaleDays    int               `json:"post_sales_stale_days"`
		PostSalesBatch        int               `json:"post_sales_batch"`
	} `json:"bot"`

	Workers struct {
		SlotJanitorIntervalSeconds int `json:"slot_janitor_interval_seconds"`
		SlotRetentionDays          int `json:"slot_retention_days"`
	} `json:"workers"`
}

func (c Configuration) UsesDefaultJwtSecret() bool {
	return c.Security.JwtSecret == DefaultJwtSecret
}

// Get carrega a configuração ou encerra o processo.
func Get(path string) Configuration {
	c, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

// Load lê o .env (se existir), o arquivo JSON ou YAML (se existir) e aplica overrides de ambiente.
func Load(path string) (Configuration, error) {
	_ = godotenv.Load()

	var c Configuration
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeFile(path, b, &c); err != nil {
				return c, fmt.Errorf("config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// segue só com env + defaults
		default:
			return c, fmt.Errorf("config %s: %w", path, err)
		}
	}

	applyEnv(&c)
	ApplyDefaults(&c)
	return c, nil
}

// decodeFile aceita .yaml/.yml além de JSON. O YAML é convertido para JSON
// para que as mesmas tags da struct valham nos dois formatos.
func decodeFile(path string, b []byte, c *Configuration) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return err
		}
		var err error
		if b, err = json.Marshal(doc); err != nil {
			return err
		}
	}
	return json.Unmarshal(b, c)
}

func applyEnv(c *Configuration) {
	setString(&c.ApiPort, "PORT")
	setString(&c.LogPath, "LOG_PATH")
	setString(&c.LogLevel, "LOG_LEVEL")
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CorsOrigins = splitList(v)
	}

	setString(&c.Database, "DATABASE")
	setString(&c.DbHost, "DB_HOST")
	setString(&c.DbPort, "DB_PORT")
	setString(&c.DbUser, "DB_USER")
	setString(&c.DbName, "DB_NAME")
	setString(&c.DbPass, "DB_PASS")
	setString(&c.DbSSLMode, "DB_SSLMODE")
	setString(&c.SqlitePath, "SQLITE_PATH")
	if v := os.Getenv("AUTOMIGRATE"); v != "" {
		c.AutoMigrate = v == "1" || strings.EqualFold(v, "true")
	}

	setString(&c.Security.JwtSecret, "JWT_SECRET")
	setString(&c.Security.N8NApiKey, "N8N_INTERNAL_API_KEY")
	setInt(&c.Security.SessionTTLHours, "SESSION_TTL_HOURS")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Security.CookieSecure = v == "1" || strings.EqualFold(v, "true")
	}

	setString(&c.Storage.Bucket, "S3_BUCKET")
	setString(&c.Storage.Region, "AWS_REGION")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.PublicBaseURL, "S3_PUBLIC_BASE_URL")
	setString(&c.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setInt(&c.Storage.MaxUploadMB, "MAX_UPLOAD_MB")

	setString(&c.Redis.URL, "REDIS_URL")
	setInt(&c.Redis.CacheTTLSeconds, "REDIS_CACHE_TTL_SECONDS")
}

// ApplyDefaults preenche os campos vazios (pra evitar nil/zero chato).
func ApplyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPort == "" {
		c.DbPort = "5432"
	}
	if c.DbSSLMode == "" {
		c.DbSSLMode = "disable"
	}
	if c.SqlitePath == "" {
		c.SqlitePath = "db/database.db"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = DefaultJwtSecret
	}
	if c.Security.SessionTTLHours <= 0 {
		c.Security.SessionTTLHours = 24 * 7
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = "corretor_session"
	}
	if c.Security.BcryptCost <= 0 {
		c.Security.BcryptCost = 10
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.PresignTTLMinutes <= 0 {
		c.Storage.PresignTTLMinutes = 15
	}
	if c.Storage.MaxUploadMB <= 0 {
		c.Storage.MaxUploadMB = 10
	}
	if c.Redis.CacheTTLSeconds <= 0 {
		c.Redis.CacheTTLSeconds = 300
	}
	if c.Bot.DefaultWelcomeMessage == "" {
		c.Bot.DefaultWelcomeMessage = "Olá, %s! Meu nome é Lucas e sou o assistente virtual do seu corretor na CSB Seguros. Como posso te ajudar hoje com seu seguro residencial?"
	}
	if len(c.Bot.DefaultQuestions) == 0 {
		c.Bot.DefaultQuestions = []string{
			"Qual o seu nome completo?",
			"Qual o seu CEP residencial?",
			"Já possui seguro atualmente?",
		}
	}
	if len(c.Bot.DefaultClassification) == 0 {
		c.Bot.DefaultClassification = map[string]string{
			"tier1": "Cliente fora do perfil.",
			"tier2": "Cliente com potencial baixo ou produto de entrada.",
			"tier3": "Cliente ideal para cotação padrão.",
			"tier4": "Cliente VIP / Alto valor.",
		}
	}
	if c.Bot.UncontactedBatch <= 0 {
		c.Bot.UncontactedBatch = 100
	}
	if c.Bot.PostSalesStaleDays <= 0 {
		c.Bot.PostSalesStaleDays = 30
	}
	if c.Bot.PostSalesBatch <= 0 {
		c.Bot.PostSalesBatch = 50
	}
	if c.Workers.SlotJanitorIntervalSeconds <= 0 {
		c.Workers.SlotJanitorIntervalSeconds = 3600
	}
	if c.Workers.SlotRetentionDays <= 0 {
		c.Workers.SlotRetentionDays = 7
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

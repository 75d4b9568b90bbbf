package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

var DB *gorm.DB

// AppConfig gathers every vendor credential and model name at startup so the
// pipeline never reads ambient environment state mid-run.
type AppConfig struct {
	Port string

	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string

	STTAPIURL string
	STTAPIKey string
	STTModel  string

	SupabaseURL   string
	SupabaseKey   string
	StorageBucket string

	PipelineTimeout time.Duration
}

// Load reads the environment once. Missing optional values get defaults;
// secrets are left empty and fail at the call site.
func Load() AppConfig {
	cfg := AppConfig{
		Port:            getEnv("PORT", "8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		STTAPIURL:       os.Getenv("STT_API_URL"),
		STTAPIKey:       os.Getenv("STT_API_KEY"),
		STTModel:        getEnv("STT_MODEL", "whisper-1"),
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseKey:     os.Getenv("SUPABASE_KEY"),
		StorageBucket:   getEnv("SUPABASE_BUCKET", "recordings"),
		PipelineTimeout: 10 * time.Minute,
	}
	if v := os.Getenv("PIPELINE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PipelineTimeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		dbHost, dbUser, dbPass, dbName, dbPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("cannot connect to database: ", err)
	}

	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("cannot get sql.DB from gorm: ", err)
	}

	// Connection pooling
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(DB); err != nil {
		log.Fatal("automigrate failed: ", err)
	}
	log.Println("postgres connected & migrated")
}

// Migrate is shared with the test setup, which runs against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Recording{},
		&models.Transcription{},
		&models.Note{},
		&models.ActionItem{},
		&models.UsageLog{},
		&models.Folder{},
		&models.Tag{},
	)
}

package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// Admin identity: tokens are verified with JWTSecret and the session
	// email must belong to AdminAllowedDomain.
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	AdminAllowedDomain string `mapstructure:"ADMIN_ALLOWED_DOMAIN"`

	// Shared secret the external scheduler must present on cron routes.
	CronSecret string `mapstructure:"CRON_SECRET"`

	// Notification settings.
	OpsEmail     string `mapstructure:"OPS_EMAIL"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// Lifecycle engine tuning.
	GracePeriodHours    int `mapstructure:"GRACE_PERIOD_HOURS"`
	AutoUpdateBatchSize int `mapstructure:"AUTO_UPDATE_BATCH_SIZE"`

	// Redis configuration (asynq task queue and health monitoring).
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisTaskQueueDB int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "solera")
	viper.SetDefault("ADMIN_ALLOWED_DOMAIN", "solera.events")
	viper.SetDefault("OPS_EMAIL", "reservas@solera.events")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("GRACE_PERIOD_HOURS", 6)
	viper.SetDefault("AUTO_UPDATE_BATCH_SIZE", 500)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 3)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// GracePeriod returns the configured no-checkin grace period as a duration.
func GracePeriod() time.Duration {
	return time.Duration(AppConfig.GracePeriodHours) * time.Hour
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

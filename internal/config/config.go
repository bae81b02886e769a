package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the GORM postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// KafkaConfig holds Kafka broker settings.
type KafkaConfig struct {
	Brokers []string
}

// QRISConfig holds the QRIS payment gateway credentials.
type QRISConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AppKey       string
	AppSecret    string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      DatabaseConfig
	KafkaConfig   KafkaConfig
	QRISConfig    QRISConfig
	PaymentWindow time.Duration
	SweepInterval time.Duration
	OpenHour      int
	CloseHour     int
	AdminWhatsApp string
}

// Load reads configuration from environment variables and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("PAYMENT_WINDOW", "15m")
	v.SetDefault("SWEEP_INTERVAL", "5s")
	v.SetDefault("OPEN_HOUR", 8)
	v.SetDefault("CLOSE_HOUR", 22)

	paymentWindow, err := time.ParseDuration(v.GetString("PAYMENT_WINDOW"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_WINDOW: %w", err)
	}
	sweepInterval, err := time.ParseDuration(v.GetString("SWEEP_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	openHour := v.GetInt("OPEN_HOUR")
	closeHour := v.GetInt("CLOSE_HOUR")
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return nil, fmt.Errorf("invalid operating hours %d-%d", openHour, closeHour)
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		},
		QRISConfig: QRISConfig{
			BaseURL:      v.GetString("QRIS_BASE_URL"),
			ClientID:     v.GetString("QRIS_CLIENT_ID"),
			ClientSecret: v.GetString("QRIS_CLIENT_SECRET"),
			AppKey:       v.GetString("QRIS_APP_KEY"),
			AppSecret:    v.GetString("QRIS_APP_SECRET"),
		},
		PaymentWindow: paymentWindow,
		SweepInterval: sweepInterval,
		OpenHour:      openHour,
		CloseHour:     closeHour,
		AdminWhatsApp: v.GetString("ADMIN_WHATSAPP"),
	}, nil
}

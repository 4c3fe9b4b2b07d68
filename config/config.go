package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Access tokens are issued by the board's identity provider; this
	// service only verifies and consumes them.
	JWTAccessSecret string

	// ✅ Redis Config (feed pub/sub + reviewer locks)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ✅ Kafka Config (upstream alert ingestion)
	KafkaBrokers    string
	KafkaAlertTopic string
	KafkaEventTopic string
	KafkaGroupID    string

	// Reviewer advisory lock TTL in minutes
	ReviewLockTTLMinutes int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	lockTTL, _ := strconv.Atoi(os.Getenv("REVIEW_LOCK_TTL_MINUTES"))
	if lockTTL <= 0 {
		lockTTL = 30
	}

	return &Config{
		Port: os.Getenv("PORT"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		KafkaAlertTopic: os.Getenv("KAFKA_ALERT_TOPIC"),
		KafkaEventTopic: os.Getenv("KAFKA_EVENT_TOPIC"),
		KafkaGroupID:    os.Getenv("KAFKA_GROUP_ID"),

		ReviewLockTTLMinutes: lockTTL,
	}
}

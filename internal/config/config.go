package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr           string
	MySQLDSN           string
	StoreDir           string
	RabbitMQURL        string
	RabbitExchange     string
	RabbitQueue        string
	RabbitRoutingKey   string
	RabbitConsumerTag  string
	RabbitReplyPrefix  string
	RabbitSubmittedKey string
	SSEHeartbeat       time.Duration
	CodeMaxAttempts    int
	ResetEnabled       bool
	MetricsEnabled     bool
	OTELServiceName    string
	OTLPEndpoint       string
	OTLPInsecure       bool
	OTELSampleRatio    float64
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:           ":8080",
		SSEHeartbeat:       15 * time.Second,
		CodeMaxAttempts:    16,
		MetricsEnabled:     true,
		RabbitExchange:     "worries",
		RabbitQueue:        "worries.replies",
		RabbitRoutingKey:   "reply.*",
		RabbitConsumerTag:  "reply-consumer",
		RabbitReplyPrefix:  "reply",
		RabbitSubmittedKey: "worry.submitted",
		OTELServiceName:    "worry-solver",
		OTLPInsecure:       true,
		OTELSampleRatio:    1,
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.StoreDir = os.Getenv("STORE_DIR")
	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")

	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		cfg.RabbitExchange = v
	}
	if v := os.Getenv("RABBITMQ_QUEUE"); v != "" {
		cfg.RabbitQueue = v
	}
	if v := os.Getenv("RABBITMQ_ROUTING_KEY"); v != "" {
		cfg.RabbitRoutingKey = v
	}
	if v := os.Getenv("RABBITMQ_CONSUMER_TAG"); v != "" {
		cfg.RabbitConsumerTag = v
	}
	if v := os.Getenv("RABBITMQ_REPLY_PREFIX"); v != "" {
		cfg.RabbitReplyPrefix = v
	}
	if v := os.Getenv("RABBITMQ_SUBMITTED_KEY"); v != "" {
		cfg.RabbitSubmittedKey = v
	}

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.OTELServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OTLPInsecure = b
		}
	}

	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.OTELSampleRatio = f
		}
	}

	if v := os.Getenv("SSE_HEARTBEAT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSEHeartbeat = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("CODE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CodeMaxAttempts = n
		}
	}

	// Clearing every record is meant for local resets and test runs only.
	if v := os.Getenv("RESET_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ResetEnabled = b
		}
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MetricsEnabled = b
		}
	}

	return cfg
}

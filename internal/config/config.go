package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HTTP 서버 설정
	HTTP struct {
		Addr         string `envconfig:"HTTP_ADDR" default:":5000"`
		WebhookToken string `envconfig:"WEBHOOK_TOKEN" required:"true"`
		AdminToken   string `envconfig:"ADMIN_TOKEN"`
	}

	// 바이낸스 API 설정
	Binance struct {
		UseTestnet      bool          `envconfig:"BINANCE_USE_TESTNET" default:"false"`
		FuturesURL      string        `envconfig:"BINANCE_FUTURES_URL"`
		SpotURL         string        `envconfig:"BINANCE_SPOT_URL"`
		Timeout         time.Duration `envconfig:"BINANCE_TIMEOUT" default:"20s"`
		RecvWindow      int           `envconfig:"BINANCE_RECV_WINDOW" default:"5000"`
		WeightPerMinute int           `envconfig:"BINANCE_WEIGHT_PER_MINUTE" default:"1200"`
	}

	// 저장소 설정
	Storage struct {
		Driver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
		DSN    string `envconfig:"STORAGE_DSN" default:"trading_data.db"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 알림 비활성화)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		ReconcileInterval      time.Duration `envconfig:"RECONCILE_INTERVAL" default:"60s"`
		FlushInterval          time.Duration `envconfig:"FLUSH_INTERVAL" default:"1s"`
		BalanceRefreshInterval time.Duration `envconfig:"BALANCE_REFRESH_INTERVAL" default:"30s"`
		MaxWorkers             int           `envconfig:"MAX_WORKERS" default:"16"`
		LogLevel               string        `envconfig:"LOG_LEVEL" default:"info"`
		LogFile                string        `envconfig:"LOG_FILE"`
	}

	// 거래 설정
	Trading struct {
		QuoteAsset         string  `envconfig:"QUOTE_ASSET" default:"USDT"`
		FuturesMinNotional float64 `envconfig:"FUTURES_MIN_NOTIONAL" default:"5"`
	}

	// 재시도 설정
	Retry struct {
		MaxRetries int           `envconfig:"RETRY_MAX_RETRIES" default:"3"`
		BaseDelay  time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
		MaxDelay   time.Duration `envconfig:"RETRY_MAX_DELAY" default:"30s"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.HTTP.WebhookToken == "" {
		return fmt.Errorf("WEBHOOK_TOKEN은 비어 있을 수 없습니다")
	}

	switch cfg.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("지원하지 않는 STORAGE_DRIVER: %q", cfg.Storage.Driver)
	}

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("STORAGE_DSN은 비어 있을 수 없습니다")
	}

	if cfg.App.ReconcileInterval < time.Second {
		return fmt.Errorf("RECONCILE_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.App.FlushInterval < 100*time.Millisecond {
		return fmt.Errorf("FLUSH_INTERVAL은 100ms 이상이어야 합니다")
	}

	if cfg.App.BalanceRefreshInterval < time.Second {
		return fmt.Errorf("BALANCE_REFRESH_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.App.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS는 1 이상이어야 합니다")
	}

	if cfg.Trading.FuturesMinNotional < 0 {
		return fmt.Errorf("FUTURES_MIN_NOTIONAL은 0 이상이어야 합니다")
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES는 0 이상이어야 합니다")
	}

	if cfg.Retry.BaseDelay <= 0 || cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return fmt.Errorf("재시도 지연은 0보다 크고 RETRY_MAX_DELAY >= RETRY_BASE_DELAY 이어야 합니다")
	}

	if cfg.Binance.WeightPerMinute < 1 {
		return fmt.Errorf("BINANCE_WEIGHT_PER_MINUTE는 1 이상이어야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일은 있으면 읽고 없으면 무시합니다.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}

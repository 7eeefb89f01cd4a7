package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PrintifyVariant maps a checkout package to the Printify product to order.
type PrintifyVariant struct {
	ProductID string
	VariantID int
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	BaseURL            string
	CORSOrigins        []string
	DatabaseURL        string
	GeoIPDBPath        string
	AdminPassword      string
	PortraitBackend    string
	ReplicateAPIToken  string
	ReplicateBaseURL   string
	ReplicateVersion   string
	DashScopeAPIKey    string
	DashScopeBaseURL   string
	DashScopeModel     string
	VisionAPIKey       string
	VisionBaseURL      string
	VisionModel        string
	PrintifyAPIKey     string
	PrintifyShopID     string
	PrintifyBaseURL    string
	PrintifyVariants   map[string]PrintifyVariant
	StripeSecretKey    string
	StripeWebhookKey   string
	PollInterval       time.Duration
	MaxWait            time.Duration
	TuningSingle       TuningEnv
	TuningMulti        TuningEnv
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// TuningEnv is the environment-shaped tuning profile. The portrait package
// owns the runtime type; this keeps infra free of that dependency.
type TuningEnv struct {
	DenoisingStrength float64
	GuidanceScale     float64
	ConditioningScale float64
	Width             int
	Height            int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Backend and publisher credentials are intentionally
// not validated here: their absence is reported per-request so the service
// can boot in degraded states and say precisely what is missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins:       splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		PortraitBackend:   getEnv("PORTRAIT_BACKEND", "replicate"),
		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateVersion:  os.Getenv("REPLICATE_MODEL_VERSION"),
		DashScopeAPIKey:   os.Getenv("DASHSCOPE_API_KEY"),
		DashScopeBaseURL:  getEnv("DASHSCOPE_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
		DashScopeModel:    getEnv("DASHSCOPE_MODEL", "qwen-image-edit"),
		VisionAPIKey:      os.Getenv("VISION_API_KEY"),
		VisionBaseURL:     getEnv("VISION_BASE_URL", "https://api.x.ai/v1"),
		VisionModel:       getEnv("VISION_MODEL", "grok-2-vision-1212"),
		PrintifyAPIKey:    os.Getenv("PRINTIFY_API_KEY"),
		PrintifyShopID:    os.Getenv("PRINTIFY_SHOP_ID"),
		PrintifyBaseURL:   getEnv("PRINTIFY_BASE_URL", "https://api.printify.com/v1"),
		PrintifyVariants:  loadPrintifyVariants(),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PollInterval:      time.Second * time.Duration(getEnvInt("GENERATION_POLL_INTERVAL_SECONDS", 2)),
		MaxWait:           time.Second * time.Duration(getEnvInt("GENERATION_MAX_WAIT_SECONDS", 100)),
		TuningSingle: TuningEnv{
			DenoisingStrength: getEnvFloat("TUNING_SINGLE_DENOISE", 0.55),
			GuidanceScale:     getEnvFloat("TUNING_SINGLE_GUIDANCE", 7.5),
			ConditioningScale: getEnvFloat("TUNING_SINGLE_CONDITIONING", 0.8),
			Width:             getEnvInt("TUNING_SINGLE_WIDTH", 1024),
			Height:            getEnvInt("TUNING_SINGLE_HEIGHT", 1024),
		},
		TuningMulti: TuningEnv{
			DenoisingStrength: getEnvFloat("TUNING_MULTI_DENOISE", 0.7),
			GuidanceScale:     getEnvFloat("TUNING_MULTI_GUIDANCE", 9.0),
			ConditioningScale: getEnvFloat("TUNING_MULTI_CONDITIONING", 0.6),
			Width:             getEnvInt("TUNING_MULTI_WIDTH", 1344),
			Height:            getEnvInt("TUNING_MULTI_HEIGHT", 1024),
		},
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.PortraitBackend {
	case "replicate", "dashscope":
	default:
		return nil, fmt.Errorf("PORTRAIT_BACKEND must be replicate or dashscope, got %q", cfg.PortraitBackend)
	}

	return cfg, nil
}

func loadPrintifyVariants() map[string]PrintifyVariant {
	variants := make(map[string]PrintifyVariant)
	for _, pkg := range []string{"squire", "noble", "royal"} {
		upper := strings.ToUpper(pkg)
		productID := os.Getenv("PRINTIFY_PRODUCT_ID_" + upper)
		variantID := getEnvInt("PRINTIFY_VARIANT_ID_"+upper, 0)
		if productID == "" || variantID == 0 {
			continue
		}
		variants[pkg] = PrintifyVariant{ProductID: productID, VariantID: variantID}
	}
	return variants
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

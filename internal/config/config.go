package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Inference InferenceConfig
	AI        AIConfig
	OpenAI    OpenAIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	inference, err := loadInferenceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Store:     store,
		Auth:      auth,
		Inference: inference,
		AI:        loadAIConfig(),
		OpenAI:    loadOpenAIConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Store drivers.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StoreConfig 描述 users / emotions 两张表所在的后端。
type StoreConfig struct {
	Driver      string
	SupabaseURL string
	SupabaseKey string
	DatabaseURL string
	SQLitePath  string
}

// loadStoreConfig 未显式指定 STORE_DRIVER 时按已提供的凭证推断。
func loadStoreConfig() (StoreConfig, error) {
	cfg := StoreConfig{
		Driver:      strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))),
		SupabaseURL: strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey: strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  strings.TrimSpace(os.Getenv("SQLITE_PATH")),
	}

	if cfg.Driver == "" {
		switch {
		case cfg.SupabaseURL != "" && cfg.SupabaseKey != "":
			cfg.Driver = DriverSupabase
		case cfg.DatabaseURL != "":
			cfg.Driver = DriverPostgres
		case cfg.SQLitePath != "":
			cfg.Driver = DriverSQLite
		default:
			cfg.Driver = DriverMemory
		}
	}

	switch cfg.Driver {
	case DriverSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return StoreConfig{}, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase store")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return StoreConfig{}, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			cfg.SQLitePath = "emotibot.db"
		}
	case DriverMemory:
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value: %q", cfg.Driver)
	}

	return cfg, nil
}

// AuthConfig 描述 API 令牌签发。
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	ttlHours, err := parseOptionalIntEnv("TOKEN_TTL_HOURS")
	if err != nil {
		return AuthConfig{}, err
	}
	ttl := 24 * time.Hour
	if ttlHours != nil && *ttlHours > 0 {
		ttl = time.Duration(*ttlHours) * time.Hour
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		// 开发环境兜底，生产环境必须显式配置。
		secret = "emotibot-dev-secret"
	}

	return AuthConfig{JWTSecret: secret, TokenTTL: ttl}, nil
}

// Inference backends.
const (
	BackendHuggingFace = "huggingface"
	BackendArk         = "ark"
	BackendOpenAI      = "openai"
	BackendHeuristic   = "heuristic"
)

// InferenceConfig 描述情绪分类模型与回复生成模型。
type InferenceConfig struct {
	BaseURL           string
	Token             string
	EmotionModel      string
	GeneratorModel    string
	Threshold         float64
	Timeout           time.Duration
	ClassifierBackend string
	GeneratorBackend  string
}

func loadInferenceConfig() (InferenceConfig, error) {
	threshold := 0.3
	if override, err := parseOptionalFloatEnv("EMOTION_THRESHOLD"); err != nil {
		return InferenceConfig{}, err
	} else if override != nil {
		if *override < 0 || *override >= 1 {
			return InferenceConfig{}, fmt.Errorf("invalid EMOTION_THRESHOLD value %v: must be in [0, 1)", *override)
		}
		threshold = *override
	}

	timeoutSeconds := 60
	if override, err := parseOptionalIntEnv("INFERENCE_TIMEOUT"); err != nil {
		return InferenceConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	classifier, err := parseBackendEnv("CLASSIFIER_BACKEND", BackendHuggingFace, BackendArk, BackendOpenAI, BackendHeuristic)
	if err != nil {
		return InferenceConfig{}, err
	}
	generator, err := parseBackendEnv("GENERATOR_BACKEND", BackendHuggingFace, BackendArk, BackendOpenAI)
	if err != nil {
		return InferenceConfig{}, err
	}

	return InferenceConfig{
		BaseURL:           getEnvOrDefault("HF_BASE_URL", "https://api-inference.huggingface.co/models"),
		Token:             strings.TrimSpace(os.Getenv("HF_API_TOKEN")),
		EmotionModel:      getEnvOrDefault("EMOTION_MODEL", "j-hartmann/emotion-english-distilroberta-base"),
		GeneratorModel:    getEnvOrDefault("GENERATOR_MODEL", "Bartix84/bart_large_finetuned"),
		Threshold:         threshold,
		Timeout:           time.Duration(timeoutSeconds) * time.Second,
		ClassifierBackend: classifier,
		GeneratorBackend:  generator,
	}, nil
}

// HuggingFaceEnabled 表示是否提供了推理服务令牌。
func (c InferenceConfig) HuggingFaceEnabled() bool {
	return c.Token != ""
}

// AIConfig 描述方舟大模型相关配置。
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// Sampling 是创建模型实例时固定的采样参数。
type Sampling struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context, sampling *Sampling) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	}
	if sampling != nil {
		temperature := sampling.Temperature
		topP := sampling.TopP
		maxTokens := sampling.MaxTokens
		cfg.Temperature = &temperature
		cfg.TopP = &topP
		cfg.MaxTokens = &maxTokens
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("Model")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}
}

// OpenAIConfig 描述 OpenAI 兼容接口配置。
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled 表示是否提供了 API Key。
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4.1-mini"),
		BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseBackendEnv 返回空字符串表示未指定，由调用方按可用凭证决定。
func parseBackendEnv(key string, allowed ...string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return "", nil
	}
	for _, candidate := range allowed {
		if raw == candidate {
			return raw, nil
		}
	}
	return "", fmt.Errorf("invalid %s value %q: expected one of %s", key, raw, strings.Join(allowed, ", "))
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

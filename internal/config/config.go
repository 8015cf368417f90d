package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/api/option"
)

// defaultTemperature is the sampling temperature the assistant was tuned
// with.
const defaultTemperature = 0.7

// Config aggregates every runtime setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Firebase FirebaseConfig
	Tunnel   TunnelConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Firebase: loadFirebaseConfig(),
		Tunnel:   loadTunnelConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8501"
	}

	if strings.Contains(port, ":") {
		// Allow ":8501" or "127.0.0.1:8501" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the completion model.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature float64
	MaxTokens   *int
}

// Enabled reports whether the completion credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds the model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("completion credentials missing: set ARK_API_KEY and ARK_MODEL")
	}

	temperature := float32(c.Temperature)

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	sampling := defaultTemperature
	if temperature != nil {
		sampling = *temperature
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: sampling,
		MaxTokens:   maxTokens,
	}, nil
}

// FirebaseConfig points at the identity provider credential file.
type FirebaseConfig struct {
	CredentialsFile string
	ProjectID       string
}

// Enabled reports whether a credential file was supplied.
func (c FirebaseConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

// NewApp initializes the Firebase app from the credential file.
func (c FirebaseConfig) NewApp(ctx context.Context) (*firebase.App, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("identity credentials missing: set FIREBASE_CREDENTIALS_FILE")
	}

	var fbCfg *firebase.Config
	if c.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: c.ProjectID}
	}

	return firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(c.CredentialsFile))
}

func loadFirebaseConfig() FirebaseConfig {
	return FirebaseConfig{
		CredentialsFile: strings.TrimSpace(os.Getenv("FIREBASE_CREDENTIALS_FILE")),
		ProjectID:       strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),
	}
}

// TunnelConfig holds the public-exposure authtoken.
type TunnelConfig struct {
	Authtoken string
}

// Enabled reports whether the tunnel should be opened.
func (c TunnelConfig) Enabled() bool {
	return c.Authtoken != ""
}

func loadTunnelConfig() TunnelConfig {
	return TunnelConfig{Authtoken: strings.TrimSpace(os.Getenv("NGROK_AUTHTOKEN"))}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

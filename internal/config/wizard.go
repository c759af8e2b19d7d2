package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to smesearch! Let's connect to your document store.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Upstream API endpoint.
	upstreamPrompt := promptui.Prompt{
		Label:    "Upstream API URL (e.g. https://sme.example.com/api/)",
		Validate: absoluteURL,
	}
	baseURL, err := upstreamPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	cfg.Upstream.BaseURL = strings.TrimSpace(baseURL)

	// 2. Request timeout.
	timeoutPrompt := promptui.Prompt{
		Label:   "Upstream request timeout",
		Default: cfg.Upstream.RequestTimeout.String(),
		Validate: func(s string) error {
			d, err := time.ParseDuration(s)
			if err == nil && d <= 0 {
				return fmt.Errorf("timeout must be positive")
			}
			return err
		},
	}
	timeoutStr, err := timeoutPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("request timeout: %w", err)
	}
	cfg.Upstream.RequestTimeout, _ = time.ParseDuration(timeoutStr)

	// 3. Token generator, optional.
	tokenPrompt := promptui.Prompt{
		Label:   "Token generator URL (leave blank if clients send tokens)",
		Default: "",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			return absoluteURL(s)
		},
	}
	tokenURL, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("token generator: %w", err)
	}
	if tokenURL = strings.TrimSpace(tokenURL); tokenURL != "" {
		cfg.TokenGenerator.BaseURL = tokenURL
		pathPrompt := promptui.Prompt{
			Label:   "Token generator path (the username is appended)",
			Default: "/token/",
		}
		cfg.TokenGenerator.Path, err = pathPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("token generator path: %w", err)
		}
	}

	// 4. Metadata name cache backend.
	backendPrompt := promptui.Select{
		Label: "Metadata name cache",
		Items: []string{
			"memory - per process",
			"redis  - shared between instances",
		},
	}
	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("name cache selection: %w", err)
	}
	if backendIdx == 1 {
		cfg.MetadataNames.Backend = NamesRedis
		redisPrompt := promptui.Prompt{
			Label:   "Redis URL",
			Default: "redis://localhost:6379/0",
		}
		cfg.MetadataNames.RedisURL, err = redisPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
	}

	// 5. Listen address.
	addrPrompt := promptui.Prompt{
		Label:   "Listen address",
		Default: cfg.Server.Addr,
	}
	cfg.Server.Addr, err = addrPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen address: %w", err)
	}

	// 6. CORS origins.
	originsPrompt := promptui.Prompt{
		Label:   "Allowed origins (comma-separated)",
		Default: strings.Join(cfg.Server.AllowedOrigins, ","),
	}
	originsStr, err := originsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed origins: %w", err)
	}
	cfg.Server.AllowedOrigins = splitAndTrim(originsStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

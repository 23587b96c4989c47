package mindflow

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for a mindflow site, aggregated from environment
// variables and an optional config file. It is built once in main and passed
// to constructors; nothing reads the environment after startup.
type Config struct {
	Site struct {
		Name        string
		URL         string
		Description string
	}
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret    string
		TokenTTL     time.Duration // 0 means tokens never expire
		CookieSecure bool
	}
	Uploads struct {
		Dir          string // filesystem directory for uploaded images
		DefaultImage string // placeholder used when a post has no image
	}
}

// LoadConfig reads configuration from environment variables (MINDFLOW_ prefix),
// an optional config.yaml in the working directory, and a .env file.
func LoadConfig() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("MINDFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("site.name", "DailyMindflow")
	v.SetDefault("site.url", "http://localhost:5000")
	v.SetDefault("site.description", "A Premium Blog")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("database.path", "data/blog.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", time.Duration(0))
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("uploads.dir", "public/uploads")
	v.SetDefault("uploads.defaultimage", "/images/default-post.jpg")

	// Legacy unprefixed names still work for deployments that export them.
	_ = v.BindEnv("auth.jwtsecret", "MINDFLOW_AUTH_JWTSECRET", "JWT_SECRET")
	if port := os.Getenv("PORT"); port != "" {
		v.SetDefault("server.addr", ":"+port)
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	return nil
}

// loadDotEnv applies KEY=VALUE lines from a .env file in the working
// directory without overriding variables already set in the environment.
func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}

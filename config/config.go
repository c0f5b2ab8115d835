package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvListen         = "GALLERY_LISTEN"
	EnvLogLevel       = "GALLERY_LOG_LEVEL"
	EnvSeedSamples    = "GALLERY_SEED_SAMPLES"
	EnvAllowedOrigins = "GALLERY_ALLOWED_ORIGINS"
	EnvJWTSecret      = "GALLERY_JWT_SECRET"
)

// Config holds the server settings. Flags win over environment variables,
// which win over values loaded from a .env file.
type Config struct {
	ListenAddr     string
	LogLevel       logrus.Level
	SeedSamples    bool
	AllowedOrigins []string
	JWTSecret      string

	// IssueTokenFor, when set, asks the binary to print a curator token for
	// this subject and exit instead of serving.
	IssueTokenFor string
}

// LoadDotEnv loads variables from the given files into the process
// environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Info("No .env file found")
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load parses args (without the program name) on top of the environment.
func Load(args []string) (Config, error) {
	seedDefault := true
	if v, ok := os.LookupEnv(EnvSeedSamples); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvSeedSamples, v, err)
		}
		seedDefault = parsed
	}

	fset := flag.NewFlagSet("gallery-server", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	listen := fset.String("listen", envOr(EnvListen, ":3002"), "Set the server listen address")
	logLevel := fset.String("loglevel", envOr(EnvLogLevel, "info"), "Set the logging level: debug, info, warn, error, fatal, panic")
	seed := fset.Bool("seed", seedDefault, "Populate an empty gallery with sample pictures on start")
	origins := fset.String("origins", envOr(EnvAllowedOrigins, ""), "Comma separated list of extra allowed CORS origins")
	secret := fset.String("jwt-secret", envOr(EnvJWTSecret, ""), "HMAC secret guarding mutating routes; empty disables auth")
	issue := fset.String("issue-token", "", "Print a curator token for the given subject and exit")

	if err := fset.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := Config{
		ListenAddr:     *listen,
		LogLevel:       level,
		SeedSamples:    *seed,
		AllowedOrigins: splitList(*origins),
		JWTSecret:      *secret,
		IssueTokenFor:  strings.TrimSpace(*issue),
	}

	if cfg.IssueTokenFor != "" && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("-issue-token requires a JWT secret")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

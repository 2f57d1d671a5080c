package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./content-hook.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WebhookSecret   string `long:"webhook-secret" env:"WEBHOOK_SECRET" description:"Shared secret for webhook signature verification (unset disables enforcement)"`
	RateLimitWindow int    `long:"rate-limit-window" env:"RATE_LIMIT_WINDOW" default:"60" description:"Rate limit window in seconds"`
	RateLimitQuota  int    `long:"rate-limit-quota" env:"RATE_LIMIT_QUOTA" default:"60" description:"Maximum webhook requests per source IP per window"`
	ModerationDelay int    `long:"moderation-delay" env:"MODERATION_DELAY" default:"2" description:"Simulated moderation latency in seconds"`
	PublishDelay    int    `long:"publish-delay" env:"PUBLISH_DELAY" default:"3" description:"Simulated publish latency in seconds"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for content processing"`
	SweepInterval   int    `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"30" description:"Interval in seconds between sweeps for stuck records"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		Port:            raw.Port,
		WebhookSecret:   raw.WebhookSecret,
		RateLimitWindow: raw.RateLimitWindow,
		RateLimitQuota:  raw.RateLimitQuota,
		ModerationDelay: raw.ModerationDelay,
		PublishDelay:    raw.PublishDelay,
		WorkerCount:     raw.WorkerCount,
		SweepInterval:   raw.SweepInterval,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

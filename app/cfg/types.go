package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port            string
	WebhookSecret   string
	RateLimitWindow int
	RateLimitQuota  int
	ModerationDelay int
	PublishDelay    int
	WorkerCount     int
	SweepInterval   int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// SignatureEnforced reports whether webhook signature verification is
// active. When no secret is configured the service accepts unsigned
// requests; main logs a loud warning about this at startup.
func (c *Cfg) SignatureEnforced() bool {
	return c.WebhookSecret != ""
}

package browser

import (
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultUserAgent is the identifying header presented to the portal.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/115.0 Safari/537.36"

// Config holds the launch options for a browser session
type Config struct {
	WindowWidth   int
	WindowHeight  int
	UserAgent     string
	Headless      bool
	NoSandbox     bool
	DisableDevShm bool
	ExecPath      string

	// MaxSessions caps how many browser processes may be live at once.
	MaxSessions int

	PollInterval    time.Duration
	PageLoadTimeout time.Duration
	ActionTimeout   time.Duration
	// LaunchTimeout bounds waiting for a free slot plus starting the browser.
	LaunchTimeout time.Duration
}

// DefaultConfig returns the fixed fingerprint the portal is known to accept.
func DefaultConfig() Config {
	return Config{
		WindowWidth:     1920,
		WindowHeight:    1080,
		UserAgent:       DefaultUserAgent,
		Headless:        true,
		NoSandbox:       true,
		DisableDevShm:   true,
		MaxSessions:     3,
		PollInterval:    250 * time.Millisecond,
		PageLoadTimeout: 30 * time.Second,
		ActionTimeout:   10 * time.Second,
		LaunchTimeout:   30 * time.Second,
	}
}

// allocatorOptions translates the config into chromedp exec allocator flags
func (c Config) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(c.WindowWidth, c.WindowHeight),
		chromedp.UserAgent(c.UserAgent),
	}

	if c.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if c.DisableDevShm {
		opts = append(opts, chromedp.Flag("disable-dev-shm-usage", true))
	}
	if c.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	return opts
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		c.WindowWidth, c.WindowHeight = def.WindowWidth, def.WindowHeight
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = def.MaxSessions
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = def.PageLoadTimeout
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = def.ActionTimeout
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = def.LaunchTimeout
	}
	return c
}

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	Origin           string
	StartPath        string
	MaxPages         int // 0 means follow next links until the last page
	Delay            time.Duration
	Timeout          time.Duration // 0 means no request timeout
	VisitedCacheSize int
	OutputFile       string
	OutputFormat     string // csv, json, or dual
	UserAgent        string
	Verbose          bool
	RespectRobotsTxt bool
	MetricsAddr      string
}

// DefaultConfig returns the fixed settings for the laptop catalog.
func DefaultConfig() *Config {
	return &Config{
		Origin:           "https://webscraper.io",
		StartPath:        "/test-sites/e-commerce/static/computers/laptops",
		MaxPages:         0,
		Delay:            0,
		Timeout:          0,
		VisitedCacheSize: 1024,
		OutputFile:       "laptops.csv",
		OutputFormat:     "csv",
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
		MetricsAddr:      "",
	}
}

// OriginURL parses the site origin that relative links resolve against.
func (c *Config) OriginURL() (*url.URL, error) {
	if c.Origin == "" {
		return nil, fmt.Errorf("origin URL cannot be empty")
	}
	parsed, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("origin URL must use http or https")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("origin URL must include a host")
	}
	return parsed, nil
}

// StartURL joins the origin and the start path.
func (c *Config) StartURL() (string, error) {
	origin, err := c.OriginURL()
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(c.StartPath)
	if err != nil {
		return "", fmt.Errorf("invalid start path: %w", err)
	}
	return origin.ResolveReference(ref).String(), nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if _, err := c.StartURL(); err != nil {
		return err
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.VisitedCacheSize <= 0 {
		return fmt.Errorf("visited cache size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

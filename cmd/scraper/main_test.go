package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-laptops/models"
)

func TestBuildConfigFromFlags(t *testing.T) {
	cfg := buildConfigFromFlags("http://example.test", "/laptops", 3, 250, 1500, 64, true, "out/laptops.csv", "DUAL", true, ":9090")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate, got %v", err)
	}
	if cfg.Delay != 250*time.Millisecond || cfg.Timeout != 1500*time.Millisecond {
		t.Fatalf("delay=%v timeout=%v", cfg.Delay, cfg.Timeout)
	}
	if cfg.OutputFormat != "dual" {
		t.Fatalf("format=%q, want dual", cfg.OutputFormat)
	}
	if !cfg.RespectRobotsTxt || cfg.MaxPages != 3 || cfg.VisitedCacheSize != 64 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2020, 8, 17, 23, 18, 0, 0, time.UTC)
	result := &models.ScraperResult{
		StartTime:    start,
		EndTime:      start.Add(2 * time.Second),
		ItemCount:    117,
		RequestCount: 20,
		PageCount:    20,
	}

	var out bytes.Buffer
	printSummary(&out, result, "laptops.csv")

	for _, want := range []string{"Total items:   117", "Pages:         20", "Items/sec:     58.50", "Output file:   laptops.csv"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

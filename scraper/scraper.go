// Package scraper walks the paginated laptop listing one page at a time.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-laptops/config"
	"github.com/aluiziolira/go-scrape-laptops/models"
	"github.com/aluiziolira/go-scrape-laptops/parser"
	"github.com/aluiziolira/go-scrape-laptops/pipeline"
)

// Scraper wraps a synchronous colly collector. Pages are fetched strictly in
// sequence; a page's items are added before its next link is followed.
type Scraper struct {
	cfg       *config.Config
	origin    *url.URL
	collector *colly.Collector
	limiter   *rate.Limiter
	visited   *lru.Cache[string, struct{}]
	Metrics   *Metrics

	// page is the listing currently being fetched; handlers write into it.
	page *pageState

	requestCount int
	pageCount    int
	itemCount    int

	handlersOnce sync.Once
}

type pageState struct {
	url        string
	collection *pipeline.Collection

	items    int
	next     string
	err      error
	failure  *TransportError
	finished bool
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	origin, err := cfg.OriginURL()
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(origin.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        1,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	visited, err := lru.New[string, struct{}](cfg.VisitedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("visited cache: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		origin:    origin,
		collector: collector,
		limiter:   rate.NewLimiter(limit, 1),
		visited:   visited,
		Metrics:   NewMetrics(),
	}, nil
}

// Run follows next-page links from the configured start URL until a page has
// none, adding every extracted laptop to collection in page then document
// order. The first transport or extraction failure ends the run; records
// gathered before it stay in collection but the caller is expected to
// discard them.
func (s *Scraper) Run(ctx context.Context, collection *pipeline.Collection) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if collection == nil {
		collection = pipeline.NewCollection(nil)
	}
	s.configureHandlers()

	next, err := s.cfg.StartURL()
	if err != nil {
		return nil, fmt.Errorf("start url: %w", err)
	}

	start := time.Now()
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(fmt.Errorf("crawl interrupted: %w", err))
		}
		if s.cfg.MaxPages > 0 && s.pageCount >= s.cfg.MaxPages {
			slog.Info("page limit reached",
				slog.Int("pages", s.pageCount),
				slog.String("skipped_url", next),
			)
			break
		}
		if seen, _ := s.visited.ContainsOrAdd(next, struct{}{}); seen {
			return nil, s.fail(fmt.Errorf("%w: %s", ErrPaginationCycle, next))
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.fail(fmt.Errorf("wait before %s: %w", next, err))
		}

		page, err := s.fetchPage(next, collection)
		if err != nil {
			return nil, s.fail(err)
		}
		next = page.next
	}

	return &models.ScraperResult{
		StartTime:    start,
		EndTime:      time.Now(),
		ItemCount:    s.itemCount,
		RequestCount: s.requestCount,
		PageCount:    s.pageCount,
	}, nil
}

func (s *Scraper) fetchPage(pageURL string, collection *pipeline.Collection) (*pageState, error) {
	page := &pageState{url: pageURL, collection: collection}
	s.page = page
	defer func() { s.page = nil }()

	visitErr := s.collector.Visit(pageURL)
	if page.err != nil {
		return nil, page.err
	}
	if visitErr != nil {
		if page.failure != nil {
			return nil, page.failure
		}
		return nil, classifyError(pageURL, visitErr, 0)
	}

	s.pageCount++
	s.Metrics.IncPages()
	slog.Debug("page parsed",
		slog.String("url", pageURL),
		slog.Int("items", page.items),
		slog.String("next", page.next),
	)
	return page, nil
}

func (s *Scraper) fail(err error) error {
	s.Metrics.IncError(ErrorLabel(err))
	return err
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			s.requestCount++
			s.Metrics.IncRequest("started")
			slog.Debug("fetching page", slog.String("url", r.URL.String()))
		})

		s.collector.OnResponse(func(r *colly.Response) {
			s.Metrics.IncRequest("completed")
			// colly only runs OnHTML for responses labelled as HTML; listing
			// pages are parsed as HTML whatever the server sends.
			if r.Headers != nil && !strings.Contains(strings.ToLower(r.Headers.Get("Content-Type")), "html") {
				r.Headers.Set("Content-Type", "text/html; charset=utf-8")
			}
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			pageURL := ""
			if r != nil {
				statusCode = r.StatusCode
				if r.Request != nil && r.Request.URL != nil {
					pageURL = r.Request.URL.String()
				}
			}
			if s.page == nil {
				return
			}
			if pageURL == "" {
				pageURL = s.page.url
			}
			s.page.failure = classifyError(pageURL, err, statusCode)
		})

		s.collector.OnHTML(parser.ItemSelector, func(e *colly.HTMLElement) {
			page := s.page
			if page == nil || page.err != nil {
				return
			}
			laptop, err := parser.ExtractLaptop(e.DOM)
			if err != nil {
				page.err = fmt.Errorf("item %d on %s: %w", page.items+1, page.url, err)
				return
			}
			if err := page.collection.Add(laptop); err != nil {
				page.err = err
				return
			}
			page.items++
			s.itemCount++
			s.Metrics.IncItems()
		})

		// Registered after the item handler so a page's items are collected
		// before its next link is looked at.
		s.collector.OnHTML("html", func(e *colly.HTMLElement) {
			page := s.page
			if page == nil || page.err != nil || page.finished {
				return
			}
			page.finished = true

			href, found, err := parser.NextPageHref(e.DOM)
			if err != nil {
				page.err = fmt.Errorf("%s: %w", page.url, err)
				return
			}
			if !found {
				return
			}
			next, err := s.resolve(href)
			if err != nil {
				page.err = fmt.Errorf("%s: next page href %q: %w", page.url, href, err)
				return
			}
			page.next = next
		})
	})
}

// resolve turns a next-page href into an absolute URL on the configured origin.
func (s *Scraper) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return s.origin.ResolveReference(ref).String(), nil
}

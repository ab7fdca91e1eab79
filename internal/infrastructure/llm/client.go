package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/infrastructure/parser"
	"PoliticianEvaluator/internal/ports"
)

// Options carries settings shared by every collector client.
type Options struct {
	RatingScale     int
	OfficialDomains []string
	Cache           ports.ResponseCache
	Logger          *slog.Logger
	HTTPClient      *http.Client
	Now             func() time.Time
	NewID           func() string
}

// Client implements ports.Collector for one configured provider.
type Client struct {
	name        string
	provider    string
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	targetItems int

	ratingScale     int
	officialDomains []string

	http     *http.Client
	limiter  *rate.Limiter
	cache    ports.ResponseCache
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	complete func(ctx context.Context, system, user string) (string, error)
}

var _ ports.Collector = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.CollectorConfig, opts Options) (*Client, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Model == "" {
		return nil, fmt.Errorf("collector %s misconfigured", cfg.Name)
	}

	c := &Client{
		name:            cfg.Name,
		provider:        cfg.Provider,
		endpoint:        cfg.Endpoint,
		model:           cfg.Model,
		apiKey:          cfg.APIKey,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		targetItems:     cfg.TargetItems,
		ratingScale:     opts.RatingScale,
		officialDomains: opts.OfficialDomains,
		http:            opts.HTTPClient,
		limiter:         newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:           opts.Cache,
		logger:          opts.Logger,
		now:             opts.Now,
		newID:           opts.NewID,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		c.complete = c.completeOpenAI
	case config.ProviderAnthropic:
		c.complete = c.completeAnthropic
	case config.ProviderGemini:
		c.complete = c.completeGemini
	default:
		return nil, fmt.Errorf("collector %s: unknown provider %q", cfg.Name, cfg.Provider)
	}

	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 4096
	}
	if c.ratingScale <= 0 {
		c.ratingScale = 10
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}

	return c, nil
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Name identifies the collector in items and logs.
func (c *Client) Name() string {
	return c.name
}

// Collect asks the provider for rated findings about one category.
func (c *Client) Collect(ctx context.Context, req ports.CollectRequest) ([]domain.CollectedItem, error) {
	if c.targetItems > 0 {
		req.TargetItems = c.targetItems
	}
	system := SystemPrompt(c.ratingScale)
	user := UserPrompt(req)
	key := CacheKey(c.name, c.model, req.Category.ID, req.Subject.PoliticianID, system+"\n"+user)

	text, hit := c.lookup(ctx, key)
	if !hit {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.ProviderError{Provider: c.name, Message: "rate limit wait: " + err.Error(), Timeout: true, Err: err}
		}
		var err error
		if text, err = c.complete(ctx, system, user); err != nil {
			return nil, err
		}
	}

	parsed, err := parser.ParseItems(text, parser.ItemOptions{
		Provider:        c.name,
		PoliticianID:    req.Subject.PoliticianID,
		Category:        req.Category.ID,
		RatingScale:     c.ratingScale,
		OfficialDomains: c.officialDomains,
		Now:             c.now(),
		NewID:           c.newID,
	})
	if err != nil {
		return nil, err
	}
	for _, rejected := range parsed.Rejected {
		c.logger.Debug("item rejected", "collector", c.name, "category", req.Category.ID, "reason", rejected)
	}

	if !hit && c.cache != nil {
		if err := c.cache.Set(ctx, key, text); err != nil {
			c.logger.Warn("cache store failed", "collector", c.name, "error", err)
		}
	}

	c.logger.Debug("collected", "collector", c.name, "provider", c.provider, "category", req.Category.ID,
		"items", len(parsed.Items), "rejected", len(parsed.Rejected), "cached", hit)
	return parsed.Items, nil
}

func (c *Client) lookup(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	text, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "collector", c.name, "error", err)
		return "", false
	}
	return text, ok
}

// CacheKey hashes everything that determines a provider answer.
func CacheKey(collector, model string, category int, politicianID, prompt string) string {
	h := sha256.New()
	for _, part := range []string{collector, model, strconv.Itoa(category), politicianID, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SystemPrompt fixes the JSON answer contract shared by all providers.
func SystemPrompt(scale int) string {
	return fmt.Sprintf(`You are a research assistant evaluating politicians from verifiable public records and reporting.
Answer with JSON only, no prose, in exactly this shape:
{"items": [{"title": string, "content": string, "source": string, "url": string, "data_type": "official" | "public", "rating": integer 0-%d, "reliability": number 0-1}]}
Use "official" for government, parliament, court or election-commission records and "public" for news, interviews and other media.
Rating %d means strongly positive evidence for the category, 0 strongly negative.
Reliability reflects how trustworthy and verifiable the source is.
If nothing is found, answer {"items": []}.`, scale, scale)
}

// UserPrompt renders the category request.
func UserPrompt(req ports.CollectRequest) string {
	target := req.TargetItems
	if target <= 0 {
		target = 10
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Instructions))
	fmt.Fprintf(&b, "\nCollect up to %d distinct findings about %s (id %s) for this category.",
		target, req.Subject.PoliticianName, req.Subject.PoliticianID)
	fmt.Fprintf(&b, "\nAim for a mix of official and public sources; at least %d should be official records when they exist.",
		int(math.Ceil(float64(target)/2)))
	return b.String()
}

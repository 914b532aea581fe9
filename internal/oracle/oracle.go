// Package oracle implements the provider version oracle against the
// public Terraform registry. It owns everything the core deliberately
// does not: HTTP access, response caching, and retry with backoff.
package oracle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	goversion "github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/safety"
)

const (
	defaultBaseURL   = "https://registry.terraform.io"
	defaultNamespace = "hashicorp"
	defaultRetries   = 3
	defaultBackoff   = 500 * time.Millisecond
)

// Client answers version-constraint queries from the registry's published
// release lists. Responses are cached per provider for the lifetime of
// the client; a run queries each provider at most once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	namespace  string
	retries    int
	backoff    time.Duration
	logger     *logrus.Logger

	mu    sync.Mutex
	cache map[string][]*goversion.Version
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different registry endpoint,
// primarily for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithLogger routes debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetries overrides the retry count and backoff between attempts.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.backoff = backoff
	}
}

// New builds a registry-backed oracle.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: cleanhttp.DefaultClient(),
		baseURL:    defaultBaseURL,
		namespace:  defaultNamespace,
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		logger:     logrus.StandardLogger(),
		cache:      make(map[string][]*goversion.Version),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsVersionValid classifies a declared constraint against the provider's
// release history. Network failures surface as VerdictUnresolvable; the
// caller downgrades that to a warning rather than failing the run.
func (c *Client) IsVersionValid(provider, declaredConstraint string) (safety.Verdict, error) {
	constraint, err := goversion.NewConstraint(declaredConstraint)
	if err != nil {
		return safety.VerdictUnresolvable, fmt.Errorf("invalid constraint %q: %w", declaredConstraint, err)
	}

	versions, err := c.versions(provider)
	if err != nil {
		return safety.VerdictUnresolvable, err
	}
	if len(versions) == 0 {
		return safety.VerdictUnresolvable, fmt.Errorf("no published versions for provider %s", provider)
	}

	matching := 0
	for _, v := range versions {
		if constraint.Check(v) {
			matching++
		}
	}
	switch {
	case matching == 0:
		return safety.VerdictTooRestrictive, nil
	case constraint.Check(versions[0]) && constraint.Check(versions[len(versions)-1]):
		// Admitting both the oldest and the newest release means the
		// constraint does not actually constrain anything.
		return safety.VerdictTooPermissive, nil
	default:
		return safety.VerdictValid, nil
	}
}

type versionsResponse struct {
	Versions []struct {
		Version string `json:"version"`
	} `json:"versions"`
}

func (c *Client) versions(provider string) ([]*goversion.Version, error) {
	c.mu.Lock()
	cached, ok := c.cache[provider]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/v1/providers/%s/%s/versions", c.baseURL, c.namespace, provider)

	var resp versionsResponse
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.backoff * time.Duration(attempt))
		}
		lastErr = c.fetch(url, &resp)
		if lastErr == nil {
			break
		}
		c.logger.Debugf("registry request failed (attempt %d/%d): %v", attempt+1, c.retries+1, lastErr)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to fetch versions for provider %s: %w", provider, lastErr)
	}

	versions := make([]*goversion.Version, 0, len(resp.Versions))
	for _, entry := range resp.Versions {
		v, err := goversion.NewVersion(entry.Version)
		if err != nil {
			continue // ignore unparsable releases
		}
		versions = append(versions, v)
	}
	sort.Sort(goversion.Collection(versions))

	c.mu.Lock()
	c.cache[provider] = versions
	c.mu.Unlock()
	return versions, nil
}

func (c *Client) fetch(url string, out any) error {
	resp, err := c.httpClient.Get(url) //nolint:gosec // URL is built from constants
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

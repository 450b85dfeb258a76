package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/logger"
)

const (
	// DefaultUpdateURL points at the latest GitHub release of mimic.
	DefaultUpdateURL = "https://api.github.com/repos/mimic-ai/mimic/releases/latest"
	// DefaultUpdateTTL is how long a check result is reused.
	DefaultUpdateTTL = time.Hour

	defaultTimeout  = 5 * time.Second
	defaultAttempts = 3
	maxBodyBytes    = 1 << 20
)

// UpdateInfo is the result of an update check. Latest is empty when the
// remote lookup failed.
type UpdateInfo struct {
	Current         string `json:"current"`
	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

// Notice is the text appended to composed prompts when a newer release
// exists. It is empty otherwise.
func (u UpdateInfo) Notice() string {
	if !u.UpdateAvailable {
		return ""
	}
	return fmt.Sprintf("\n\n---\n> Update available: mimic v%s (current: v%s)", u.Latest, u.Current)
}

// Checker looks up the latest published version and caches the answer.
type Checker struct {
	url      string
	ttl      time.Duration
	current  string
	client   *http.Client
	attempts uint
	delay    time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cached    *UpdateInfo
	checkedAt time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithURL sets the endpoint queried for the latest version.
func WithURL(url string) CheckerOption {
	return func(c *Checker) {
		if url != "" {
			c.url = url
		}
	}
}

// WithTTL sets how long a result is cached.
func WithTTL(ttl time.Duration) CheckerOption {
	return func(c *Checker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithHTTPClient replaces the HTTP client used for lookups.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithCurrentVersion overrides the running version, mostly for tests.
func WithCurrentVersion(v string) CheckerOption {
	return func(c *Checker) {
		c.current = v
	}
}

// WithRetry sets the number of attempts and the delay between them.
func WithRetry(attempts uint, delay time.Duration) CheckerOption {
	return func(c *Checker) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

// NewChecker creates a Checker for the running binary.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		url:      DefaultUpdateURL,
		ttl:      DefaultUpdateTTL,
		current:  strings.TrimPrefix(Version, "v"),
		client:   &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    500 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cached returns the last result while it is younger than the TTL.
func (c *Checker) Cached() (UpdateInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedLocked()
}

func (c *Checker) cachedLocked() (UpdateInfo, bool) {
	if c.cached == nil || c.now().Sub(c.checkedAt) >= c.ttl {
		return UpdateInfo{}, false
	}
	return *c.cached, true
}

// Check returns the cached result or queries the remote endpoint. A failed
// lookup is not an error: it yields an UpdateInfo with no latest version and
// is cached like any other answer. The lookup runs without holding the
// cache lock so Cached never waits on the network.
func (c *Checker) Check(ctx context.Context) UpdateInfo {
	if info, ok := c.Cached(); ok {
		return info
	}

	info := UpdateInfo{Current: c.current}
	latest, err := c.fetch(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("url", c.url).Debug("update check failed")
	} else {
		info.Latest = latest
		info.UpdateAvailable = IsNewer(latest, c.current)
	}

	c.mu.Lock()
	c.cached = &info
	c.checkedAt = c.now()
	c.mu.Unlock()
	return info
}

func (c *Checker) fetch(ctx context.Context) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return c.fetchOnce(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
}

func (c *Checker) fetchOnce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", retry.Unrecoverable(errors.Wrap(err, "failed to create update request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mimic/"+c.current)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to query latest version")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := errors.Errorf("unexpected status %d from update endpoint", resp.StatusCode)
		if resp.StatusCode < 500 {
			return "", retry.Unrecoverable(err)
		}
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.Wrap(err, "failed to read update response")
	}

	latest := parseLatest(body)
	if latest == "" {
		return "", retry.Unrecoverable(errors.New("no version found in update response"))
	}
	return latest, nil
}

// parseLatest accepts either a release document with a tag_name field or a
// plain-text body whose first line is the version.
func parseLatest(body []byte) string {
	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.Unmarshal(body, &release); err == nil {
		return strings.TrimPrefix(strings.TrimSpace(release.TagName), "v")
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	return strings.TrimPrefix(strings.TrimSpace(line), "v")
}

// IsNewer reports whether latest is a higher major.minor.patch than current.
// Unparseable versions are never newer.
func IsNewer(latest, current string) bool {
	l, ok := parseSemver(latest)
	if !ok {
		return false
	}
	c, ok := parseSemver(current)
	if !ok {
		return false
	}
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parseSemver(v string) ([3]int, bool) {
	var out [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

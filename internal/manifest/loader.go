package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/scriptler-dev/scriptler/internal/errors"
)

const loaderName = "manifest"

// DefaultTimeout bounds every manifest fetch. Network operations must never
// wait indefinitely.
const DefaultTimeout = 30 * time.Second

// Loader fetches and parses repository manifests.
// NewLoader should be used to create instances of Loader.
type Loader struct {
	logger hclog.Logger
	client *http.Client
}

// LoaderOption defines a functional option for configuring Loader.
type LoaderOption func(*Loader) error

// WithHTTPClient sets the HTTP client used for remote fetches.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		l.client = client
		return nil
	}
}

// NewLoader creates a manifest loader.
func NewLoader(logger hclog.Logger, opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		logger: logger.Named(loaderName),
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load fetches and parses the manifest at source. A source with an http(s)
// scheme is fetched over the network with a cache-defeating query parameter;
// anything else is treated as a local file path (a 'file://' prefix is
// stripped). Local sources skip the network but follow the same parse and
// validation path, failing with ErrNotFound when the file is missing.
func (l *Loader) Load(ctx context.Context, source string) (*Manifest, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: manifest source cannot be empty", errors.ErrBadRequest)
	}

	if IsRemote(source) {
		return l.loadRemote(ctx, source)
	}
	return l.loadLocal(strings.TrimPrefix(source, "file://"))
}

func (l *Loader) loadRemote(ctx context.Context, source string) (*Manifest, error) {
	busted, err := CacheBust(source, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid manifest URL '%s': %w", errors.ErrBadRequest, source, err)
	}

	l.logger.Debug("Fetching remote manifest", "url", busted)

	body, err := l.fetch(ctx, busted)
	if err != nil {
		return nil, err
	}

	m, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("manifest from '%s': %w", source, err)
	}

	l.logger.Debug("Fetched manifest", "url", source, "format", m.Format(), "scripts", m.Len())
	return m, nil
}

func (l *Loader) loadLocal(path string) (*Manifest, error) {
	l.logger.Debug("Reading local manifest", "path", path)

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: local manifest '%s' does not exist", errors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read local manifest '%s': %w", path, err)
	}

	m, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("manifest from '%s': %w", path, err)
	}
	return m, nil
}

// fetch performs a GET honoring the caller's context, wrapping transport and
// status failures as ErrNetwork.
func (l *Loader) fetch(ctx context.Context, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for '%s': %w", errors.ErrBadRequest, fetchURL, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch '%s': %w", errors.ErrNetwork, fetchURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: non-OK HTTP status from '%s': %d", errors.ErrNetwork, fetchURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body from '%s': %w", errors.ErrNetwork, fetchURL, err)
	}
	return body, nil
}

// Parse decodes manifest bytes in either supported layout and normalizes them
// to a Manifest. Undecodable bytes fail with ErrParse; decodable documents
// violating field or uniqueness invariants fail with ErrValidation. No partial
// manifest is ever returned.
func Parse(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrParse, err)
	}

	switch doc.(type) {
	case []any:
		if err := validateDocument(doc, FormatFlat); err != nil {
			return nil, err
		}

		var entries []ScriptEntry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrParse, err)
		}
		return New(FormatFlat, entries)

	case map[string]any:
		if err := validateDocument(doc, FormatNested); err != nil {
			return nil, err
		}

		var grouped map[string][]ScriptEntry
		if err := yaml.Unmarshal(data, &grouped); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrParse, err)
		}

		// Deterministic order across parses: sorted category keys, entry
		// order preserved within each category.
		categories := make([]string, 0, len(grouped))
		for category := range grouped {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		var entries []ScriptEntry
		for _, category := range categories {
			for _, entry := range grouped[category] {
				if strings.TrimSpace(entry.Category) == "" {
					entry.Category = category
				}
				entries = append(entries, entry)
			}
		}
		return New(FormatNested, entries)

	default:
		return nil, fmt.Errorf("%w: document is neither a sequence nor a category mapping", errors.ErrParse)
	}
}

// IsRemote reports whether a manifest source needs a network fetch.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// CacheBust appends a cache-defeating query parameter to rawURL so
// intermediary caches cannot serve stale bytes. Retries pass a distinct
// attempt ordinal so every attempt looks like a new resource.
func CacheBust(rawURL string, attempt int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("ts", strconv.FormatInt(time.Now().UnixNano(), 10))
	if attempt > 0 {
		q.Set("attempt", strconv.Itoa(attempt))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

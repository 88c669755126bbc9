package cocoapods

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
)

// DefaultURL is the CocoaPods trunk endpoint describing a published podspec version
const DefaultURL = "https://trunk.cocoapods.org/api/v1/pods/{name}/specs/{version}"

// config holds internal index client configuration
type config struct {
	httpClient *http.Client
}

// Option is a functional option for Index configuration
type Option func(*config)

// WithHTTPClient sets the HTTP client used for polling
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

type index struct {
	urlTemplate string
	httpClient  *http.Client
}

// NewIndex creates a PackageIndex that probes urlTemplate.
// {name} and {version} in the template are replaced by the escaped pod name and version.
func NewIndex(urlTemplate string, opts ...Option) interfaces.PackageIndex {
	cfg := &config{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if urlTemplate == "" {
		urlTemplate = DefaultURL
	}

	return &index{
		urlTemplate: urlTemplate,
		httpClient:  cfg.httpClient,
	}
}

// Exists reports true on 200 and false on 404. Other statuses are errors.
func (x *index) Exists(ctx context.Context, name, version string) (bool, error) {
	target := strings.NewReplacer(
		"{name}", url.PathEscape(name),
		"{version}", url.PathEscape(version),
	).Replace(x.urlTemplate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, goerr.Wrap(err, "failed to create index request", goerr.V("url", target))
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return false, goerr.Wrap(err, "failed to query package index", goerr.V("url", target))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ctxlog.From(ctx).Debug("Queried package index", "url", target, "status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, goerr.New("unexpected status from package index",
			goerr.V("url", target),
			goerr.V("status", resp.StatusCode),
		)
	}
}

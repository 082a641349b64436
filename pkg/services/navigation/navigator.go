package navigation

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/de-tools/wasteops/pkg/services/navctx"
)

// Router performs an in-app navigation to an already built URL.
type Router interface {
	Navigate(ctx context.Context, target string) error
}

// Navigator builds URLs that carry the shared context forward so that opening
// them in a new session reproduces the same view.
type Navigator struct {
	context *navctx.Context
	router  Router
	origin  *url.URL
}

func NewNavigator(c *navctx.Context, router Router, origin string) (*Navigator, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid public origin %q: %w", origin, err)
	}
	if origin != "" && (u.Scheme == "" || u.Host == "") {
		return nil, fmt.Errorf("public origin %q must be absolute", origin)
	}
	return &Navigator{context: c, router: router, origin: u}, nil
}

// BuildURL returns path plus the context parameters, with localParams applied
// on top. Local values override context values for this URL only. Empty
// values are omitted.
func (n *Navigator) BuildURL(path string, localParams map[string]string) string {
	params := n.context.Params()
	for key, value := range localParams {
		if strings.TrimSpace(value) != "" {
			params.Set(key, value)
		}
	}

	if qs := params.Encode(); qs != "" {
		return path + "?" + qs
	}
	return path
}

func (n *Navigator) NavigateWithContext(ctx context.Context, path string, localParams map[string]string) error {
	if n.router == nil {
		return fmt.Errorf("navigator has no router")
	}
	return n.router.Navigate(ctx, n.BuildURL(path, localParams))
}

// GenerateShareableURL is BuildURL prefixed with the public origin.
func (n *Navigator) GenerateShareableURL(path string, localParams map[string]string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return n.origin.String() + n.BuildURL(path, localParams)
}

// CallLink returns a tel: URI for phone, or "" when there is nothing to dial.
func CallLink(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if digits == "" {
		return ""
	}
	return "tel:" + b.String()
}

package urlsync

import (
	"net/url"
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/navctx"
)

// Resolve computes the effective parameters of a view for one navigation:
// an explicit URL parameter beats the context value, which beats the view's
// built-in default. Defaults are returned but never written to the context.
func Resolve(query url.Values, snapshot domain.Snapshot, defaults map[string]string, localKeys ...string) map[string]string {
	resolved := map[string]string{}
	fromContext := navctx.SnapshotParams(snapshot)

	keys := append(append([]string{}, navctx.GlobalParams...), localKeys...)
	for _, key := range keys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			resolved[key] = v
			continue
		}
		if v := fromContext.Get(key); v != "" {
			resolved[key] = v
			continue
		}
		if v := defaults[key]; v != "" {
			resolved[key] = v
		}
	}
	return resolved
}

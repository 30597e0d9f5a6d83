package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routePattern returns the matched chi route pattern, such as
// "/v1/trains/{trainId}", falling back to the raw path outside a chi router.
// It must be called after the router has served the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// entityParams maps route parameters to the log and span keys they are
// reported under.
var entityParams = map[string]string{
	"trainId":    "train.id",
	"scheduleId": "schedule.id",
}

// routeEntities returns the train and schedule ids addressed by the matched
// route, keyed by their span attribute names.
func routeEntities(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	var out map[string]string
	for i, key := range rctx.URLParams.Keys {
		attr, ok := entityParams[key]
		if !ok || i >= len(rctx.URLParams.Values) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(entityParams))
		}
		out[attr] = rctx.URLParams.Values[i]
	}
	return out
}

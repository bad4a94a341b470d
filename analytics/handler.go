package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Handler serves the analytics proxy endpoint.
type Handler struct {
	client *Client
	cache  *ResponseCache
	log    logrus.FieldLogger
}

// NewHandler creates a proxy handler. cache may be nil.
func NewHandler(client *Client, cache *ResponseCache, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{client: client, cache: cache, log: log}
}

// RegisterRoutes mounts the proxy at /api/analytics. Every method is routed
// to the handler so that wrong methods get a JSON 405.
func (h *Handler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.Any("/api/analytics", h.Proxy, mw...)
}

// Proxy handles GET /api/analytics?period=&type=.
func (h *Handler) Proxy(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodGet:
	default:
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}

	if !h.client.Configured() {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Vercel API not configured"})
	}

	period := parseProxyPeriod(c.QueryParam("period"))
	typ := c.QueryParam("type")
	if typ == "" {
		typ = "all"
	}

	groups := GroupsFor(typ)
	if groups == nil {
		return c.JSONBlob(http.StatusOK, []byte("{}"))
	}

	key := cacheKey(period, typ)
	if body, ok := h.cache.Get(key); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	res, err := h.client.FetchGroups(c.Request().Context(), period, groups)
	if err != nil {
		h.log.WithError(err).WithField("period", period).Error("analytics proxy failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch analytics"})
	}
	for g, serr := range res.Skipped {
		h.log.WithError(serr).WithField("group", g).Warn("analytics group omitted")
	}

	out := make(map[string]json.RawMessage, len(res.Data))
	for g, raw := range res.Data {
		out[string(g)] = raw
	}
	body, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if len(res.Skipped) == 0 {
		h.cache.Set(key, body)
	}
	return c.JSONBlob(http.StatusOK, body)
}

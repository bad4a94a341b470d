package montaze

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/montaze/inquiry"
)

const (
	defaultInquiryPageSize = 50
	maxInquiryPageSize     = 500
)

// apiCORS sets the permissive CORS headers of the public API and answers
// preflight requests with an empty 200.
func apiCORS(methods, headers string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// handleInquirySubmit serves POST /api/inquiry.
func (a *App) handleInquirySubmit(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return jsonError(c, http.StatusMethodNotAllowed, "Method not allowed")
	}
	if !a.submitLimiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "Příliš mnoho požadavků, zkuste to prosím později")
	}

	var sub inquiry.Submission
	if err := json.NewDecoder(c.Request().Body).Decode(&sub); err != nil {
		return jsonError(c, http.StatusBadRequest, "Neplatný požadavek")
	}
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		var ve *inquiry.ValidationError
		if errors.As(err, &ve) {
			return jsonError(c, http.StatusBadRequest, ve.Message)
		}
		return err
	}

	inq, err := a.Store.Create(c.Request().Context(), sub)
	if err != nil {
		a.Log.WithError(err).Error("save inquiry")
		return jsonError(c, http.StatusInternalServerError, "Chyba při ukládání poptávky")
	}
	a.Log.WithField("id", inq.ID).WithField("service", inq.Service).Info("inquiry received")
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "Poptávka byla úspěšně odeslána"})
}

// requireAPIToken checks the bearer token of the admin API. An empty
// configured token rejects every request.
func (a *App) requireAPIToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return jsonError(c, http.StatusUnauthorized, "Unauthorized")
		}
		want := a.Config.AdminAPIToken
		if want == "" || subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			return jsonError(c, http.StatusUnauthorized, "Invalid token")
		}
		return next(c)
	}
}

// handleInquiries serves GET and PATCH /api/inquiries.
func (a *App) handleInquiries(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return a.listInquiries(c)
	case http.MethodPatch:
		return a.patchInquiry(c)
	}
	return jsonError(c, http.StatusMethodNotAllowed, "Method not allowed")
}

type inquiryList struct {
	Data  []inquiry.Inquiry `json:"data"`
	Count int               `json:"count"`
}

func (a *App) listInquiries(c echo.Context) error {
	opts := inquiry.ListOptions{
		Limit:  queryInt(c, "limit", defaultInquiryPageSize),
		Offset: queryInt(c, "offset", 0),
		Status: inquiry.Status(strings.TrimSpace(c.QueryParam("status"))),
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultInquiryPageSize
	}
	opts.Limit = min(opts.Limit, maxInquiryPageSize)
	opts.Offset = max(opts.Offset, 0)

	items, count, err := a.Store.List(c.Request().Context(), opts)
	if err != nil {
		a.Log.WithError(err).Error("list inquiries")
		return jsonError(c, http.StatusInternalServerError, "Server error")
	}
	if items == nil {
		items = []inquiry.Inquiry{}
	}
	return c.JSON(http.StatusOK, inquiryList{Data: items, Count: count})
}

type statusPatch struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (a *App) patchInquiry(c echo.Context) error {
	var p statusPatch
	if err := json.NewDecoder(c.Request().Body).Decode(&p); err != nil {
		return jsonError(c, http.StatusBadRequest, "Missing id or status")
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Status = strings.TrimSpace(p.Status)
	if p.ID == "" || p.Status == "" {
		return jsonError(c, http.StatusBadRequest, "Missing id or status")
	}
	status := inquiry.Status(p.Status)
	if !status.Valid() {
		return jsonError(c, http.StatusBadRequest, "Invalid status")
	}

	err := a.Store.UpdateStatus(c.Request().Context(), p.ID, status)
	switch {
	case errors.Is(err, inquiry.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "Inquiry not found")
	case err != nil:
		a.Log.WithError(err).WithField("id", p.ID).Error("update inquiry status")
		return jsonError(c, http.StatusInternalServerError, "Server error")
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func queryInt(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// internal/httpapi/handler.go

// Package httpapi serves the variant generator over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/dalemusser/dotmail/internal/httpapi/respond"
	"github.com/dalemusser/dotmail/internal/metrics"
	"github.com/dalemusser/dotmail/internal/text"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Options configures a Handler.
type Options struct {
	Validator    variant.Validator
	MaxVariants  int // ceiling on any single result
	DefaultCount int // used when a request names neither count nor all
	Language     language.Tag
	Logger       *zap.Logger
}

// OptionsFromConfig derives Options from the service config.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) Options {
	return Options{
		Validator:    cfg.Validator(),
		MaxVariants:  cfg.Generator.MaxVariants,
		DefaultCount: cfg.Generator.DefaultCount,
		Language:     language.English,
		Logger:       logger,
	}
}

// Handler implements the /v1 endpoints.
type Handler struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Handler. Zero MaxVariants or DefaultCount fall back to
// 100000 and 100.
func New(opts Options) *Handler {
	if opts.MaxVariants <= 0 {
		opts.MaxVariants = 100000
	}
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = 100
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{opts: opts, logger: logger}
}

// Routes returns the /v1 router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/validate", h.validate)
	r.Post("/validate", h.validate)
	r.Get("/count", h.count)
	r.Post("/count", h.count)
	r.Get("/generate", h.generate)
	r.Post("/generate", h.generate)
	r.Get("/stream", h.stream)
	return r
}

// Request is the input shared by every endpoint. GET requests carry it in
// the query string, POST requests as a JSON body.
type Request struct {
	Email     string `json:"email"`
	Count     *int   `json:"count,omitempty"`
	All       bool   `json:"all,omitempty"`
	Format    string `json:"format,omitempty"`
	Normalize bool   `json:"normalize,omitempty"`
}

// ValidateResponse is returned by /v1/validate.
type ValidateResponse struct {
	Email  string `json:"email"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Tier   string `json:"tier"`
}

// CountResponse is returned by /v1/count.
type CountResponse struct {
	Email        string      `json:"email"`
	Local        string      `json:"local"`
	Domain       string      `json:"domain"`
	Total        json.Number `json:"total"`
	TotalDisplay string      `json:"total_display"`
}

// GenerateResponse is returned by /v1/generate in JSON format.
type GenerateResponse struct {
	Email    string      `json:"email"`
	Total    json.Number `json:"total"`
	Count    int         `json:"count"`
	Variants []string    `json:"variants"`
}

func decodeRequest(r *http.Request) (Request, error) {
	var req Request
	if r.Method == http.MethodPost {
		if err := respond.BindJSON(r, &req); err != nil {
			return req, respond.NewError(http.StatusBadRequest, "invalid_request", err.Error())
		}
	} else {
		q := r.URL.Query()
		req.Email = q.Get("email")
		req.Format = q.Get("format")
		if s := q.Get("count"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return req, respond.NewError(http.StatusBadRequest, "invalid_count", "count must be an integer")
			}
			req.Count = &n
		}
		var err error
		if req.All, err = queryBool(q.Get("all")); err != nil {
			return req, respond.NewError(http.StatusBadRequest, "invalid_request", "all must be a boolean")
		}
		if req.Normalize, err = queryBool(q.Get("normalize")); err != nil {
			return req, respond.NewError(http.StatusBadRequest, "invalid_request", "normalize must be a boolean")
		}
	}
	if req.Normalize {
		req.Email = text.Normalize(req.Email)
	}
	return req, nil
}

func queryBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

// parse validates req.Email at the configured tier.
func (h *Handler) parse(req Request) (variant.Address, error) {
	addr, err := h.opts.Validator.Parse(req.Email)
	if err != nil {
		metrics.Rejected(metrics.ReasonInvalidEmail)
		return addr, respond.NewError(http.StatusUnprocessableEntity, "invalid_email",
			"Invalid format. Expected an address like name@gmail.com").
			WithDetail("reason", variant.Reason(err)).
			Wrap(err)
	}
	return addr, nil
}

// plan resolves the request to an address and a limit, enforcing the
// ceiling on the effective result size. Counts above the total are clamped,
// not rejected.
func (h *Handler) plan(req Request) (variant.Address, variant.Limit, error) {
	addr, err := h.parse(req)
	if err != nil {
		return addr, variant.Limit{}, err
	}

	var limit variant.Limit
	switch {
	case req.All && req.Count != nil:
		metrics.Rejected(metrics.ReasonInvalidCount)
		return addr, limit, respond.NewError(http.StatusBadRequest, "invalid_request",
			"count and all are mutually exclusive")
	case req.All:
		limit = variant.All()
	case req.Count != nil:
		if *req.Count < 1 {
			metrics.Rejected(metrics.ReasonInvalidCount)
			return addr, limit, respond.NewError(http.StatusBadRequest, "invalid_count",
				"count must be at least 1")
		}
		limit = variant.Max(*req.Count)
	default:
		limit = variant.Max(h.opts.DefaultCount)
	}

	// Only totals above the ceiling can produce an oversized result; then the
	// clamped request size decides.
	total := addr.Count()
	if total.Exceeds(h.opts.MaxVariants) && total.Clamp(limit) > h.opts.MaxVariants {
		metrics.Rejected(metrics.ReasonLimitExceeded)
		return addr, limit, respond.NewError(http.StatusUnprocessableEntity, "limit_exceeded",
			"Requested more variants than this service will generate").
			WithDetail("total", json.Number(total.String())).
			WithDetail("max_variants", h.opts.MaxVariants)
	}
	return addr, limit, nil
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	_, perr := h.opts.Validator.Parse(req.Email)
	respond.JSON(w, http.StatusOK, ValidateResponse{
		Email:  req.Email,
		Valid:  perr == nil,
		Reason: variant.Reason(perr),
		Tier:   h.opts.Validator.Tier.String(),
	})
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	addr, err := h.parse(req)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	total := addr.Count()
	respond.JSON(w, http.StatusOK, CountResponse{
		Email:        addr.String(),
		Local:        addr.Local,
		Domain:       addr.Domain,
		Total:        json.Number(total.String()),
		TotalDisplay: text.Total(h.opts.Language, total),
	})
}

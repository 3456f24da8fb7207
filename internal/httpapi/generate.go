// internal/httpapi/generate.go
package httpapi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/dalemusser/dotmail/internal/export"
	"github.com/dalemusser/dotmail/internal/httpapi/respond"
	"github.com/dalemusser/dotmail/internal/metrics"
	"github.com/dalemusser/dotmail/internal/variant"
	"go.uber.org/zap"
)

// streamBatch is how many lines /v1/stream writes between flushes.
const streamBatch = 1000

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respond.Fail(w, err)
		return
	}

	format := export.JSON
	if req.Format != "" {
		if format, err = export.ParseFormat(req.Format); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid_format", err.Error())
			return
		}
	}

	addr, limit, err := h.plan(req)
	if err != nil {
		respond.Fail(w, err)
		return
	}

	total := addr.Count()
	variants := addr.Variants(limit)
	metrics.Generated(len(variants))
	h.logger.Debug("generated variants",
		zap.String("domain", addr.Domain),
		zap.Int("local_len", total.Gaps+1),
		zap.Int("count", len(variants)),
		zap.String("format", string(format)),
	)

	if format == export.JSON {
		respond.JSON(w, http.StatusOK, GenerateResponse{
			Email:    addr.String(),
			Total:    json.Number(total.String()),
			Count:    len(variants),
			Variants: variants,
		})
		return
	}

	w.Header().Set("X-Variant-Total", total.String())
	if err := export.ServeHTTP(w, format, "", slices.Values(variants)); err != nil {
		h.logger.Warn("export write failed", zap.String("format", string(format)), zap.Error(err))
	}
}

// stream writes variants as plain text lines, flushing in batches, until the
// limit is reached or the client goes away.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	addr, limit, err := h.plan(req)
	if err != nil {
		respond.Fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Variant-Total", addr.Count().String())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	rc := http.NewResponseController(w)
	bw := bufio.NewWriter(w)
	n := 0

	for v := range variant.Variants(addr.Local, addr.Domain, limit) {
		if _, err := bw.WriteString(v); err != nil {
			break
		}
		if err := bw.WriteByte('\n'); err != nil {
			break
		}
		n++
		if n%streamBatch == 0 {
			if err := bw.Flush(); err != nil {
				break
			}
			_ = rc.Flush()
			if ctx.Err() != nil {
				h.logger.Debug("stream client went away", zap.Int("written", n))
				break
			}
		}
	}
	_ = bw.Flush()
	metrics.Generated(n)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/admin"
	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/checkout"
	"github.com/eterno/pos-terminal/internal/pos"
	"github.com/eterno/pos-terminal/internal/printer"
	"github.com/eterno/pos-terminal/internal/shopcart"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request to the local API
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ok writes fields with success:true
func ok(w http.ResponseWriter, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["success"] = true
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{"success": false, "error": err.Error()}

	var ve *checkout.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

// statusFor maps an error from any component to an HTTP status
func statusFor(err error) int {
	var (
		re *requestError
		ve *checkout.ValidationError
		pe *admin.PeriodError
		be *backend.Error
	)
	switch {
	case errors.Is(err, pos.ErrSaleInProgress):
		return http.StatusConflict
	case errors.Is(err, pos.ErrStockLimit),
		errors.Is(err, pos.ErrExceedsStock),
		errors.Is(err, pos.ErrOutOfStock),
		errors.Is(err, pos.ErrEmptyCart),
		errors.As(err, &re),
		errors.As(err, &ve),
		errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrNotMutable):
		return http.StatusForbidden
	case errors.Is(err, shopcart.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(err, checkout.ErrQuoteNotFound):
		return http.StatusGone
	case errors.Is(err, printer.ErrPrinterNotFound):
		return http.StatusNotFound
	case errors.As(err, &be):
		if be.Kind != backend.KindTransport && be.Status >= 400 {
			return be.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid id")
	}
	return id, nil
}

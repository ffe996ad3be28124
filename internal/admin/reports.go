package admin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

// Periods the backend keeps report baselines for, in display order.
var Periods = []string{"weekly", "monthly", "yearly"}

// NotResetYet is shown for a period that has never been reset.
const NotResetYet = "Not reset yet"

// ReportBackend is the part of the backend client the reports use
type ReportBackend interface {
	Revenue(ctx context.Context) (backend.Revenue, error)
	ReportCheckpoints(ctx context.Context) (map[string]backend.Checkpoint, error)
	ResetReport(ctx context.Context, period string) (string, error)
	ReportPDF(ctx context.Context, period string) (io.ReadCloser, string, error)
}

// PeriodError is an unknown report period
type PeriodError struct {
	Period string
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("Invalid period %q: must be weekly, monthly or yearly", e.Period)
}

// CheckpointView is one row of the checkpoint table
type CheckpointView struct {
	Period      string `json:"period"`
	Label       string `json:"label"`
	LastResetAt string `json:"last_reset_at"`
	Display     string `json:"display"`
}

// Reports exposes revenue and periodic report baselines
type Reports struct {
	backend ReportBackend
	logger  *zap.Logger
}

// NewReports creates the reports component
func NewReports(b ReportBackend, logger *zap.Logger) *Reports {
	return &Reports{backend: b, logger: logger.Named("reports")}
}

// Revenue returns the revenue breakdown
func (r *Reports) Revenue(ctx context.Context) (backend.Revenue, error) {
	return r.backend.Revenue(ctx)
}

// Checkpoints returns one row per period, filling gaps with NotResetYet
func (r *Reports) Checkpoints(ctx context.Context) ([]CheckpointView, error) {
	cps, err := r.backend.ReportCheckpoints(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CheckpointView, 0, len(Periods))
	for _, p := range Periods {
		v := CheckpointView{Period: p, Label: periodLabel(p), Display: NotResetYet}
		if cp, ok := cps[p]; ok {
			v.LastResetAt = cp.LastResetAt
			switch {
			case cp.LastResetAtDisplay != "":
				v.Display = cp.LastResetAtDisplay
			case cp.LastResetAt != "":
				v.Display = cp.LastResetAt
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Reset moves a period's baseline to now and returns a confirmation
func (r *Reports) Reset(ctx context.Context, period string) (string, error) {
	period, err := validPeriod(period)
	if err != nil {
		return "", err
	}
	msg, err := r.backend.ResetReport(ctx, period)
	if err != nil {
		return "", err
	}
	r.logger.Info("report baseline reset", zap.String("period", period))
	if msg == "" {
		msg = periodLabel(period) + " reports reset."
	}
	return msg, nil
}

// PDF opens a period's report. The caller closes the body.
func (r *Reports) PDF(ctx context.Context, period string) (io.ReadCloser, string, error) {
	period, err := validPeriod(period)
	if err != nil {
		return nil, "", err
	}
	body, ct, err := r.backend.ReportPDF(ctx, period)
	if err != nil {
		return nil, "", err
	}
	if ct == "" {
		ct = "application/pdf"
	}
	return body, ct, nil
}

func validPeriod(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", &PeriodError{Period: p}
}

func periodLabel(p string) string {
	if p == "" {
		return p
	}
	return strings.ToUpper(p[:1]) + p[1:]
}

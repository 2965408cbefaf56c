package app

import (
	"context"
	"time"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/dataset"
	"churndash/internal/errors"
	"churndash/internal/kpi"
	"churndash/internal/metrics"
	"churndash/internal/session"
	"churndash/internal/view"
)

// SelectPrompt is shown above the analytical questions while no view is selected
const SelectPrompt = "Select a dashboard from the menu to get started."

// TableLoader returns the memoized table for a path
type TableLoader interface {
	Load(ctx context.Context, path string) *dataset.LoadResult
}

// ViewPayload is everything the rendering layer needs for one view
type ViewPayload struct {
	Mode        string            `json:"mode"`
	Label       string            `json:"label"`
	DisplayName string            `json:"display_name"`
	Prompt      string            `json:"prompt,omitempty"`
	Status      dashboard.Status  `json:"status"`
	LoadError   string            `json:"load_error,omitempty"`
	Source      string            `json:"source,omitempty"`
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	KPI         *kpi.Report       `json:"kpi,omitempty"`
	Charts      *dashboard.Report `json:"charts,omitempty"`
	RenderedAt  time.Time         `json:"rendered_at"`
}

// DashboardService runs one render pass: load, gate, compute, for the
// selected view only
type DashboardService struct {
	dataFile  string
	loader    TableLoader
	kpi       *kpi.Engine
	analytics ChartSet
	eda       ChartSet
	logger    *internal.Logger
	metrics   *metrics.Recorder
}

// ChartSet computes a chart-based view
type ChartSet interface {
	Compute(ctx context.Context, table *churn.Table) dashboard.Report
}

// NewDashboardService wires the view engines together
func NewDashboardService(dataFile string, loader TableLoader, kpiEngine *kpi.Engine, analytics, eda ChartSet, logger *internal.Logger, recorder *metrics.Recorder) *DashboardService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DashboardService{
		dataFile:  dataFile,
		loader:    loader,
		kpi:       kpiEngine,
		analytics: analytics,
		eda:       eda,
		logger:    logger.Named("dashboard"),
		metrics:   recorder,
	}
}

// Render selects mode on the session and computes its payload. The core is
// never invoked for an unauthenticated session. With no view selected the
// analytical questions are shown under the select prompt.
func (s *DashboardService) Render(ctx context.Context, sess *session.Session, mode view.Mode) (*ViewPayload, error) {
	if sess == nil {
		return nil, errors.Unauthorized("You need to log in")
	}

	sess.Lock()
	defer sess.Unlock()

	if !sess.Authenticated {
		return nil, errors.Unauthorized("You need to log in")
	}
	if !mode.Valid() {
		return nil, errors.InvalidInput("unknown view " + string(mode))
	}

	if sess.Selector.Select(mode) {
		s.logger.Debug("session %s switched to %s", sess.ID, mode)
	}

	payload := &ViewPayload{
		Mode:        mode.String(),
		Label:       mode.Label(),
		DisplayName: sess.DisplayName,
		Status:      dashboard.StatusOK,
		RenderedAt:  time.Now(),
	}
	defer s.metrics.ObserveRender(payload.Mode)

	if mode == view.Unselected {
		payload.Prompt = SelectPrompt
	}

	result := s.table(ctx, sess)
	payload.Source = result.Source
	if result.Err != nil {
		payload.Status = dashboard.StatusError
		payload.LoadError = result.Err.Error()
		if result.Cancelled() {
			return payload, result.Err
		}
		return payload, nil
	}

	table := result.Table
	payload.Rows = table.Len()
	payload.Warnings = table.Warnings()
	for _, c := range table.Columns() {
		payload.Columns = append(payload.Columns, c.String())
	}

	switch mode {
	case view.KPI:
		report := s.kpi.Compute(ctx, table)
		payload.KPI = &report
	case view.Analytics, view.Unselected:
		report := s.analytics.Compute(ctx, table)
		payload.Charts = &report
	case view.EDA:
		report := s.eda.Compute(ctx, table)
		payload.Charts = &report
	}
	return payload, nil
}

// table returns the session's table handle, loading it on first use
func (s *DashboardService) table(ctx context.Context, sess *session.Session) *dataset.LoadResult {
	if sess.Data != nil {
		return sess.Data
	}
	result := s.loader.Load(ctx, s.dataFile)
	if result.Err != nil && !result.Cancelled() {
		s.logger.Error("dataset unavailable for session %s: %v", sess.ID, result.Err)
	}
	if !result.Cancelled() {
		sess.Data = result
	}
	return result
}

package exerciser

import (
	"context"
	"strings"
	"time"

	"crudprobe/internal/config"
	"crudprobe/internal/faults"
	"crudprobe/internal/logging"

	"go.uber.org/zap"
)

// LinkExerciser sweeps the capped simple-route list for page-load health:
// navigate, classify, emit one result per route. Sequential and single-pass.
type LinkExerciser struct {
	driver Driver
	cfg    config.Run
	log    *zap.Logger
}

// NewLinkExerciser returns a link sweeper over the given driver.
func NewLinkExerciser(driver Driver, cfg config.Run) *LinkExerciser {
	return &LinkExerciser{driver: driver, cfg: cfg, log: logging.Get(logging.CategoryLinks)}
}

// Run visits every uri in order, emitting one route_link_test result each.
// Every keep-alive cadence it re-touches the landing page to detect and
// recover from session expiry. Cancellation is honored between routes; the
// in-flight navigation always finishes.
func (e *LinkExerciser) Run(ctx context.Context, uris []string, emit func(TestResult)) {
	base := strings.TrimRight(e.cfg.BaseURL, "/")
	for i, uri := range uris {
		if ctx.Err() != nil {
			e.log.Info("link sweep cancelled", zap.Int("tested", i))
			return
		}
		emit(e.visit(ctx, base, uri))

		if (i+1)%e.cfg.Limits.GetKeepAliveEvery() == 0 {
			if err := e.driver.KeepAlive(ctx); err != nil {
				e.log.Warn("keep-alive failed", zap.Error(err))
			} else {
				e.log.Debug("session keep-alive", zap.Int("tested", i+1))
			}
		}
	}
	e.log.Info("link sweep complete", zap.Int("tested", len(uris)))
}

func (e *LinkExerciser) visit(ctx context.Context, base, uri string) TestResult {
	fullURL := base + "/" + strings.TrimLeft(uri, "/")
	result := TestResult{
		Type:      TypeRouteLink,
		SourceURL: fullURL,
		TargetURL: uri,
		Label:     "Route: " + uri,
		Timestamp: time.Now(),
	}

	started := time.Now()
	err := e.driver.NavigatePath(ctx, uri)
	result.ResponseTime = time.Since(started)
	if err != nil {
		_, msg := faults.Describe(err)
		result.Status = StatusError
		result.ErrorMessage = msg
		e.log.Warn("route failed", zap.String("uri", uri), zap.String("error", msg))
		return result
	}

	time.Sleep(e.cfg.Limits.SettleDelay())

	// Health is judged by the absence of known error markers, not by page
	// content, which varies too widely to assert positively.
	content, err := e.driver.PageContent()
	if err != nil {
		_, msg := faults.Describe(err)
		result.Status = StatusError
		result.ErrorMessage = msg
		return result
	}
	if _, msg, found := faults.InspectPage(content); found {
		result.Status = StatusFail
		result.ErrorMessage = msg
		e.log.Warn("route unhealthy", zap.String("uri", uri), zap.String("error", msg))
		return result
	}
	result.Status = StatusPass
	return result
}

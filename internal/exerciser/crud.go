package exerciser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"crudprobe/internal/config"
	"crudprobe/internal/faults"
	"crudprobe/internal/logging"
	"crudprobe/internal/routes"
	"crudprobe/internal/synth"

	"go.uber.org/zap"
)

// Positive outcome markers scanned in the page after a submission.
var (
	createMarkers = []string{"created", "success", "saved", "added", "successfully"}
	updateMarkers = []string{"updated", "success", "saved", "modified"}
	deleteMarkers = []string{"deleted", "success", "removed", "successfully"}
)

var trailingID = regexp.MustCompile(`/(\d+)/?$`)
var anyPlaceholder = regexp.MustCompile(`\{[^}]+\}`)

// CrudExerciser walks one resource at a time through the full
// create -> read -> update -> delete -> special sequence. A stage failure
// never aborts the remaining stages; only a missing precondition (no record
// identifier recovered from Create) causes later stages to be skipped.
type CrudExerciser struct {
	driver Driver
	synth  *synth.Synthesizer
	cfg    config.Run
	log    *zap.Logger
}

// NewCrudExerciser returns a CRUD exerciser over the given driver.
func NewCrudExerciser(driver Driver, s *synth.Synthesizer, cfg config.Run) *CrudExerciser {
	return &CrudExerciser{driver: driver, synth: s, cfg: cfg, log: logging.Get(logging.CategoryCrud)}
}

// ExerciseResource runs the state machine for one resource group. Every
// attempted stage emits exactly one TestResult. After the resource the
// session is parked back on the landing page, bounding the blast radius of a
// broken page across resources.
func (e *CrudExerciser) ExerciseResource(ctx context.Context, group routes.ResourceGroup, emit func(TestResult)) {
	ops := group.Operations
	e.log.Info("exercising resource",
		zap.String("resource", group.Resource), zap.Int("operations", len(ops)))

	var recordID string
	if _, hasCreate := ops[routes.OpCreate]; hasCreate {
		if _, hasStore := ops[routes.OpStore]; hasStore {
			var result TestResult
			result, recordID = e.guard(func() (TestResult, string) {
				return e.attemptCreate(ctx, group)
			})
			emit(result)
		}
	}

	if _, ok := ops[routes.OpIndex]; ok {
		result, _ := e.guard(func() (TestResult, string) {
			return e.attemptRead(ctx, group), ""
		})
		emit(result)
	}

	if recordID == "" {
		e.log.Info("no record identifier recovered, skipping mutation stages",
			zap.String("resource", group.Resource))
	} else {
		_, hasEdit := ops[routes.OpEdit]
		_, hasUpdate := ops[routes.OpUpdate]
		if hasEdit && hasUpdate {
			result, _ := e.guard(func() (TestResult, string) {
				return e.attemptUpdate(ctx, group, recordID), ""
			})
			emit(result)
		}
		if _, ok := ops[routes.OpDestroy]; ok {
			result, _ := e.guard(func() (TestResult, string) {
				return e.attemptDestroy(ctx, group, recordID), ""
			})
			emit(result)
		}
		for _, kind := range routes.SpecialOps {
			if _, ok := ops[kind]; !ok {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			kind := kind
			result, _ := e.guard(func() (TestResult, string) {
				return e.attemptSpecial(ctx, group, kind, recordID), ""
			})
			emit(result)
		}
	}

	if err := e.driver.ReturnToLanding(ctx); err != nil {
		e.log.Warn("could not return to landing page", zap.Error(err))
	}
}

// guard is the one dispatcher converting truly unexpected faults (panics out
// of the browser layer) into the catch-all category, so a stage can never
// crash the run.
func (e *CrudExerciser) guard(stage func() (TestResult, string)) (result TestResult, recordID string) {
	defer func() {
		if r := recover(); r != nil {
			_, msg := faults.Describe(fmt.Errorf("%v", r))
			result.Status = StatusError
			result.ErrorMessage = msg
			if result.Timestamp.IsZero() {
				result.Timestamp = time.Now()
			}
			recordID = ""
			e.log.Error("stage panicked", zap.Any("panic", r))
		}
	}()
	return stage()
}

// attemptCreate navigates to the create page, fills every fillable field,
// submits, and classifies the outcome. On success it best-effort extracts the
// new record's identifier from the resulting location; an unrecoverable
// identifier skips, never invents, the later stages.
func (e *CrudExerciser) attemptCreate(ctx context.Context, group routes.ResourceGroup) (TestResult, string) {
	createURI := group.Operations[routes.OpCreate].URI
	result := TestResult{
		Type:      TypeCreate,
		SourceURL: e.fullURL(createURI),
		TargetURL: createURI,
		Label:     "CREATE " + group.Resource,
		Timestamp: time.Now(),
	}

	if err := e.driver.NavigatePath(ctx, createURI); err != nil {
		return e.errored(result, err), ""
	}
	time.Sleep(e.cfg.Limits.SettleDelay())

	filled := e.fillForm(ctx, "")
	if err := e.driver.SubmitForm(ctx); err != nil {
		result.Status = StatusFail
		result.ErrorMessage = "No submit control found on create page"
		return result, ""
	}
	time.Sleep(e.cfg.Limits.SubmitSettle())

	currentURL := e.driver.CurrentURL()
	result.TargetURL = currentURL
	content, _ := e.driver.PageContent()

	navigatedAway := currentURL != "" && !strings.Contains(currentURL, strings.TrimLeft(createURI, "/"))
	if containsAny(content, createMarkers) || navigatedAway {
		result.Status = StatusPass
		e.log.Info("create accepted",
			zap.String("resource", group.Resource), zap.Int("fields", filled))
		return result, extractRecordID(currentURL)
	}

	result.Status = StatusFail
	result.ErrorMessage = "Creation failed - no success indicators found"
	return result, ""
}

// attemptRead navigates to the index page. Success is the absence of known
// error markers rather than the presence of specific content.
func (e *CrudExerciser) attemptRead(ctx context.Context, group routes.ResourceGroup) TestResult {
	indexURI := group.Operations[routes.OpIndex].URI
	result := TestResult{
		Type:      TypeRead,
		SourceURL: e.fullURL(indexURI),
		TargetURL: indexURI,
		Label:     "READ " + group.Resource,
		Timestamp: time.Now(),
	}

	started := time.Now()
	if err := e.driver.NavigatePath(ctx, indexURI); err != nil {
		return e.errored(result, err)
	}
	result.ResponseTime = time.Since(started)
	time.Sleep(e.cfg.Limits.SettleDelay())

	content, err := e.driver.PageContent()
	if err != nil {
		return e.errored(result, err)
	}
	if _, msg, found := faults.InspectPage(content); found {
		result.Status = StatusFail
		result.ErrorMessage = msg
		return result
	}
	result.Status = StatusPass
	return result
}

// attemptUpdate opens the edit page for the created record, fills a second
// round of values suffixed to avoid colliding with the create round, and
// submits.
func (e *CrudExerciser) attemptUpdate(ctx context.Context, group routes.ResourceGroup, recordID string) TestResult {
	editURI := substituteRecordID(group.Operations[routes.OpEdit].URI, group.Resource, recordID)
	result := TestResult{
		Type:      TypeUpdate,
		SourceURL: e.fullURL(editURI),
		TargetURL: editURI,
		Label:     fmt.Sprintf("UPDATE %s (ID: %s)", group.Resource, recordID),
		Timestamp: time.Now(),
	}

	if err := e.driver.NavigatePath(ctx, editURI); err != nil {
		return e.errored(result, err)
	}
	time.Sleep(e.cfg.Limits.SettleDelay())

	e.fillForm(ctx, "_updated")
	if err := e.driver.SubmitForm(ctx); err != nil {
		result.Status = StatusFail
		result.ErrorMessage = "No submit control found on edit page"
		return result
	}
	time.Sleep(e.cfg.Limits.SubmitSettle())

	content, _ := e.driver.PageContent()
	if containsAny(content, updateMarkers) {
		result.Status = StatusPass
		result.TargetURL = e.driver.CurrentURL()
		return result
	}
	result.Status = StatusFail
	result.ErrorMessage = "Update failed - no success indicators found"
	return result
}

// attemptDestroy returns to the listing, locates the delete control scoped
// to the record through the attribute ladder, clicks it, and classifies via
// deletion markers. Confirmation prompts are accepted by the session.
func (e *CrudExerciser) attemptDestroy(ctx context.Context, group routes.ResourceGroup, recordID string) TestResult {
	listURI := listingURI(group.Operations[routes.OpDestroy].URI)
	result := TestResult{
		Type:      TypeDelete,
		SourceURL: e.fullURL(listURI),
		TargetURL: listURI,
		Label:     fmt.Sprintf("DELETE %s (ID: %s)", group.Resource, recordID),
		Timestamp: time.Now(),
	}

	if err := e.driver.NavigatePath(ctx, listURI); err != nil {
		return e.errored(result, err)
	}
	time.Sleep(e.cfg.Limits.SettleDelay())

	found, err := e.driver.ClickDeleteControl(ctx, recordID)
	if err != nil {
		return e.errored(result, err)
	}
	if !found {
		result.Status = StatusFail
		result.ErrorMessage = "Delete control not found for record"
		return result
	}
	time.Sleep(e.cfg.Limits.SubmitSettle())

	content, _ := e.driver.PageContent()
	if containsAny(content, deleteMarkers) {
		result.Status = StatusPass
		result.TargetURL = e.driver.CurrentURL()
		return result
	}
	result.Status = StatusFail
	result.ErrorMessage = "Deletion failed - no success indicators found"
	return result
}

// attemptSpecial drives one special operation (approve/reject/post/activate).
// GET-exposed variants are driven through an on-page control. POST-only
// variants are recorded as requiring manual verification: synthesizing an
// authenticated POST body blind is unsafe and unreliable.
func (e *CrudExerciser) attemptSpecial(ctx context.Context, group routes.ResourceGroup, kind routes.OperationKind, recordID string) TestResult {
	op := group.Operations[kind]
	opURI := substituteRecordID(op.URI, group.Resource, recordID)
	result := TestResult{
		Type:      TypeOperation + string(kind),
		SourceURL: e.fullURL(opURI),
		TargetURL: opURI,
		Label:     fmt.Sprintf("%s %s (ID: %s)", strings.ToUpper(string(kind)), group.Resource, recordID),
		Timestamp: time.Now(),
	}

	if !op.Navigable() {
		result.Status = StatusUnknown
		result.ErrorMessage = fmt.Sprintf("%s requires POST - manual verification recommended", strings.ToUpper(string(kind)))
		return result
	}

	if err := e.driver.NavigatePath(ctx, opURI); err != nil {
		return e.errored(result, err)
	}
	time.Sleep(e.cfg.Limits.SettleDelay())

	found, err := e.driver.ClickSpecialControl(ctx, string(kind))
	if err != nil {
		return e.errored(result, err)
	}
	if !found {
		result.Status = StatusFail
		result.ErrorMessage = fmt.Sprintf("No %s control found on page", kind)
		return result
	}
	time.Sleep(e.cfg.Limits.SubmitSettle())

	content, _ := e.driver.PageContent()
	if containsAny(content, []string{string(kind), "success"}) {
		result.Status = StatusPass
		return result
	}
	result.Status = StatusUnknown
	result.ErrorMessage = fmt.Sprintf("%s outcome unclear", strings.ToUpper(string(kind)))
	return result
}

// fillForm fills every fillable field on the current page. Selects pick a
// random non-empty option; everything else goes through the synthesizer.
// Individual field failures are skipped; tolerant filling is the point.
func (e *CrudExerciser) fillForm(ctx context.Context, suffix string) int {
	fields, err := e.driver.FormFields(ctx)
	if err != nil {
		e.log.Warn("could not enumerate form fields", zap.Error(err))
		return 0
	}
	filled := 0
	for _, f := range fields {
		if f.Kind == "select" {
			if ok, err := e.driver.SelectRandomOption(ctx, f.Name); err == nil && ok {
				filled++
			}
			continue
		}
		value := e.synth.Value(f.Name, f.Kind, suffix)
		if value == "" {
			continue
		}
		if err := e.driver.FillByName(ctx, f.Name, value); err != nil {
			continue
		}
		filled++
	}
	e.log.Debug("form filled", zap.Int("fields", filled), zap.String("suffix", suffix))
	return filled
}

func (e *CrudExerciser) errored(result TestResult, err error) TestResult {
	_, msg := faults.Describe(err)
	result.Status = StatusError
	result.ErrorMessage = msg
	return result
}

func (e *CrudExerciser) fullURL(uri string) string {
	return strings.TrimRight(e.cfg.BaseURL, "/") + "/" + strings.TrimLeft(uri, "/")
}

func containsAny(content string, markers []string) bool {
	lower := strings.ToLower(content)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// extractRecordID pulls the trailing numeric path segment from a location.
// Anything else (slug, uuid, no segment) is unrecoverable and returns "".
func extractRecordID(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if m := trailingID.FindStringSubmatch(trimmed + "/"); m != nil {
		return m[1]
	}
	return ""
}

// substituteRecordID replaces the uri's path parameter with the record id.
// {id} and the resource's own singular placeholder are handled explicitly;
// any remaining single placeholder is substituted as a tolerant fallback.
func substituteRecordID(uri, resource, recordID string) string {
	out := strings.ReplaceAll(uri, "{id}", recordID)
	if idx := strings.LastIndex(resource, "."); idx >= 0 {
		out = strings.ReplaceAll(out, "{"+resource[idx+1:]+"}", recordID)
	}
	return anyPlaceholder.ReplaceAllString(out, recordID)
}

// listingURI derives the listing page from a destroy uri by dropping the
// parameter segment.
func listingURI(destroyURI string) string {
	out := anyPlaceholder.ReplaceAllString(destroyURI, "")
	out = strings.ReplaceAll(out, "//", "/")
	return strings.TrimRight(out, "/")
}

// Package browser owns the single authenticated rod session the exercisers
// drive. One session, one page, strictly sequential: a second concurrent page
// would invalidate the session and CSRF invariants the run relies on. Every
// interaction wrapper takes a context, applies an explicit timeout, and
// returns an error value rather than panicking.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crudprobe/internal/config"
	"crudprobe/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// SessionState tracks authentication. Mutated only by Login and KeepAlive.
type SessionState struct {
	LoggedIn      bool
	LastKeepAlive time.Time
}

// FormField describes one fillable field found on the current page.
type FormField struct {
	Name string // name attribute, falling back to id
	Kind string // input type attribute, or tag name for textarea/select
}

// Session is the one browser session for a run.
type Session struct {
	cfg      config.Browser
	baseURL  string
	browser  *rod.Browser
	page     *rod.Page
	state    SessionState
	identity string // remembered for transparent re-login on expiry
	secret   string
	log      *zap.Logger
}

// New prepares a session. Start must be called before any other method.
func New(baseURL string, cfg config.Browser) *Session {
	return &Session{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logging.Get(logging.CategorySession),
	}
}

// Start launches Chrome and opens the single page. A failure here is a setup
// error: the caller aborts the run.
func (s *Session) Start(ctx context.Context) error {
	controlURL, err := launcher.New().Headless(s.cfg.Headless).Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.GetViewportWidth(),
		Height:            s.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		s.log.Warn("failed to set viewport", zap.Error(err))
	}

	// Confirmation prompts (native confirm() on delete controls) are always
	// accepted so the run never hangs on a dialog.
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
	})()

	s.browser = browser
	s.page = page
	return nil
}

// Shutdown closes the page and the browser.
func (s *Session) Shutdown() error {
	var err error
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	return err
}

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	return s.state
}

func (s *Session) url(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Navigate loads a URL on the single page, bounded by the navigation timeout.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if s.page == nil {
		return errors.New("session not started")
	}
	page := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout())
	if err := page.Navigate(rawURL); err != nil {
		return err
	}
	return page.WaitLoad()
}

// NavigatePath resolves a manifest uri against the base URL and navigates.
func (s *Session) NavigatePath(ctx context.Context, path string) error {
	return s.Navigate(ctx, s.url(path))
}

// CurrentURL returns the page's location, or "" when unavailable.
func (s *Session) CurrentURL() string {
	if s.page == nil {
		return ""
	}
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// PageContent returns the page's rendered HTML.
func (s *Session) PageContent() (string, error) {
	if s.page == nil {
		return "", errors.New("session not started")
	}
	return s.page.HTML()
}

// PageTitle returns the page's title, or "" when unavailable.
func (s *Session) PageTitle() string {
	if s.page == nil {
		return ""
	}
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

// Fill types text into the element matching selector.
func (s *Session) Fill(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(text)
}

// Click clicks the element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// element looks up a single element bounded by the element timeout.
func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	if s.page == nil {
		return nil, errors.New("session not started")
	}
	el, err := s.page.Context(ctx).Timeout(s.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found %q: %w", selector, err)
	}
	return el, nil
}

// Login authenticates the session: locate credential fields through the probe
// ladder, submit, and poll until the location leaves the login route. Returns
// a failure value, never panics, so the caller can abort the run cleanly.
func (s *Session) Login(ctx context.Context, identifier, secret string) (SessionState, error) {
	loginURL := s.url(s.cfg.GetLoginPath())
	s.log.Info("navigating to login", zap.String("url", loginURL))
	if err := s.Navigate(ctx, loginURL); err != nil {
		return s.state, fmt.Errorf("open login page: %w", err)
	}

	if !s.onLoginRoute() {
		s.log.Info("already authenticated")
		s.state.LoggedIn = true
		s.identity, s.secret = identifier, secret
		return s.state, nil
	}

	idField, err := FirstMatch(s.probePage(ctx), IdentifierProbes)
	if err != nil {
		return s.state, fmt.Errorf("identifier field not found on login page: %w", err)
	}
	pwField, err := FirstMatch(s.probePage(ctx), PasswordProbes)
	if err != nil {
		return s.state, fmt.Errorf("password field not found on login page: %w", err)
	}
	if err := idField.Input(identifier); err != nil {
		return s.state, fmt.Errorf("fill identifier: %w", err)
	}
	if err := pwField.Input(secret); err != nil {
		return s.state, fmt.Errorf("fill password: %w", err)
	}

	if submit, err := FirstMatch(s.probePage(ctx), SubmitProbes); err == nil {
		if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return s.state, fmt.Errorf("click login submit: %w", err)
		}
	} else {
		// No recognizable submit control; Enter on the password field is the
		// last rung of the ladder.
		if err := pwField.Type(input.Enter); err != nil {
			return s.state, fmt.Errorf("submit login form: %w", err)
		}
	}

	deadline := time.Now().Add(s.cfg.LoginTimeout())
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return s.state, ctx.Err()
		}
		if !s.onLoginRoute() {
			s.state.LoggedIn = true
			s.identity, s.secret = identifier, secret
			s.log.Info("login successful", zap.String("url", s.CurrentURL()))
			return s.state, nil
		}
		time.Sleep(time.Second)
	}
	return s.state, errors.New("login did not redirect away from login page")
}

func (s *Session) onLoginRoute() bool {
	current := strings.TrimRight(s.CurrentURL(), "/")
	return strings.HasSuffix(current, strings.TrimLeft(s.cfg.GetLoginPath(), "/"))
}

// KeepAlive re-navigates to the authenticated landing page. If the session
// expired and the application bounced us to login, it re-authenticates with
// the remembered credentials so the run continues transparently.
func (s *Session) KeepAlive(ctx context.Context) error {
	if err := s.NavigatePath(ctx, s.cfg.GetLandingPath()); err != nil {
		return fmt.Errorf("keep-alive navigation: %w", err)
	}
	if s.onLoginRoute() {
		s.log.Warn("session expired, re-authenticating")
		s.state.LoggedIn = false
		if _, err := s.Login(ctx, s.identity, s.secret); err != nil {
			return fmt.Errorf("re-login after expiry: %w", err)
		}
	}
	s.state.LastKeepAlive = time.Now()
	return nil
}

// ReturnToLanding parks the session on the landing page between resources,
// bounding the blast radius of a broken page.
func (s *Session) ReturnToLanding(ctx context.Context) error {
	return s.NavigatePath(ctx, s.cfg.GetLandingPath())
}

func (s *Session) probePage(ctx context.Context) *rod.Page {
	return s.page.Context(ctx).Timeout(s.cfg.ElementTimeout())
}

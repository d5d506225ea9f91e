package exerciser

import (
	"context"

	"crudprobe/internal/browser"
)

// Driver is the browser capability surface the exercisers consume. It is
// satisfied by *browser.Session; tests substitute a scripted fake so the
// state machine can be exercised without a real Chrome.
type Driver interface {
	Login(ctx context.Context, identifier, secret string) (browser.SessionState, error)
	KeepAlive(ctx context.Context) error
	ReturnToLanding(ctx context.Context) error

	NavigatePath(ctx context.Context, path string) error
	CurrentURL() string
	PageContent() (string, error)
	PageTitle() string

	FormFields(ctx context.Context) ([]browser.FormField, error)
	FillByName(ctx context.Context, name, value string) error
	SelectRandomOption(ctx context.Context, name string) (bool, error)
	SubmitForm(ctx context.Context) error
	ClickDeleteControl(ctx context.Context, recordID string) (bool, error)
	ClickSpecialControl(ctx context.Context, op string) (bool, error)
}

var _ Driver = (*browser.Session)(nil)

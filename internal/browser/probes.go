package browser

import (
	"fmt"

	"github.com/go-rod/rod"
)

// Probe is one rung of a markup-tolerant lookup ladder: a named, pure lookup
// against the current page. Ladders are tried in order; first success wins.
// Keeping the ladder explicit makes the heuristic independently testable.
type Probe struct {
	Name string
	Find func(page *rod.Page) (*rod.Element, error)
}

// BySelector builds a probe that matches the first element for a CSS
// selector without waiting for it to appear.
func BySelector(name, selector string) Probe {
	return Probe{
		Name: name,
		Find: func(page *rod.Page) (*rod.Element, error) {
			has, el, err := page.Has(selector)
			if err != nil {
				return nil, err
			}
			if !has {
				return nil, fmt.Errorf("no match for %s", selector)
			}
			return el, nil
		},
	}
}

// FirstMatch walks a ladder and returns the first element found.
func FirstMatch(page *rod.Page, probes []Probe) (*rod.Element, error) {
	for _, probe := range probes {
		if el, err := probe.Find(page); err == nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("no probe matched (%d tried)", len(probes))
}

// IdentifierProbes locate the login identifier input. The exact field name
// varies per application; named fields are preferred over typed ones.
var IdentifierProbes = []Probe{
	BySelector("identifier-name", `input[name='identifier']`),
	BySelector("email-name", `input[name='email']`),
	BySelector("username-name", `input[name='username']`),
	BySelector("email-type", `input[type='email']`),
}

// PasswordProbes locate the login secret input.
var PasswordProbes = []Probe{
	BySelector("password-name", `input[name='password']`),
	BySelector("password-type", `input[type='password']`),
}

// SubmitProbes locate a form's submit control.
var SubmitProbes = []Probe{
	BySelector("submit-button", `button[type='submit']`),
	BySelector("submit-input", `input[type='submit']`),
}

// DeleteControlProbes locate the delete control scoped to one record on a
// listing page. Delete markup varies the most across applications, hence the
// longest ladder.
func DeleteControlProbes(recordID string) []Probe {
	return []Probe{
		BySelector("data-method-link", fmt.Sprintf(`a[href*='%s'][data-method='delete']`, recordID)),
		BySelector("data-id-button", fmt.Sprintf(`button[data-id='%s']`, recordID)),
		BySelector("form-action-submit", fmt.Sprintf(`form[action*='%s'] button[type='submit']`, recordID)),
		BySelector("delete-class-link", fmt.Sprintf(`a[href*='/%s'].delete`, recordID)),
		BySelector("delete-link-class", `.delete-link`),
	}
}

// ConfirmProbes locate the confirm button of an in-page deletion modal.
// Native confirm() dialogs are auto-accepted separately at the session level.
var ConfirmProbes = []Probe{
	BySelector("confirm-class", `button.confirm`),
	BySelector("btn-confirm", `.btn-confirm`),
	BySelector("bootbox-confirm", `button[data-bb-handler='confirm']`),
}

// SpecialControlProbes locate the trigger for a named special operation
// (approve, reject, post, activate) on the record's page.
func SpecialControlProbes(op string) []Probe {
	return []Probe{
		BySelector("data-action", fmt.Sprintf(`button[data-action='%s']`, op)),
		BySelector("class-button", fmt.Sprintf(`button.%s`, op)),
		BySelector("href-link", fmt.Sprintf(`a[href*='%s']`, op)),
		BySelector("form-action", fmt.Sprintf(`form[action*='%s'] button[type='submit']`, op)),
	}
}

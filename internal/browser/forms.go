package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// FormFields enumerates the fillable fields on the current page: text-like
// inputs, textareas, and selects that are neither readonly nor disabled.
func (s *Session) FormFields(ctx context.Context) ([]FormField, error) {
	if s.page == nil {
		return nil, errors.New("session not started")
	}
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `
		() => {
			const selectors = [
				"input[type='text']", "input[type='email']", "input[type='number']",
				"input[type='tel']", "input[type='password']", "input[type='date']",
				"textarea", "select"
			];
			const fields = [];
			for (const sel of selectors) {
				for (const el of document.querySelectorAll(sel)) {
					if (el.readOnly || el.disabled) continue;
					const name = el.getAttribute('name') || el.id || '';
					if (!name) continue;
					const tag = el.tagName.toLowerCase();
					const kind = tag === 'input' ? (el.getAttribute('type') || 'text') : tag;
					fields.push({ name, kind });
				}
			}
			return fields;
		}
		`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, fmt.Errorf("enumerate form fields: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("decode form fields: %w", err)
	}
	var fields []FormField
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode form fields: %w", err)
	}
	return fields, nil
}

// SelectRandomOption picks a uniformly random non-empty option of the named
// select and fires the change events the page's scripts listen for. Returns
// whether an option was selected.
func (s *Session) SelectRandomOption(ctx context.Context, name string) (bool, error) {
	if s.page == nil {
		return false, errors.New("session not started")
	}
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `
		(name) => {
			const el = document.querySelector("select[name='" + name + "']") || document.getElementById(name);
			if (!el || el.tagName.toLowerCase() !== 'select') return false;
			const options = Array.from(el.options).filter(o => o.value !== '');
			if (options.length === 0) return false;
			const pick = options[Math.floor(Math.random() * options.length)];
			el.value = pick.value;
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
		`,
		JSArgs:       []interface{}{name},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return false, fmt.Errorf("select option for %q: %w", name, err)
	}
	return res.Value.Bool(), nil
}

// FillByName fills the named field, addressing it by name attribute first and
// id second, matching how FormFields reported it.
func (s *Session) FillByName(ctx context.Context, name, value string) error {
	if err := s.Fill(ctx, fmt.Sprintf(`[name='%s']`, name), value); err == nil {
		return nil
	}
	return s.Fill(ctx, "#"+name, value)
}

// SubmitForm clicks the page's submit control through the submit ladder.
func (s *Session) SubmitForm(ctx context.Context) error {
	if s.page == nil {
		return errors.New("session not started")
	}
	el, err := FirstMatch(s.probePage(ctx), SubmitProbes)
	if err != nil {
		return fmt.Errorf("submit control not found: %w", err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ClickDeleteControl locates and clicks the delete control for a record on
// the current listing page, then accepts any in-page confirmation modal.
// Returns whether a control was found at all.
func (s *Session) ClickDeleteControl(ctx context.Context, recordID string) (bool, error) {
	if s.page == nil {
		return false, errors.New("session not started")
	}
	el, err := FirstMatch(s.probePage(ctx), DeleteControlProbes(recordID))
	if err != nil {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return true, fmt.Errorf("click delete control: %w", err)
	}
	// Modal confirms are optional markup; a missing confirm button just means
	// the click already went through (or a native dialog was auto-accepted).
	if confirm, err := FirstMatch(s.probePage(ctx), ConfirmProbes); err == nil {
		_ = confirm.Click(proto.InputMouseButtonLeft, 1)
	}
	return true, nil
}

// ClickSpecialControl locates and clicks the control for a special operation
// (approve/reject/post/activate). Returns whether a control was found.
func (s *Session) ClickSpecialControl(ctx context.Context, op string) (bool, error) {
	if s.page == nil {
		return false, errors.New("session not started")
	}
	el, err := FirstMatch(s.probePage(ctx), SpecialControlProbes(op))
	if err != nil {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return true, fmt.Errorf("click %s control: %w", op, err)
	}
	return true, nil
}

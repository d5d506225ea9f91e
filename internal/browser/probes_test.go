package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func probeNames(probes []Probe) []string {
	names := make([]string, len(probes))
	for i, p := range probes {
		names[i] = p.Name
	}
	return names
}

func TestLoginLadderOrder(t *testing.T) {
	// Named fields outrank typed ones; the order is the heuristic.
	assert.Equal(t, []string{"identifier-name", "email-name", "username-name", "email-type"},
		probeNames(IdentifierProbes))
	assert.Equal(t, []string{"password-name", "password-type"},
		probeNames(PasswordProbes))
	assert.Equal(t, []string{"submit-button", "submit-input"},
		probeNames(SubmitProbes))
}

func TestDeleteControlProbesScopeToRecord(t *testing.T) {
	probes := DeleteControlProbes("42")
	assert.Len(t, probes, 5)
	// Only the catch-all last rung is unscoped; every other rung must carry
	// the record id so the wrong row is never deleted.
	assert.Equal(t, "delete-link-class", probes[len(probes)-1].Name)
}

func TestSpecialControlProbesPerOperation(t *testing.T) {
	for _, op := range []string{"approve", "reject", "post", "activate"} {
		probes := SpecialControlProbes(op)
		assert.Len(t, probes, 4, op)
		assert.Equal(t, "data-action", probes[0].Name)
	}
}

func TestFirstMatchEmptyLadder(t *testing.T) {
	_, err := FirstMatch(nil, nil)
	assert.Error(t, err)
}

package synth

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueByKind(t *testing.T) {
	s := New(1)

	assert.Empty(t, s.Value("country", "select", ""))
	assert.Contains(t, s.Value("email", "email", ""), "@")
	assert.Len(t, s.Value("password", "password", ""), 12)

	phone := s.Value("phone", "tel", "")
	require.Len(t, phone, 11)
	assert.True(t, strings.HasPrefix(phone, "01"))

	date := s.Value("joining_date", "date", "")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, date)
}

func TestValueByNameHint(t *testing.T) {
	s := New(1)
	tests := []struct {
		hint  string
		kind  string
		check func(t *testing.T, v string)
	}{
		{"user_email", "text", func(t *testing.T, v string) { assert.Contains(t, v, "@") }},
		{"first_name", "text", func(t *testing.T, v string) { assert.NotEmpty(t, v) }},
		{"status", "text", func(t *testing.T, v string) {
			assert.Contains(t, []string{"active", "inactive", "pending", "approved", "rejected", "completed", "draft"}, v)
		}},
		{"department", "text", func(t *testing.T, v string) {
			assert.Contains(t, []string{"IT", "HR", "Finance", "Marketing", "Sales", "Operations", "Engineering", "Support"}, v)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			tt.check(t, s.Value(tt.hint, tt.kind, ""))
		})
	}
}

func TestNumberRanges(t *testing.T) {
	s := New(1)
	tests := []struct {
		hint     string
		min, max int
	}{
		{"salary", 30000, 150000},
		{"age", 18, 65},
		{"amount", 100, 10000},
		{"quantity", 1, 100},
		{"year", 2020, 2030},
		{"anything", 1, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				n, err := strconv.Atoi(s.Value(tt.hint, "number", ""))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, n, tt.min)
				assert.LessOrEqual(t, n, tt.max)
			}
		})
	}
}

func TestSuffixDistinguishesRounds(t *testing.T) {
	s := New(1)
	v := s.Value("title", "text", "_updated")
	assert.True(t, strings.HasSuffix(v, "_updated"))

	email := s.Value("email", "email", "2")
	local, _, _ := strings.Cut(email, "@")
	assert.True(t, strings.HasSuffix(local, "2"))
}

func TestSeedReproducibility(t *testing.T) {
	a := New(42).Value("name", "text", "")
	b := New(42).Value("name", "text", "")
	assert.Equal(t, a, b)
}

package routes

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudprobe/internal/config"
)

func TestLoadFiltersInfraRoutes(t *testing.T) {
	manifest := `[
		{"uri": "hr/employees", "method": "GET|HEAD", "name": "hr.employees.index"},
		{"uri": "api/v1/employees", "method": "GET|HEAD", "name": "api.employees.index"},
		{"uri": "login", "method": "GET|HEAD", "name": "login"},
		{"uri": "logout", "method": "POST", "name": "logout"},
		{"uri": "password/reset", "method": "GET|HEAD", "name": "password.request"},
		{"uri": "hr/employees/datatables", "method": "GET|HEAD", "name": "hr.employees.datatables"},
		{"uri": "accounting/invoices", "method": "GET|HEAD", "name": "accounting.invoices.index"}
	]`
	catalog := Load(strings.NewReader(manifest), config.Limits{})

	var uris []string
	for _, d := range catalog.All() {
		uris = append(uris, d.URI)
	}
	assert.ElementsMatch(t, []string{"hr/employees", "accounting/invoices"}, uris)
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"unparseable", "not json at all {{{"},
		{"empty array", "[]"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := Load(strings.NewReader(tt.manifest), config.Limits{})
			require.NotEmpty(t, catalog.All(), "fallback routes must load")
			// The fallback list always covers the core application areas.
			var uris []string
			for _, d := range catalog.All() {
				uris = append(uris, d.URI)
			}
			assert.Contains(t, uris, "hr/employees")
			assert.Contains(t, uris, "accounting/invoices")
		})
	}
}

func TestLoadFileMissingUsesFallback(t *testing.T) {
	catalog := LoadFile("testdata/does-not-exist.json", config.Limits{})
	assert.NotEmpty(t, catalog.All())
}

func TestDescriptorMethods(t *testing.T) {
	d := Descriptor{URI: "hr/employees/{employee}", Methods: []string{"GET", "HEAD"}}
	assert.True(t, d.HasMethod("GET"))
	assert.False(t, d.HasMethod("POST"))
	assert.True(t, d.Navigable())
	assert.True(t, d.Parameterized())

	post := Descriptor{URI: "hr/employees", Methods: []string{"POST"}}
	assert.False(t, post.Navigable())
	assert.False(t, post.Parameterized())
}

func TestSplitMethods(t *testing.T) {
	assert.Equal(t, []string{"GET", "HEAD"}, splitMethods("GET|HEAD"))
	assert.Equal(t, []string{"POST"}, splitMethods("post"))
	assert.Empty(t, splitMethods(""))
}

func TestSimpleRoutesCapsAndDedupes(t *testing.T) {
	manifest := strings.Builder{}
	manifest.WriteString("[")
	// 10 duplicated simple routes plus 5 parameterized ones.
	for i := 0; i < 2; i++ {
		manifest.WriteString(`{"uri": "hr/a", "method": "GET|HEAD", "name": "hr.a.index"},`)
	}
	manifest.WriteString(`
		{"uri": "hr/b", "method": "GET|HEAD", "name": "hr.b.index"},
		{"uri": "hr/c", "method": "GET|HEAD", "name": "hr.c.index"},
		{"uri": "hr/d/{id}", "method": "GET|HEAD", "name": "hr.d.show"},
		{"uri": "hr/e/{id}", "method": "GET|HEAD", "name": "hr.e.show"},
		{"uri": "hr/f", "method": "POST", "name": "hr.f.store"}
	]`)

	limits := config.Limits{MaxSimpleRoutes: 2, MaxParamRoutes: 1, MaxRoutes: 3}
	catalog := Load(strings.NewReader(manifest.String()), limits)
	uris := catalog.SimpleRoutes(rand.New(rand.NewSource(1)))

	assert.LessOrEqual(t, len(uris), 3)
	seen := map[string]int{}
	for _, uri := range uris {
		seen[uri]++
		assert.Equal(t, 1, seen[uri], "route %s appears more than once", uri)
	}
	assert.NotContains(t, uris, "hr/f", "POST-only routes are not sweepable")
}

func TestSimpleRoutesPriorityFirst(t *testing.T) {
	manifest := `[
		{"uri": "zzz/misc", "method": "GET|HEAD", "name": "zzz.misc.index"},
		{"uri": "hr/employees", "method": "GET|HEAD", "name": "hr.employees.index"},
		{"uri": "aaa/misc", "method": "GET|HEAD", "name": "aaa.misc.index"}
	]`
	catalog := Load(strings.NewReader(manifest), config.Limits{})
	uris := catalog.SimpleRoutes(nil)

	require.NotEmpty(t, uris)
	assert.Equal(t, "hr/employees", uris[0], "priority routes lead the sweep")
}

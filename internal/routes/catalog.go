// Package routes loads a route manifest and derives the two views the
// exercisers consume: the full descriptor set for resource grouping, and a
// capped, prioritized list of simple page routes for the link sweep.
package routes

import (
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"

	"crudprobe/internal/config"
	"crudprobe/internal/logging"

	"go.uber.org/zap"
)

// manifestEntry is the wire shape of one manifest row.
type manifestEntry struct {
	URI    string `json:"uri"`
	Method string `json:"method"`
	Name   string `json:"name"`
}

// Descriptor describes one navigable endpoint. Built once, read-only after.
type Descriptor struct {
	URI     string
	Methods []string
	Name    string
}

// HasMethod reports whether the descriptor carries the given HTTP method.
func (d Descriptor) HasMethod(method string) bool {
	for _, m := range d.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Navigable reports whether the route can be visited as a page.
func (d Descriptor) Navigable() bool {
	return d.HasMethod("GET") || d.HasMethod("HEAD")
}

// Parameterized reports whether the uri carries a path parameter placeholder.
func (d Descriptor) Parameterized() bool {
	return strings.ContainsAny(d.URI, "{}")
}

// authKeywords mark routes handled by the session controller, not exercised.
var authKeywords = []string{"login", "logout", "password"}

// priorityPatterns float the application's core pages to the front of the
// link sweep so a capped run still covers them.
var priorityPatterns = []string{
	"/", "dashboard", "admin", "hr", "accounting",
	"hr/employees", "accounting/invoices", "accounting/payments",
}

// Catalog is the filtered route set for one run.
type Catalog struct {
	descriptors []Descriptor
	limits      config.Limits
}

// Load parses a manifest and builds the catalog. It never fails the run: an
// unreadable or unparseable manifest degrades to the built-in fallback list.
func Load(r io.Reader, limits config.Limits) *Catalog {
	log := logging.Get(logging.CategoryCatalog)

	var entries []manifestEntry
	if r != nil {
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			log.Warn("manifest unparseable, using fallback routes", zap.Error(err))
			entries = nil
		}
	}
	if len(entries) == 0 {
		entries = fallbackManifest()
		log.Info("using built-in fallback routes", zap.Int("count", len(entries)))
	}

	descriptors := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		if !includeRoute(e.URI) {
			continue
		}
		descriptors = append(descriptors, Descriptor{
			URI:     strings.TrimPrefix(e.URI, "/"),
			Methods: splitMethods(e.Method),
			Name:    e.Name,
		})
	}
	log.Info("catalog loaded",
		zap.Int("manifest_routes", len(entries)),
		zap.Int("kept", len(descriptors)))
	return &Catalog{descriptors: descriptors, limits: limits}
}

// LoadFile opens and parses a manifest file, falling back on any error.
func LoadFile(path string, limits config.Limits) *Catalog {
	f, err := os.Open(path)
	if err != nil {
		logging.Get(logging.CategoryCatalog).Warn("manifest missing, using fallback routes",
			zap.String("path", path), zap.Error(err))
		return Load(nil, limits)
	}
	defer f.Close()
	return Load(f, limits)
}

// includeRoute applies the catalog-level filters: no API endpoints, no auth
// pages, no AJAX datatables feeds.
func includeRoute(uri string) bool {
	trimmed := strings.TrimPrefix(uri, "/")
	if strings.HasPrefix(trimmed, "api/") {
		return false
	}
	for _, kw := range authKeywords {
		if strings.Contains(trimmed, kw) {
			return false
		}
	}
	if strings.HasSuffix(trimmed, "/datatables") {
		return false
	}
	return true
}

// All returns every descriptor kept by the filters, for resource grouping.
func (c *Catalog) All() []Descriptor {
	return c.descriptors
}

// SimpleRoutes returns the capped link-sweep list: deduped parameter-free GET
// routes with priority pages first and the remainder shuffled, followed by a
// bounded sample of parameterized routes. rng varies coverage across runs.
func (c *Catalog) SimpleRoutes(rng *rand.Rand) []string {
	seen := make(map[string]struct{})
	var simple, param []string
	for _, d := range c.descriptors {
		if !d.Navigable() {
			continue
		}
		if _, dup := seen[d.URI]; dup {
			continue
		}
		seen[d.URI] = struct{}{}
		if d.Parameterized() {
			param = append(param, d.URI)
		} else {
			simple = append(simple, d.URI)
		}
	}
	sort.Strings(simple)
	sort.Strings(param)

	prioritized, rest := splitByPriority(simple)
	if rng != nil {
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		rng.Shuffle(len(param), func(i, j int) { param[i], param[j] = param[j], param[i] })
	}
	simple = append(prioritized, rest...)

	if len(simple) > c.limits.GetMaxSimpleRoutes() {
		simple = simple[:c.limits.GetMaxSimpleRoutes()]
	}
	if len(param) > c.limits.GetMaxParamRoutes() {
		param = param[:c.limits.GetMaxParamRoutes()]
	}
	out := append(simple, param...)
	if len(out) > c.limits.GetMaxRoutes() {
		out = out[:c.limits.GetMaxRoutes()]
	}
	return out
}

func splitByPriority(uris []string) (prioritized, rest []string) {
	for _, uri := range uris {
		if matchesPriority(uri) {
			prioritized = append(prioritized, uri)
		} else {
			rest = append(rest, uri)
		}
	}
	return prioritized, rest
}

func matchesPriority(uri string) bool {
	path := strings.TrimPrefix(uri, "/")
	if path == "" {
		return true
	}
	for _, pattern := range priorityPatterns {
		pattern = strings.TrimPrefix(pattern, "/")
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

func splitMethods(method string) []string {
	parts := strings.Split(method, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fallbackManifest is the built-in route list used when no manifest loads.
func fallbackManifest() []manifestEntry {
	return []manifestEntry{
		{URI: "/", Method: "GET|HEAD", Name: "dashboard"},
		{URI: "dashboard", Method: "GET|HEAD", Name: "dashboard.index"},
		{URI: "admin", Method: "GET|HEAD", Name: "admin.index"},
		{URI: "hr", Method: "GET|HEAD", Name: "hr.index"},
		{URI: "accounting", Method: "GET|HEAD", Name: "accounting.index"},
		{URI: "inventory", Method: "GET|HEAD", Name: "inventory.index"},
		{URI: "role-permission", Method: "GET|HEAD", Name: "roles.index"},
		{URI: "hr/employees", Method: "GET|HEAD", Name: "hr.employees.index"},
		{URI: "hr/employees/create", Method: "GET|HEAD", Name: "hr.employees.create"},
		{URI: "hr/employees", Method: "POST", Name: "hr.employees.store"},
		{URI: "hr/departments", Method: "GET|HEAD", Name: "hr.departments.index"},
		{URI: "hr/designations", Method: "GET|HEAD", Name: "hr.designations.index"},
		{URI: "hr/attendance", Method: "GET|HEAD", Name: "hr.attendance.index"},
		{URI: "accounting/invoices", Method: "GET|HEAD", Name: "accounting.invoices.index"},
		{URI: "accounting/invoices/create", Method: "GET|HEAD", Name: "accounting.invoices.create"},
		{URI: "accounting/invoices", Method: "POST", Name: "accounting.invoices.store"},
		{URI: "accounting/payments", Method: "GET|HEAD", Name: "accounting.payments.index"},
		{URI: "accounting/customers", Method: "GET|HEAD", Name: "accounting.customers.index"},
		{URI: "accounting/customers/create", Method: "GET|HEAD", Name: "accounting.customers.create"},
		{URI: "accounting/customers", Method: "POST", Name: "accounting.customers.store"},
		{URI: "accounting/vendors", Method: "GET|HEAD", Name: "accounting.vendors.index"},
		{URI: "admin/settings/system", Method: "GET|HEAD", Name: "settings.system.index"},
		{URI: "role-permission/roles", Method: "GET|HEAD", Name: "roles.roles.index"},
		{URI: "role-permission/permissions", Method: "GET|HEAD", Name: "roles.permissions.index"},
	}
}

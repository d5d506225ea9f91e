package routes

import (
	"math/rand"
	"sort"
	"strings"
)

// OperationKind is one slot in a resource's CRUD capability map.
type OperationKind string

const (
	OpIndex      OperationKind = "index"
	OpCreate     OperationKind = "create"
	OpStore      OperationKind = "store"
	OpShow       OperationKind = "show"
	OpEdit       OperationKind = "edit"
	OpUpdate     OperationKind = "update"
	OpDestroy    OperationKind = "destroy"
	OpDataTables OperationKind = "datatables"
	OpApprove    OperationKind = "approve"
	OpReject     OperationKind = "reject"
	OpPost       OperationKind = "post"
	OpActivate   OperationKind = "activate"
)

// SpecialOps are the non-CRUD operations attempted after the main sequence.
var SpecialOps = []OperationKind{OpApprove, OpReject, OpPost, OpActivate}

// ResourceGroup collects the routes of one logical resource and the operation
// map derived from them. A kind absent from Operations is not tested.
type ResourceGroup struct {
	Resource   string
	Routes     []Descriptor
	Operations map[OperationKind]Descriptor
}

// infra name prefixes and path segments that never identify a resource.
var (
	skipNamePrefixes = map[string]struct{}{"web": {}, "api": {}, "auth": {}}
	skipPathSegments = map[string]struct{}{"api": {}, "storage": {}, "app": {}}
	groupSkipWords   = []string{"login", "logout", "password", "verification", "email"}
)

// priorityResources are exercised first when the CRUD resource cap bites.
var priorityResources = []string{
	"hr.employees", "accounting.invoices", "accounting.payments",
	"accounting.customers", "accounting.vendors", "hr.departments",
	"hr.designations", "hr.attendance", "hr.leave",
}

// GroupByResource groups descriptors into resources keyed by the first two
// dot-segments of the logical name, falling back to the first path segment.
func GroupByResource(descriptors []Descriptor) []ResourceGroup {
	byName := make(map[string][]Descriptor)
	var order []string
	for _, d := range descriptors {
		if skipForGrouping(d.URI) {
			continue
		}
		name := resourceName(d)
		if name == "" {
			continue
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], d)
	}
	sort.Strings(order)

	groups := make([]ResourceGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, ResourceGroup{
			Resource:   name,
			Routes:     byName[name],
			Operations: CategorizeOperations(byName[name]),
		})
	}
	return groups
}

func skipForGrouping(uri string) bool {
	for _, w := range groupSkipWords {
		if strings.Contains(uri, w) {
			return true
		}
	}
	return false
}

// resourceName derives the resource key for a descriptor.
func resourceName(d Descriptor) string {
	if d.Name != "" && strings.Contains(d.Name, ".") {
		parts := strings.Split(d.Name, ".")
		if len(parts) >= 2 {
			if _, infra := skipNamePrefixes[parts[0]]; !infra {
				return parts[0] + "." + parts[1]
			}
		}
	}
	segment, _, _ := strings.Cut(strings.TrimPrefix(d.URI, "/"), "/")
	if segment == "" {
		return ""
	}
	if _, infra := skipPathSegments[segment]; infra {
		return ""
	}
	return segment
}

// CategorizeOperations maps routes to operation kinds using purely structural
// rules: logical-name suffix, HTTP method, and path-parameter presence. No
// page content is inspected. The first route matching a kind wins; a route
// matching no rule is simply absent from the map.
func CategorizeOperations(group []Descriptor) map[OperationKind]Descriptor {
	ops := make(map[OperationKind]Descriptor)
	put := func(kind OperationKind, d Descriptor) {
		if _, taken := ops[kind]; !taken {
			ops[kind] = d
		}
	}

	for _, d := range group {
		if d.Name == "" || !strings.Contains(d.Name, ".") {
			continue
		}
		suffix := d.Name[strings.LastIndex(d.Name, ".")+1:]

		switch {
		case suffix == "index" && d.Navigable():
			put(OpIndex, d)
		case suffix == "create" && d.Navigable():
			put(OpCreate, d)
		case suffix == "store" && d.HasMethod("POST"):
			put(OpStore, d)
		case suffix == "show" && d.Navigable() && d.Parameterized():
			put(OpShow, d)
		case suffix == "edit" && d.Navigable() && d.Parameterized():
			put(OpEdit, d)
		case suffix == "update" && (d.HasMethod("PUT") || d.HasMethod("PATCH")) && d.Parameterized():
			put(OpUpdate, d)
		case suffix == "destroy" && d.HasMethod("DELETE") && d.Parameterized():
			put(OpDestroy, d)
		case suffix == "datatables" && d.Navigable():
			put(OpDataTables, d)
		case strings.Contains(suffix, "approve") && d.HasMethod("POST"):
			put(OpApprove, d)
		case strings.Contains(suffix, "reject") && d.HasMethod("POST"):
			put(OpReject, d)
		case strings.Contains(suffix, "post") && d.HasMethod("POST"):
			put(OpPost, d)
		case strings.Contains(suffix, "activate") && d.HasMethod("POST"):
			put(OpActivate, d)
		}
	}
	return ops
}

// PrioritizeGroups orders resource groups for CRUD exercising: the priority
// resources first, then the rest up to max, the whole selection shuffled so
// repeated runs vary their ordering.
func PrioritizeGroups(groups []ResourceGroup, max int, rng *rand.Rand) []ResourceGroup {
	byName := make(map[string]ResourceGroup, len(groups))
	for _, g := range groups {
		byName[g.Resource] = g
	}

	selected := make([]ResourceGroup, 0, max)
	taken := make(map[string]struct{})
	for _, name := range priorityResources {
		if g, ok := byName[name]; ok {
			selected = append(selected, g)
			taken[name] = struct{}{}
		}
	}
	for _, g := range groups {
		if len(selected) >= max {
			break
		}
		if _, ok := taken[g.Resource]; ok {
			continue
		}
		selected = append(selected, g)
		taken[g.Resource] = struct{}{}
	}
	if len(selected) > max {
		selected = selected[:max]
	}
	if rng != nil {
		rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	}
	return selected
}

package exerciser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudprobe/internal/browser"
	"crudprobe/internal/routes"
	"crudprobe/internal/synth"
)

func employeeGroup(extra ...routes.OperationKind) routes.ResourceGroup {
	ops := map[routes.OperationKind]routes.Descriptor{
		routes.OpIndex:   {URI: "hr/employees", Methods: []string{"GET", "HEAD"}, Name: "hr.employees.index"},
		routes.OpCreate:  {URI: "hr/employees/create", Methods: []string{"GET", "HEAD"}, Name: "hr.employees.create"},
		routes.OpStore:   {URI: "hr/employees", Methods: []string{"POST"}, Name: "hr.employees.store"},
		routes.OpEdit:    {URI: "hr/employees/{employee}/edit", Methods: []string{"GET", "HEAD"}, Name: "hr.employees.edit"},
		routes.OpUpdate:  {URI: "hr/employees/{employee}", Methods: []string{"PUT", "PATCH"}, Name: "hr.employees.update"},
		routes.OpDestroy: {URI: "hr/employees/{employee}", Methods: []string{"DELETE"}, Name: "hr.employees.destroy"},
	}
	for _, kind := range extra {
		switch kind {
		case routes.OpApprove:
			ops[kind] = routes.Descriptor{URI: "hr/employees/{employee}/approve", Methods: []string{"POST"}, Name: "hr.employees.approve"}
		case routes.OpActivate:
			ops[kind] = routes.Descriptor{URI: "hr/employees/{employee}/activate", Methods: []string{"GET", "POST"}, Name: "hr.employees.activate"}
		}
	}
	return routes.ResourceGroup{Resource: "hr.employees", Operations: ops}
}

func newCrud(driver *fakeDriver) *CrudExerciser {
	return NewCrudExerciser(driver, synth.New(1), fastConfig())
}

func TestCrudFullSequence(t *testing.T) {
	driver := newFakeDriver()
	driver.fields["hr/employees/create"] = []browser.FormField{
		{Name: "name", Kind: "text"},
		{Name: "email", Kind: "email"},
		{Name: "department", Kind: "select"},
	}
	driver.submitTo["hr/employees/create"] = "hr/employees/42"
	driver.submitTo["hr/employees/42/edit"] = "hr/employees/42"
	driver.pages["hr/employees/42"] = `<html><body>Employee saved successfully</body></html>`
	driver.deleteFound = true

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(), employeeGroup(), collect(&results))

	require.Len(t, results, 4)
	assert.Equal(t, TypeCreate, results[0].Type)
	assert.Equal(t, TypeRead, results[1].Type)
	assert.Equal(t, TypeUpdate, results[2].Type)
	assert.Equal(t, TypeDelete, results[3].Type)
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, "%s should pass: %s", r.Type, r.ErrorMessage)
	}

	assert.Equal(t, "UPDATE hr.employees (ID: 42)", results[2].Label)
	assert.NotEmpty(t, driver.filled["name"])
	assert.Contains(t, driver.filled["email"], "@")
	assert.Contains(t, driver.calls, "select:department")
	assert.Contains(t, driver.calls, "delete:42")
	assert.Equal(t, 1, driver.landings, "session parks on landing after the resource")
}

func TestCrudSkipsMutationsWithoutRecordID(t *testing.T) {
	driver := newFakeDriver()
	// Submission lands on the listing: accepted, but no record id to recover.
	driver.submitTo["hr/employees/create"] = "hr/employees"
	driver.deleteFound = true

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(),
		employeeGroup(routes.OpApprove), collect(&results))

	require.Len(t, results, 2, "only create and read run without a record id")
	assert.Equal(t, TypeCreate, results[0].Type)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, TypeRead, results[1].Type)
	assert.NotContains(t, driver.calls, "delete:")
}

func TestCrudCreateWithoutSuccessIndicators(t *testing.T) {
	driver := newFakeDriver()
	// Submit keeps us on the create page and nothing in the page says success.
	driver.submitTo["hr/employees/create"] = "hr/employees/create"

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(), employeeGroup(), collect(&results))

	require.NotEmpty(t, results)
	assert.Equal(t, TypeCreate, results[0].Type)
	assert.Equal(t, StatusFail, results[0].Status)
	assert.Equal(t, "Creation failed - no success indicators found", results[0].ErrorMessage)
}

func TestCrudCreateWithoutSubmitControl(t *testing.T) {
	driver := newFakeDriver()

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(), employeeGroup(), collect(&results))

	require.NotEmpty(t, results)
	assert.Equal(t, StatusFail, results[0].Status)
	assert.Equal(t, "No submit control found on create page", results[0].ErrorMessage)
}

func TestCrudSpecialPostOnlyNeedsManualVerification(t *testing.T) {
	driver := newFakeDriver()
	driver.submitTo["hr/employees/create"] = "hr/employees/7"
	driver.submitTo["hr/employees/7/edit"] = "hr/employees/7"
	driver.pages["hr/employees/7"] = `<html><body>saved successfully and updated</body></html>`
	driver.deleteFound = true

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(),
		employeeGroup(routes.OpApprove), collect(&results))

	last := results[len(results)-1]
	assert.Equal(t, TypeOperation+"approve", last.Type)
	assert.Equal(t, StatusUnknown, last.Status)
	assert.Contains(t, last.ErrorMessage, "manual verification")
	assert.NotContains(t, driver.calls, "special:approve", "POST-only operations are never driven")
}

func TestCrudSpecialNavigableClicksControl(t *testing.T) {
	driver := newFakeDriver()
	driver.submitTo["hr/employees/create"] = "hr/employees/7"
	driver.submitTo["hr/employees/7/edit"] = "hr/employees/7"
	driver.pages["hr/employees/7"] = `<html><body>saved successfully and updated</body></html>`
	driver.deleteFound = true
	driver.specialFound = true

	var results []TestResult
	newCrud(driver).ExerciseResource(context.Background(),
		employeeGroup(routes.OpActivate), collect(&results))

	last := results[len(results)-1]
	assert.Equal(t, TypeOperation+"activate", last.Type)
	assert.Equal(t, StatusPass, last.Status)
	assert.Contains(t, driver.calls, "special:activate")
	assert.Contains(t, driver.calls, "nav:hr/employees/7/activate")
}

func TestExtractRecordID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://app.test/hr/employees/42", "42"},
		{"https://app.test/hr/employees/42/", "42"},
		{"https://app.test/hr/employees", ""},
		{"https://app.test/hr/employees/edit", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractRecordID(tt.url), tt.url)
	}
}

func TestSubstituteRecordID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"hr/employees/{id}/edit", "hr/employees/42/edit"},
		{"hr/employees/{employee}/edit", "hr/employees/42/edit"},
		{"hr/employees/{anything}", "hr/employees/42"},
		{"hr/employees", "hr/employees"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, substituteRecordID(tt.uri, "hr.employees", "42"), tt.uri)
	}
}

func TestListingURI(t *testing.T) {
	assert.Equal(t, "hr/employees", listingURI("hr/employees/{employee}"))
	assert.Equal(t, "hr/employees", listingURI("hr/employees"))
}

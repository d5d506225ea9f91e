// Package synth produces plausible form field values by semantic hint. The
// goal is maximizing the odds a Create/Update submission passes server-side
// validation so the exerciser can advance to the next CRUD stage.
package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Fallback tables for categorical fields where free-form fake data would be
// rejected by typical select-backed validation.
var (
	statusWords  = []string{"active", "inactive", "pending", "approved", "rejected", "completed", "draft"}
	departments  = []string{"IT", "HR", "Finance", "Marketing", "Sales", "Operations", "Engineering", "Support"}
	designations = []string{"Manager", "Developer", "Engineer", "Analyst", "Coordinator", "Specialist", "Assistant", "Director"}
	phonePrefix  = []string{"017", "018", "019", "015", "016"}
)

// Synthesizer generates field values. One instance serves a whole run; a
// fixed seed makes a run reproducible.
type Synthesizer struct {
	faker *gofakeit.Faker
}

// New returns a synthesizer. Seed zero picks a random seed.
func New(seed uint64) *Synthesizer {
	return &Synthesizer{faker: gofakeit.New(seed)}
}

// Value synthesizes a value for a field. nameHint is the field's name or id
// attribute, kind is the input type attribute (or tag name for textarea and
// select). suffix distinguishes the update round from the create round so the
// two submissions never collide on unique columns. Select fields return ""
// here; the caller picks a random option from the live markup instead.
func (s *Synthesizer) Value(nameHint, kind, suffix string) string {
	hint := strings.ToLower(nameHint)
	kind = strings.ToLower(kind)

	switch {
	case kind == "select", kind == "select-one":
		return ""
	case kind == "email" || strings.Contains(hint, "email"):
		return s.email(suffix)
	case kind == "password" || strings.Contains(hint, "password"):
		return s.faker.Password(true, true, true, true, false, 12)
	case kind == "tel" || strings.Contains(hint, "phone") || strings.Contains(hint, "mobile"):
		return s.faker.RandomString(phonePrefix) + s.faker.DigitN(8)
	case strings.Contains(hint, "first_name") || strings.Contains(hint, "firstname"):
		return s.faker.FirstName() + suffix
	case strings.Contains(hint, "last_name") || strings.Contains(hint, "lastname"):
		return s.faker.LastName() + suffix
	case kind == "number":
		return s.number(hint)
	case strings.Contains(hint, "name"):
		return s.faker.Name() + suffix
	case strings.Contains(hint, "address"):
		return s.faker.Address().Address
	case strings.Contains(hint, "description") || strings.Contains(hint, "comment") || kind == "textarea":
		return s.faker.Paragraph(1, 3, 10, " ") + suffix
	case kind == "date" || strings.Contains(hint, "date"):
		year := time.Now().AddDate(-1, 0, 0)
		return s.faker.DateRange(year, time.Now()).Format("2006-01-02")
	case strings.Contains(hint, "status"):
		return s.faker.RandomString(statusWords)
	case strings.Contains(hint, "department"):
		return s.faker.RandomString(departments)
	case strings.Contains(hint, "designation") || strings.Contains(hint, "position"):
		return s.faker.RandomString(designations)
	default:
		return s.faker.LetterN(10) + suffix
	}
}

func (s *Synthesizer) email(suffix string) string {
	local := strings.ToLower(s.faker.LetterN(8)) + suffix
	domains := []string{"gmail.com", "yahoo.com", "outlook.com", "example.com"}
	return fmt.Sprintf("%s@%s", local, s.faker.RandomString(domains))
}

// number picks a range suited to the field's semantic hint; typical numeric
// columns reject values far outside their business range.
func (s *Synthesizer) number(hint string) string {
	switch {
	case strings.Contains(hint, "salary"):
		return fmt.Sprint(s.faker.Number(30000, 150000))
	case strings.Contains(hint, "age"):
		return fmt.Sprint(s.faker.Number(18, 65))
	case strings.Contains(hint, "amount") || strings.Contains(hint, "price"):
		return fmt.Sprint(s.faker.Number(100, 10000))
	case strings.Contains(hint, "quantity") || strings.Contains(hint, "qty"):
		return fmt.Sprint(s.faker.Number(1, 100))
	case strings.Contains(hint, "year"):
		return fmt.Sprint(s.faker.Number(2020, 2030))
	default:
		return fmt.Sprint(s.faker.Number(1, 1000))
	}
}

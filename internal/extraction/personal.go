package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/a3tai/doc-extractor/internal/document"
)

const (
	FieldFirstName  = "first_name"
	FieldMiddleName = "middle_name"
	FieldLastName   = "last_name"
	FieldIDNumber   = "id_number"
	FieldAge        = "age"
)

const (
	idPrefixLength = 4
	maxAge         = 150
)

// Label vocabularies, most specific first. Bare name labels only count at
// the start of a line so "Last Name:" or "Фамилно име:" is never read as a
// first name.
var (
	firstNameLabels     = []string{"First Name", "Given Name", "Личное имя", "Собствено име"}
	firstNameLineLabels = []string{"Name", "Име", "Имя", "Ім'я"}
	middleNameLabels    = []string{"Middle Name", "Patronymic", "Бащино име", "Презиме", "Отчество", "По батькові"}
	lastNameLabels      = []string{"Last Name", "Family Name", "Surname", "Фамилно име", "Фамилия", "Фамілія", "Прізвище"}
	idLabels            = []string{"ID Number", "Identification Number", "Personal Number", "Identification", "Identifier", "ЕГН", "ЛНЧ", "Номер", "ID"}
	ageLabels           = []string{"Age", "Възраст", "Возраст", "Вік"}
)

const (
	nameWord = `[\p{Latin}\p{Cyrillic}][\p{Latin}\p{Cyrillic}'’\-]*`
	// singleName captures one word; fullName captures a run of words and
	// is only used after a bare "Name:" label.
	singleName = `(` + nameWord + `)`
	fullName   = `(` + nameWord + `(?:[ \t]+` + nameWord + `)*)`
	separator  = `[ \t]*[:：][ \t]*`
)

var (
	// ageAfterName reads the "Ivan Petrov, 45" convention.
	ageAfterName = regexp.MustCompile(`^[ \t]*,[ \t]*(\d{1,3})(?:\s|$)`)
	// embeddedLabel finds a following label inside a captured name.
	embeddedLabel = regexp.MustCompile(`(?i)[ \t]+(?:` + alternation(
		firstNameLabels, firstNameLineLabels, middleNameLabels, lastNameLabels, idLabels, ageLabels,
	) + `)` + separator)
)

func labelPattern(label string) string {
	parts := strings.Fields(label)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `[ \t]+`)
}

func alternation(groups ...[]string) string {
	var alts []string
	for _, g := range groups {
		for _, l := range g {
			alts = append(alts, labelPattern(l))
		}
	}
	return strings.Join(alts, "|")
}

// labeled matches label anywhere on a line that is not inside a word.
func labeled(label, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])` + labelPattern(label) + separator + value)
}

// lineStart matches label only at the start of a line.
func lineStart(label, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^[ \t]*` + labelPattern(label) + separator + value)
}

func buildPatterns(value string, labels []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, labeled(l, value))
	}
	return out
}

func lineStartPatterns(value string, labels []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, lineStart(l, value))
	}
	return out
}

type fieldSpec struct {
	name     string
	patterns []*regexp.Regexp
	isName   bool
}

// PersonalInfoExtractor reads labeled identity fields in Latin and Cyrillic
// vocabularies.
type PersonalInfoExtractor struct {
	fields []fieldSpec
}

// NewPersonalInfoExtractor compiles the label patterns.
func NewPersonalInfoExtractor() *PersonalInfoExtractor {
	return &PersonalInfoExtractor{
		fields: []fieldSpec{
			{name: FieldFirstName, isName: true, patterns: append(
				buildPatterns(singleName, firstNameLabels), lineStartPatterns(fullName, firstNameLineLabels)...)},
			{name: FieldMiddleName, isName: true, patterns: buildPatterns(singleName, middleNameLabels)},
			{name: FieldLastName, isName: true, patterns: buildPatterns(singleName, lastNameLabels)},
			{name: FieldIDNumber, patterns: buildPatterns(`(\d{4,})`, idLabels)},
			{name: FieldAge, patterns: buildPatterns(`(\d{1,3})(?:\D|$)`, ageLabels)},
		},
	}
}

type personalState struct {
	info     PersonalInfo
	resolved map[string]bool
}

func (s *personalState) resolve(field string, page int) {
	s.resolved[field] = true
	if s.info.SourcePage == 0 {
		s.info.SourcePage = page
		s.info.SourceField = field
	}
}

// Extract searches page 1 for every field, then the remaining pages in
// order for fields still unresolved. Each field keeps its first match.
func (e *PersonalInfoExtractor) Extract(pages []document.Page) PersonalInfo {
	st := &personalState{resolved: make(map[string]bool)}

	if len(pages) > 0 {
		e.scanPage(pages[0], st)
		for _, p := range pages[1:] {
			if len(st.resolved) == len(e.fields) {
				break
			}
			e.scanPage(p, st)
		}
	}

	info := st.info
	info.ScriptProfile = ClassifyScript(info.FirstName, info.MiddleName, info.LastName, info.IDPrefix)
	info.Complete = info.FirstName != "" && info.LastName != "" && info.IDPrefix != ""
	return info
}

func (e *PersonalInfoExtractor) scanPage(page document.Page, st *personalState) {
	for _, f := range e.fields {
		if st.resolved[f.name] {
			continue
		}
		e.scanField(f, page, st)
	}
}

func (e *PersonalInfoExtractor) scanField(f fieldSpec, page document.Page, st *personalState) {
	for _, re := range f.patterns {
		for _, line := range page.Lines {
			loc := re.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			raw := line[loc[2]:loc[3]]
			rest := line[loc[3]:]

			if f.isName {
				value, cut := cleanName(raw)
				if value == "" {
					continue
				}
				setField(&st.info, f.name, value)
				st.resolve(f.name, page.Number)
				if !cut && !st.resolved[FieldAge] {
					if age, ok := parseAge(ageAfterName, rest); ok {
						st.info.Age = &age
						st.resolved[FieldAge] = true
					}
				}
				return
			}

			switch f.name {
			case FieldIDNumber:
				st.info.IDPrefix = raw[:idPrefixLength]
			case FieldAge:
				age, err := strconv.Atoi(raw)
				if err != nil || age > maxAge {
					continue
				}
				st.info.Age = &age
			}
			st.resolve(f.name, page.Number)
			return
		}
	}
}

func setField(info *PersonalInfo, field, value string) {
	switch field {
	case FieldFirstName:
		info.FirstName = value
	case FieldMiddleName:
		info.MiddleName = value
	case FieldLastName:
		info.LastName = value
	}
}

// cleanName cuts a captured value at any label that follows on the same
// line and trims stray punctuation. cut reports whether a label was found.
func cleanName(raw string) (value string, cut bool) {
	if loc := embeddedLabel.FindStringIndex(raw + ":"); loc != nil && loc[0] < len(raw) {
		raw = raw[:loc[0]]
		cut = true
	}
	raw = strings.Trim(raw, " \t-'’")
	return strings.Join(strings.Fields(raw), " "), cut
}

func parseAge(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	age, err := strconv.Atoi(m[1])
	if err != nil || age > maxAge {
		return 0, false
	}
	return age, true
}

// ClassifyScript reports which of the Latin and Cyrillic scripts occur in
// the letters of values.
func ClassifyScript(values ...string) ScriptProfile {
	var latin, cyrillic bool
	for _, v := range values {
		for _, r := range v {
			switch {
			case unicode.Is(unicode.Cyrillic, r):
				cyrillic = true
			case unicode.Is(unicode.Latin, r):
				latin = true
			}
		}
	}
	switch {
	case latin && cyrillic:
		return ScriptMixed
	case cyrillic:
		return ScriptCyrillic
	case latin:
		return ScriptLatin
	default:
		return ScriptUnknown
	}
}

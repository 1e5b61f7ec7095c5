package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalInfoExtractor_Extract(t *testing.T) {
	tests := []struct {
		name        string
		pages       []string
		first       string
		middle      string
		last        string
		id          string
		script      ScriptProfile
		sourcePage  int
		sourceField string
		complete    bool
	}{
		{
			name:  "latin labels on first page",
			pages: []string{"Patient record\nFirst Name: John\nLast Name: Smith\nID: 8501011234"},
			first: "John", last: "Smith", id: "8501",
			script: ScriptLatin, sourcePage: 1, sourceField: FieldFirstName, complete: true,
		},
		{
			name:  "bulgarian labels",
			pages: []string{"Име: Иван\nБащино име: Петров\nФамилия: Георгиев\nЕГН: 7503121234"},
			first: "Иван", middle: "Петров", last: "Георгиев", id: "7503",
			script: ScriptCyrillic, sourcePage: 1, sourceField: FieldFirstName, complete: true,
		},
		{
			name:  "russian labels",
			pages: []string{"Имя: Анна\nОтчество: Сергеевна\nФамилия: Иванова\nНомер: 4510 123456"},
			first: "Анна", middle: "Сергеевна", last: "Иванова", id: "4510",
			script: ScriptCyrillic, sourcePage: 1, sourceField: FieldFirstName, complete: true,
		},
		{
			name:  "family name label is not a first name",
			pages: []string{"Фамилно име: Петров"},
			last:  "Петров", script: ScriptCyrillic, sourcePage: 1, sourceField: FieldLastName,
		},
		{
			name:  "mixed scripts",
			pages: []string{"First Name: John\nSurname: Петров"},
			first: "John", last: "Петров",
			script: ScriptMixed, sourcePage: 1, sourceField: FieldFirstName,
		},
		{
			name:   "nothing resolved",
			pages:  []string{"Lab results\nHTD 3.5", "WBC 5.1"},
			script: ScriptUnknown,
		},
		{
			name:  "fallback to later pages",
			pages: []string{"Summary", "Last Name: Smith", "First Name: John\nIdentification Number: 123456789"},
			first: "John", last: "Smith", id: "1234",
			script: ScriptLatin, sourcePage: 2, sourceField: FieldLastName, complete: true,
		},
		{
			name:  "first page wins over later pages",
			pages: []string{"Last Name: Smith", "First Name: John\nLast Name: Other"},
			first: "John", last: "Smith",
			script: ScriptLatin, sourcePage: 1, sourceField: FieldLastName,
		},
		{
			name:  "short id ignored",
			pages: []string{"First Name: John\nID: 12"},
			first: "John", script: ScriptLatin, sourcePage: 1, sourceField: FieldFirstName,
		},
		{
			name:  "two fields on one line",
			pages: []string{"Name: John Last Name: Smith"},
			first: "John", last: "Smith",
			script: ScriptLatin, sourcePage: 1, sourceField: FieldFirstName,
		},
		{
			name:   "label inside a word is ignored",
			pages:  []string{"Paid: 123456\nFirstname John"},
			script: ScriptUnknown,
		},
	}

	ex := NewPersonalInfoExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ex.Extract(pagesOf(tt.pages...))
			assert.Equal(t, tt.first, info.FirstName, "first name")
			assert.Equal(t, tt.middle, info.MiddleName, "middle name")
			assert.Equal(t, tt.last, info.LastName, "last name")
			assert.Equal(t, tt.id, info.IDPrefix, "id prefix")
			assert.Equal(t, tt.script, info.ScriptProfile)
			assert.Equal(t, tt.sourcePage, info.SourcePage)
			assert.Equal(t, tt.sourceField, info.SourceField)
			assert.Equal(t, tt.complete, info.Complete)
		})
	}
}

func TestPersonalInfoExtractor_Age(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  *int
	}{
		{"after full name", []string{"Name: Ivan Petrov, 45\nAge: 50"}, intPtr(45)},
		{"after first name", []string{"First Name: Ivan, 33"}, intPtr(33)},
		{"labeled", []string{"First Name: Ivan\nAge: 52 years"}, intPtr(52)},
		{"cyrillic label", []string{"Възраст: 7"}, intPtr(7)},
		{"out of range", []string{"Age: 200"}, nil},
		{"too many digits", []string{"Age: 1234"}, nil},
		{"absent", []string{"First Name: Ivan"}, nil},
	}

	ex := NewPersonalInfoExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ex.Extract(pagesOf(tt.pages...))
			if tt.want == nil {
				assert.Nil(t, info.Age)
				assert.Empty(t, info.AgeString())
				return
			}
			require.NotNil(t, info.Age)
			assert.Equal(t, *tt.want, *info.Age)
		})
	}
}

func TestPersonalInfoExtractor_NoPages(t *testing.T) {
	info := NewPersonalInfoExtractor().Extract(nil)
	assert.Equal(t, ScriptUnknown, info.ScriptProfile)
	assert.False(t, info.Complete)
	assert.Zero(t, info.SourcePage)
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"John Adam Smith": "JAS",
		"Иван":            "И",
		"иван петров":     "ИП",
		"  mary  o'neil ": "MO",
		"":                "",
		"'quoted name":    "QN",
	}
	for name, want := range tests {
		assert.Equal(t, want, Initials(name), name)
	}
}

func TestPersonalInfo_FullName(t *testing.T) {
	assert.Equal(t, "John Adam Smith",
		PersonalInfo{FirstName: "John", MiddleName: "Adam", LastName: "Smith"}.FullName())
	assert.Equal(t, "John Smith",
		PersonalInfo{FirstName: "John Smith", LastName: "Smith"}.FullName())
	assert.Equal(t, "Smith", PersonalInfo{LastName: "Smith"}.FullName())
	assert.Equal(t, "JAS",
		PersonalInfo{FirstName: "John", MiddleName: "Adam", LastName: "Smith"}.Initials())
}

func TestClassifyScript(t *testing.T) {
	assert.Equal(t, ScriptLatin, ClassifyScript("John", "8501"))
	assert.Equal(t, ScriptCyrillic, ClassifyScript("Иван"))
	assert.Equal(t, ScriptMixed, ClassifyScript("John", "Иван"))
	assert.Equal(t, ScriptUnknown, ClassifyScript("", "1234"))
}

func intPtr(v int) *int { return &v }

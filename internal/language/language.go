package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// named lists languages that may be given by English name in configuration.
var named = []xlang.Tag{
	xlang.English, xlang.Spanish, xlang.French, xlang.German, xlang.Italian,
	xlang.Portuguese, xlang.Japanese, xlang.Korean, xlang.Chinese, xlang.Russian,
	xlang.Arabic, xlang.Hindi, xlang.Dutch, xlang.Polish, xlang.Swedish,
	xlang.Danish, xlang.Norwegian, xlang.Finnish,
}

var byName map[string]xlang.Tag

func init() {
	byName = make(map[string]xlang.Tag, len(named))
	namer := display.English.Tags()
	for _, tag := range named {
		byName[strings.ToLower(namer.Name(tag))] = tag
	}
}

func parse(code string) (xlang.Tag, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlang.Und, false
	}
	if tag, ok := byName[code]; ok {
		return tag, true
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return xlang.Und, false
	}
	if _, conf := tag.Base(); conf == xlang.No {
		return xlang.Und, false
	}
	return tag, true
}

// ToISO2 converts a language code, tag, or English name to ISO 639-1.
// Returns empty string for unrecognized input or languages without a
// two-letter code.
func ToISO2(code string) string {
	tag, ok := parse(code)
	if !ok {
		return ""
	}
	base, _ := tag.Base()
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns the English name for a language code, "Unknown" for
// empty input, or the uppercased input when unrecognized.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	base, _ := tag.Base()
	return display.English.Languages().Name(base)
}

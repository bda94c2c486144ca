package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// named lists the languages whose English names are accepted as input.
var named = []language.Tag{
	language.English, language.Spanish, language.French, language.German,
	language.Italian, language.Portuguese, language.Japanese, language.Korean,
	language.Chinese, language.Russian, language.Arabic, language.Hindi,
	language.Dutch, language.Polish, language.Swedish, language.Danish,
	language.Norwegian, language.Finnish, language.Turkish, language.Ukrainian,
	language.Indonesian, language.Vietnamese, language.Thai, language.Greek,
	language.Hebrew, language.Czech, language.Hungarian, language.Romanian,
	language.Bengali, language.Tamil, language.Urdu, language.Persian,
}

var byName = func() map[string]string {
	names := display.English.Languages()
	m := make(map[string]string, len(named))
	for _, tag := range named {
		m[strings.ToLower(names.Name(tag))] = tag.String()
	}
	return m
}()

// Normalize converts a language code or English language name to its
// canonical BCP 47 form. ISO 639-2 codes collapse to their two-letter
// equivalent. ok is false when input is not recognized.
func Normalize(input string) (code string, ok bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if code, ok := byName[strings.ToLower(input)]; ok {
		return code, true
	}
	tag, err := language.Parse(strings.ReplaceAll(input, "_", "-"))
	if err != nil || tag == language.Und {
		return "", false
	}
	return tag.String(), true
}

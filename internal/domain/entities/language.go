package entities

// Language is a BCP-47 primary language subtag of the supported pair
type Language string

const (
	LanguageJapanese Language = "ja"
	LanguageKorean   Language = "ko"
)

// IsSupported reports whether l belongs to the ja/ko pair
func (l Language) IsSupported() bool {
	return l == LanguageJapanese || l == LanguageKorean
}

// Counterpart returns the other language of the pair.
// Unsupported languages map to themselves.
func (l Language) Counterpart() Language {
	switch l {
	case LanguageJapanese:
		return LanguageKorean
	case LanguageKorean:
		return LanguageJapanese
	default:
		return l
	}
}

// Label returns the human readable name of l
func (l Language) Label() string {
	switch l {
	case LanguageJapanese:
		return "Japanese"
	case LanguageKorean:
		return "Korean"
	default:
		return string(l)
	}
}

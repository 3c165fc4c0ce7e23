package domain

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSerbian Language = "sr"
)

var DefaultLanguage = LanguageEnglish

var SupportedLanguages = map[Language]bool{
	LanguageEnglish: true,
	LanguageSerbian: true,
}

// Package i18n renders rejection messages in the caller's language.
package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.en.toml", "active.fr.toml"}

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	matcher         language.Matcher
	defaultLanguage language.Tag
	logger          *slog.Logger
}

// NewTranslator builds a Translator whose fallback language is defaultLocale
// (English when it does not parse).
func NewTranslator(defaultLocale string, logger *slog.Logger) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Warn("i18n: failed to load message file", "file", file, "error", err)
		}
	}

	return &Translator{
		bundle:          bundle,
		matcher:         language.NewMatcher(bundle.LanguageTags()),
		defaultLanguage: tag,
		logger:          logger,
	}
}

// Negotiate picks the supported language best matching an Accept-Language
// header value.
func (t *Translator) Negotiate(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return t.defaultLanguage
	}
	_, idx, conf := t.matcher.Match(parseAccept(acceptLanguage)...)
	if conf == language.No {
		return t.defaultLanguage
	}
	return t.bundle.LanguageTags()[idx]
}

func parseAccept(header string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	return tags
}

// T renders the message identified by key. It falls back to the default
// language, then to the key itself.
func (t *Translator) T(lang language.Tag, key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	localizer := i18n.NewLocalizer(t.bundle, lang.String(), t.defaultLanguage.String())
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Debug("i18n: localize failed", "key", key, "lang", lang.String(), "error", err)
		return key
	}
	return msg
}

// Message renders a domain error. Codes without a translation keep the
// error's own message.
func (t *Translator) Message(lang language.Tag, de *domain.Error) string {
	msg := t.T(lang, string(de.Code), de.Params)
	if msg == string(de.Code) {
		return de.Message
	}
	return msg
}

// Package i18n translates UI labels. Locale files are embedded; pt-BR is the
// source language and en is the alternative.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is used when no language is configured.
const DefaultLang = "pt-BR"

type ctxKey struct{}

type langCtxKey struct{}

var (
	bundle    *i18n.Bundle
	supported []language.Tag
	matcher   language.Matcher
)

// Init loads every embedded locale. lang becomes the bundle's default and
// must be one of the loaded locales.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	tags := []language.Tag{tag}
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		mf, err := b.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		if mf.Tag == tag {
			found = true
		} else {
			tags = append(tags, mf.Tag)
		}
		slog.Debug("loaded locale file", "file", e.Name(), "messages", len(mf.Messages))
	}
	if !found {
		return fmt.Errorf("no translations for language %q", lang)
	}

	bundle = b
	supported = tags
	matcher = language.NewMatcher(tags)
	return nil
}

// Supported returns the loaded locales, the default first.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match picks the loaded locale that best serves the given preferences,
// each either a tag or an Accept-Language header value. Empty preferences
// are skipped; with no usable preference the default locale is returned.
func Match(prefs ...string) language.Tag {
	var want []language.Tag
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, tags...)
	}
	if len(want) == 0 || matcher == nil {
		return defaultTag()
	}
	_, i, conf := matcher.Match(want...)
	if conf == language.No {
		return defaultTag()
	}
	return supported[i]
}

func defaultTag() language.Tag {
	if len(supported) > 0 {
		return supported[0]
	}
	return language.MustParse(DefaultLang)
}

// NewLocalizer creates a localizer for the given language.
func NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// WithLang stores the request language and its localizer in the context.
func WithLang(ctx context.Context, tag language.Tag) context.Context {
	ctx = context.WithValue(ctx, langCtxKey{}, tag)
	return WithLocalizer(ctx, NewLocalizer(tag.String()))
}

// Lang returns the request language, or the default locale.
func Lang(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(langCtxKey{}).(language.Tag); ok {
		return tag
	}
	return defaultTag()
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return i18n.NewLocalizer(bundle, DefaultLang)
}

func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	s, err := localizerFromCtx(ctx).Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message; {{.Count}} is available to the text.
func Tp(ctx context.Context, msgID string, count int) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

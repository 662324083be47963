// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// SourceCodes maps internal language codes to the upstream source_lang values.
// The upstream API accepts only bare codes for source text.
var SourceCodes = map[string]string{
	"bg": "BG",
	"cs": "CS",
	"da": "DA",
	"de": "DE",
	"el": "EL",
	"en": "EN",
	"es": "ES",
	"et": "ET",
	"fi": "FI",
	"fr": "FR",
	"hu": "HU",
	"id": "ID",
	"it": "IT",
	"ja": "JA",
	"ko": "KO",
	"lt": "LT",
	"lv": "LV",
	"nb": "NB",
	"nl": "NL",
	"pl": "PL",
	"pt": "PT",
	"ro": "RO",
	"ru": "RU",
	"sk": "SK",
	"sl": "SL",
	"sv": "SV",
	"tr": "TR",
	"uk": "UK",
	"zh": "ZH",
}

// TargetCodes maps internal language codes to the upstream target_lang values.
// English and Portuguese must name a regional variant on the target side, so
// "en" and "pt" differ from their SourceCodes entries.
var TargetCodes = map[string]string{
	"bg":    "BG",
	"cs":    "CS",
	"da":    "DA",
	"de":    "DE",
	"el":    "EL",
	"en":    "EN-US",
	"en-gb": "EN-GB",
	"es":    "ES",
	"et":    "ET",
	"fi":    "FI",
	"fr":    "FR",
	"hu":    "HU",
	"id":    "ID",
	"it":    "IT",
	"ja":    "JA",
	"ko":    "KO",
	"lt":    "LT",
	"lv":    "LV",
	"nb":    "NB",
	"nl":    "NL",
	"pl":    "PL",
	"pt":    "PT-BR",
	"pt-pt": "PT-PT",
	"ro":    "RO",
	"ru":    "RU",
	"sk":    "SK",
	"sl":    "SL",
	"sv":    "SV",
	"tr":    "TR",
	"uk":    "UK",
	"zh":    "ZH",
}

// SourceCode returns the upstream source_lang value for an internal code.
func SourceCode(code string) (string, error) {
	_, v, err := lookup(SourceCodes, code, DirectionSource)
	return v, err
}

// TargetCode returns the upstream target_lang value for an internal code.
func TargetCode(code string) (string, error) {
	_, v, err := lookup(TargetCodes, code, DirectionTarget)
	return v, err
}

// CanonicalTarget returns the TargetCodes key code resolves through, so
// variants sharing an upstream target collapse to one internal code
// ("en-US" -> "en", "es-MX" -> "es", "pt-PT" -> "pt-pt").
func CanonicalTarget(code string) (string, error) {
	key, _, err := lookup(TargetCodes, code, DirectionTarget)
	return key, err
}

// SupportsTarget reports whether code can be used as a target language.
func SupportsTarget(code string) bool {
	_, err := TargetCode(code)
	return err == nil
}

// TargetLanguages returns the internal codes accepted as target languages, sorted.
func TargetLanguages() []string {
	codes := make([]string, 0, len(TargetCodes))
	for code := range TargetCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Normalize canonicalises a language code ("ES_mx" -> "es-mx"). It returns
// an empty string for codes that are not valid BCP 47 tags.
func Normalize(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return ""
	}
	return strings.ToLower(tag.String())
}

// lookup resolves code in m, trying the full canonical tag first and then
// its base language, so "es-MX" resolves through "es". It returns the
// matched key and its value.
func lookup(m map[string]string, code string, dir Direction) (string, string, error) {
	canonical := Normalize(code)
	if canonical == "" {
		return "", "", &UnsupportedLanguageError{Code: code, Direction: dir}
	}
	if v, ok := m[canonical]; ok {
		return canonical, v, nil
	}

	tag := language.Make(canonical)
	base, conf := tag.Base()
	if conf != language.No {
		if v, ok := m[base.String()]; ok {
			return base.String(), v, nil
		}
	}

	return "", "", &UnsupportedLanguageError{Code: code, Direction: dir}
}

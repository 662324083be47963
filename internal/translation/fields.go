// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translation produces translated field values for blogs and
// categories and records which translations already exist.
package translation

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ocms-translate/internal/translate"
)

// BlogFields are the translatable fields of a blog.
// Optional fields are nil when the blog has no value for them.
type BlogFields struct {
	Title          string
	Content        string
	TitlePunch     *string
	SEODescription *string
}

// CategoryFields are the translatable fields of a category.
type CategoryFields struct {
	Name string
}

// EntityTranslator turns source field values into translated ones through a
// translate.Translator. It does not touch the store.
type EntityTranslator struct {
	gateway translate.Translator
	policy  *bluemonday.Policy
}

// NewEntityTranslator creates an EntityTranslator backed by gateway.
func NewEntityTranslator(gateway translate.Translator) *EntityTranslator {
	return &EntityTranslator{
		gateway: gateway,
		policy:  bluemonday.UGCPolicy(),
	}
}

// TranslateBlogFields translates title, content and the optional fields
// that are present in one gateway call.
func (t *EntityTranslator) TranslateBlogFields(ctx context.Context, src BlogFields, from, to string) (BlogFields, error) {
	texts := []string{src.Title, src.Content}
	if src.TitlePunch != nil {
		texts = append(texts, *src.TitlePunch)
	}
	if src.SEODescription != nil {
		texts = append(texts, *src.SEODescription)
	}

	out, err := t.gateway.Translate(ctx, texts, from, to)
	if err != nil {
		return BlogFields{}, err
	}
	if len(out) != len(texts) {
		return BlogFields{}, fmt.Errorf("translator returned %d values for %d fields", len(out), len(texts))
	}

	result := BlogFields{
		Title:   out[0],
		Content: t.policy.Sanitize(out[1]),
	}
	i := 2
	if src.TitlePunch != nil {
		result.TitlePunch = &out[i]
		i++
	}
	if src.SEODescription != nil {
		result.SEODescription = &out[i]
	}

	return result, nil
}

// TranslateCategoryFields translates the category name.
func (t *EntityTranslator) TranslateCategoryFields(ctx context.Context, src CategoryFields, from, to string) (CategoryFields, error) {
	out, err := t.gateway.Translate(ctx, []string{src.Name}, from, to)
	if err != nil {
		return CategoryFields{}, err
	}
	if len(out) != 1 {
		return CategoryFields{}, fmt.Errorf("translator returned %d values for 1 field", len(out))
	}
	return CategoryFields{Name: out[0]}, nil
}

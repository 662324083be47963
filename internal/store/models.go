// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type Language struct {
	Code string
	Name string
}

type Author struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

type Tag struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Category struct {
	ID                 int64
	Name               string
	Slug               string
	BaseLanguage       string
	IsTranslation      bool
	OriginalCategoryID sql.NullInt64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Blog struct {
	ID             int64
	Title          string
	Content        string
	TitlePunch     sql.NullString
	SeoDescription sql.NullString
	BaseLanguage   string
	Slug           string
	CategoryID     sql.NullInt64
	IsTranslation  bool
	OriginalBlogID sql.NullInt64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Translation struct {
	ID           int64
	EntityKind   string
	OriginalID   int64
	LanguageCode string
	TranslatedID int64
	CreatedAt    time.Time
}

type TranslationJob struct {
	Seq            int64
	ID             string
	SourceBlogID   int64
	TargetLanguage string
	Status         string
	Priority       int64
	RetryCount     int64
	ErrorMessage   sql.NullString
	CreatedAt      time.Time
	ProcessedAt    sql.NullTime
	CompletedAt    sql.NullTime
}

type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

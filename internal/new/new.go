// Package new scaffolds content files with front matter filled in.
package new

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"faro/builder/config"
)

// unsafeChars matches characters that break filenames or URLs.
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeSlug turns a post title into a filename slug: lowercase,
// unsafe characters stripped, word runs joined by single hyphens,
// capped at 100 bytes.
func SanitizeSlug(title string) string {
	clean := unsafeChars.ReplaceAllString(strings.ToLower(title), "")
	words := strings.FieldsFunc(clean, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	slug := strings.Join(words, "-")
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	return slug
}

const frontMatterTemplate = `---
title: "%s"
date: "%s"
description: ""
tags: []
categories: []
pinned: false
draft: false
---

Write your opening paragraph here.
`

// Run creates a content file for the given title under the configured
// content directory. An existing file is never overwritten.
func Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: faro new \"My New Post Title\"")
	}
	title := strings.TrimSpace(args[0])

	slug := SanitizeSlug(title)
	if slug == "" {
		return fmt.Errorf("title %q produces an empty slug", title)
	}

	cfg := config.Load(args[1:])
	path := filepath.Join(cfg.ContentDir, slug+".md")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(cfg.ContentDir, 0755); err != nil {
		return fmt.Errorf("create content directory: %w", err)
	}

	body := fmt.Sprintf(frontMatterTemplate, title, time.Now().Format("2006-01-02"))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	fmt.Printf("✅ Created %s\n", path)
	return nil
}

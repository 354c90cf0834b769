// Package scaffold initializes a site skeleton in the working
// directory.
package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"faro"
)

const defaultFaroYaml = `# Site configuration
title: "My Faro Site"
description: "A new site built with faro"
baseURL: "http://localhost:3276"
language: "en"

author:
  name: "Your Name"
  url: "https://example.org"

postsPerPage: 10
compressImages: true

theme: "default"
themeDir: "themes"

features:
  newsletter: false
  generators:
    rss: true
    sitemap: true
    # Card drawing needs .ttf fonts under themes/<name>/static/fonts/.
    socialCards: false

# Deploy settings for 'faro publish'. Tokens are read from the
# environment (FARO_HOSTING_TOKEN, GITHUB_TOKEN), never from this file.
#publish:
#  appID: ""
#  repo: "owner/site"
#  previewRemote: "git@github.com:owner/site-previews.git"
#  previewBaseURL: "https://previews.example.org"
`

const firstPost = `---
title: "Hello World"
date: "%s"
description: "The first post on a brand new faro site."
tags: ["welcome"]
categories: ["general"]
pinned: false
draft: false
---

## Welcome

This is your first post. Edit it at ` + "`content/hello-world.md`" + `,
then run the dev server:

` + "```bash" + `
faro serve
` + "```" + `
`

// Run lays out a new site: directories, a starter faro.yaml, the
// default theme and a first post. Existing files are never touched.
func Run(args []string) error {
	fmt.Println("🌱 Initializing a new faro site...")

	for _, dir := range []string{"content", "themes", "public"} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
		fmt.Printf("   📁 %s/\n", dir)
	}

	if _, err := os.Stat("faro.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("faro.yaml", []byte(defaultFaroYaml), 0644); err != nil {
			return fmt.Errorf("create faro.yaml: %w", err)
		}
		fmt.Println("   📄 faro.yaml")
	} else {
		fmt.Println("   ⚠️ faro.yaml already exists, keeping it")
	}

	if err := writeDefaultTheme(); err != nil {
		return err
	}

	postPath := filepath.Join("content", "hello-world.md")
	if _, err := os.Stat(postPath); os.IsNotExist(err) {
		content := fmt.Sprintf(firstPost, time.Now().Format("2006-01-02"))
		if err := os.WriteFile(postPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("create first post: %w", err)
		}
		fmt.Println("   📝 content/hello-world.md")
	}

	fmt.Println("\n✅ Site initialized.")
	fmt.Println("   👉 Run: faro serve")
	return nil
}

// writeDefaultTheme unpacks the embedded default theme. A theme
// directory already on disk is left alone so local edits survive a
// re-run.
func writeDefaultTheme() error {
	themeRoot := filepath.Join("themes", "default")
	if _, err := os.Stat(themeRoot); err == nil {
		fmt.Println("   ⚠️ themes/default already exists, keeping it")
		return nil
	}

	err := fs.WalkDir(faro.DefaultTheme, "themes/default", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.FromSlash(path), 0755)
		}
		data, err := faro.DefaultTheme.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.FromSlash(path), data, 0644)
	})
	if err != nil {
		return fmt.Errorf("unpack default theme: %w", err)
	}
	fmt.Println("   🎨 themes/default/")
	return nil
}

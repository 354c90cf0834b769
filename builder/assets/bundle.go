package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"faro/builder/utils"
)

// BundleOptions configures one asset build.
type BundleOptions struct {
	SrcDir     string // theme static dir
	DestDir    string // output static dir
	OutputRoot string // site output root; asset URLs are relative to it
	Minify     bool
	Newsletter bool // bundle the newsletter popup script
	OnWrite    func(string)
}

// Bundle compiles the theme's JS and CSS entry points into DestDir with
// hashed names and returns the logical-path to hashed-URL map templates
// resolve assets through ("/static/js/main.js" to its fingerprinted URL).
func Bundle(srcFs, destFs afero.Fs, opts BundleOptions) (map[string]string, error) {
	fmt.Println("🎨 Bundling theme assets...")

	js, css, err := entryPoints(srcFs, opts)
	if err != nil {
		return nil, err
	}

	assets := make(map[string]string)

	// CSS is bundled so @import and font references resolve; JS entry
	// points stay standalone to avoid wrapping vendored libraries.
	if err := build(destFs, css, true, opts, assets); err != nil {
		return nil, err
	}
	if err := build(destFs, js, false, opts, assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func entryPoints(srcFs afero.Fs, opts BundleOptions) (js, css []string, err error) {
	err = afero.Walk(srcFs, opts.SrcDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".js":
			if !opts.Newsletter && filepath.Base(path) == "newsletter.js" {
				return nil
			}
			js = append(js, path)
		case ".css":
			css = append(css, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan theme assets: %w", err)
	}
	return js, css, nil
}

func build(destFs afero.Fs, entries []string, bundle bool, opts BundleOptions, assets map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	options := api.BuildOptions{
		EntryPoints:       entries,
		Bundle:            bundle,
		Write:             false,
		Outdir:            opts.DestDir,
		Outbase:           opts.SrcDir,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		Sourcemap:         api.SourceMapExternal,
		Metafile:          true,
		Loader: map[string]api.Loader{
			".woff2": api.LoaderFile,
			".woff":  api.LoaderFile,
			".ttf":   api.LoaderFile,
			".png":   api.LoaderFile,
			".webp":  api.LoaderFile,
			".svg":   api.LoaderFile,
		},
	}
	if opts.Minify {
		options.EntryNames = "[dir]/[name].[hash]"
		options.AssetNames = "assets/[name].[hash]"
	}

	result := api.Build(options)
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild reported %d errors", len(result.Errors))
	}

	for _, out := range result.OutputFiles {
		if err := destFs.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(destFs, out.Path, out.Contents, 0644); err != nil {
			return err
		}
		if opts.OnWrite != nil {
			opts.OnWrite(out.Path)
		}
	}

	return mapEntries(result.Metafile, opts, assets)
}

// mapEntries reads esbuild's metafile to pair each entry point with its
// hashed output URL.
func mapEntries(metafile string, opts BundleOptions, assets map[string]string) error {
	var meta struct {
		Outputs map[string]struct {
			EntryPoint string `json:"entryPoint"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return fmt.Errorf("parse esbuild metafile: %w", err)
	}

	for outPath, info := range meta.Outputs {
		if info.EntryPoint == "" {
			continue
		}
		entryAbs, err := filepath.Abs(info.EntryPoint)
		if err != nil {
			continue
		}
		entryRel, err := utils.SafeRel(opts.SrcDir, entryAbs)
		if err != nil {
			continue
		}
		outAbs, err := filepath.Abs(outPath)
		if err != nil {
			continue
		}
		outRel, err := utils.SafeRel(opts.OutputRoot, outAbs)
		if err != nil {
			continue
		}
		assets["/static/"+entryRel] = "/" + outRel
	}
	return nil
}

package utils

import (
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// maxImageWidth is the resize bound for converted images; wider
// sources are scaled down before encoding.
const maxImageWidth = 1200

var webpOpts = &webp.Options{Lossless: false, Quality: 80}

// CopyDirVFS mirrors srcDir into dstDir. With compress set, raster
// images are converted to .webp on a JobPool sized by imageWorkers;
// everything else streams through unchanged. Extensions listed in
// excludeExts are skipped, and onWrite (optional) observes every path
// produced.
func CopyDirVFS(ctx context.Context, srcFs, dstFs afero.Fs, srcDir, dstDir string, compress bool, excludeExts []string, onWrite func(string), cacheDir string, imageWorkers int) error {
	if err := dstFs.MkdirAll(dstDir, 0755); err != nil {
		return fmt.Errorf("create destination %s: %w", dstDir, err)
	}

	pipe := &imagePipeline{src: srcFs, dest: dstFs, cacheDir: cacheDir}

	type conversion struct {
		src, dst string
	}
	pool := NewJobPool(ctx, imageWorkers, func(c conversion) {
		if err := pipe.convert(c.src, c.dst); err != nil {
			pipe.fail(fmt.Errorf("convert %s: %w", c.src, err))
			return
		}
		if onWrite != nil {
			onWrite(c.dst)
		}
	})

	werr := afero.Walk(srcFs, srcDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := SafeRel(srcDir, path)
		if err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(excludeExts, ext) {
			return nil
		}

		if compress && isRaster(ext) {
			dst := filepath.Join(dstDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".webp")
			pool.Send(conversion{src: path, dst: dst})
			return nil
		}

		dst := filepath.Join(dstDir, rel)
		if err := copyFileVFS(srcFs, dstFs, path, dst); err != nil {
			return err
		}
		if onWrite != nil {
			onWrite(dst)
		}
		return nil
	})

	pool.Wait()

	if werr != nil {
		return werr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pipe.firstErr()
}

func isRaster(ext string) bool {
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png"
}

func copyFileVFS(srcFs, dstFs afero.Fs, src, dst string) error {
	if err := dstFs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := srcFs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := dstFs.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// imagePipeline converts raster images to webp on their way into the
// output tree, backed by an on-disk conversion cache keyed on the
// source's identity.
type imagePipeline struct {
	src      afero.Fs
	dest     afero.Fs
	cacheDir string

	mu   sync.Mutex
	errs []error
}

func (p *imagePipeline) fail(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}

func (p *imagePipeline) firstErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs[0]
}

// convert produces dst from src through three tiers: reuse the on-disk
// output when it is at least as new as the source, then the conversion
// cache, then a full decode/resize/encode.
func (p *imagePipeline) convert(src, dst string) error {
	info, statErr := p.src.Stat(src)

	if statErr == nil && p.reuseExisting(dst, info) {
		return nil
	}

	var cfile string
	if p.cacheDir != "" && statErr == nil {
		cfile = p.cachePath(src, info)
		if data, err := os.ReadFile(cfile); err == nil {
			return WriteFileVFS(p.dest, dst, data)
		}
	}

	img, err := p.decode(src)
	if err != nil {
		return err
	}

	if err := p.dest.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	if cfile != "" {
		if data, err := p.encodeCached(cfile, img); err == nil {
			return afero.WriteFile(p.dest, dst, data, 0644)
		}
		// cache write failed; encode straight to the destination
	}

	out, err := p.dest.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	return webp.Encode(out, img, webpOpts)
}

// reuseExisting loads a previously converted file back into the VFS
// when the source has not changed since, skipping the re-encode.
func (p *imagePipeline) reuseExisting(dst string, srcInfo fs.FileInfo) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil || srcInfo.ModTime().After(dstInfo.ModTime()) {
		return false
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return false
	}
	return afero.WriteFile(p.dest, dst, data, 0644) == nil
}

// cachePath keys the conversion cache on path, size and mtime, so an
// edited image never serves a stale conversion.
func (p *imagePipeline) cachePath(src string, info fs.FileInfo) string {
	key := fmt.Sprintf("%s-%d-%d", src, info.Size(), info.ModTime().UnixNano())
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(p.cacheDir, hex.EncodeToString(sum[:])+".webp")
}

func (p *imagePipeline) decode(src string) (image.Image, error) {
	f, err := p.src.Open(src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}
	return img, nil
}

// encodeCached writes the conversion into the cache file first, then
// hands back its bytes for the destination write.
func (p *imagePipeline) encodeCached(cfile string, img image.Image) ([]byte, error) {
	f, err := os.Create(cfile)
	if err != nil {
		return nil, err
	}
	err = webp.Encode(f, img, webpOpts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return os.ReadFile(cfile)
}

package publish

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// ArtifactName is the packed site tarball written next to the output
// tree so CI can retain one file per build.
const ArtifactName = "site.tar.gz"

// PackArtifact packs art.Root into site.tar.gz beside the output tree
// and records the path on the artifact. Entry names are slash-separated
// and relative to the root, so the tree unpacks anywhere.
func PackArtifact(art *Artifact) error {
	dest := filepath.Join(filepath.Dir(art.Root), ArtifactName)

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(art.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(art.Root, path)
		if err != nil {
			return err
		}
		if rel == "." || d.Name() == ".faro-build.lock" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		// The output tree holds only files and directories; anything
		// else (sockets, device nodes) has no business in the artifact.
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("pack %s: %w", art.Root, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finish gzip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	art.TarballPath = dest
	return nil
}

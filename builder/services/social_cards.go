package services

import (
	"io"
	"os"
	"path/filepath"

	"faro/builder/generators"
	"faro/builder/utils"
)

// socialCardTask is one og:image to materialize in the output tree.
type socialCardTask struct {
	sourcePath   string // content-relative, keys the card hash mapping
	cardDestPath string
	inputHash    string // front matter digest the card is drawn from
	card         generators.Card
}

// generateSocialCard materializes one card: copied from the flat-file
// cache when a card for this front matter digest exists, drawn otherwise.
// Drawing goes through the cache so the next build can reuse it.
func (s *postService) generateSocialCard(t socialCardTask) {
	cachedPath := s.cache.SocialCardPath(t.inputHash)

	if t.inputHash != "" {
		if cachedFile, err := os.Open(cachedPath); err == nil {
			copyErr := s.copyCard(cachedFile, t.cardDestPath)
			_ = cachedFile.Close()
			if copyErr == nil {
				s.recordCard(t, false)
				return
			}
			s.log.Warn("Failed to copy cached social card", "path", t.cardDestPath, "error", copyErr)
		}
	}

	_ = os.MkdirAll(filepath.Dir(cachedPath), 0755)
	if err := generators.GenerateSocialCardToDisk(s.src, &s.cfg.SocialCards, t.card, cachedPath); err != nil {
		s.log.Error("Failed to render social card", "path", cachedPath, "error", err)

		// Last resort: draw straight into the output, uncached.
		if err := generators.GenerateSocialCard(s.dst, s.src, &s.cfg.SocialCards, t.card, t.cardDestPath); err != nil {
			s.log.Error("Failed to render social card fallback", "path", t.cardDestPath, "error", err)
			return
		}
		s.metrics.CardsGenerated.Add(1)
		s.pages.RegisterFile(t.cardDestPath)
		return
	}

	data, err := os.ReadFile(cachedPath)
	if err != nil {
		s.log.Error("Failed to read rendered social card", "path", cachedPath, "error", err)
		return
	}
	if err := utils.WriteFileVFS(s.dst, t.cardDestPath, data); err != nil {
		s.log.Error("Failed to write social card", "path", t.cardDestPath, "error", err)
		return
	}
	s.recordCard(t, true)
}

func (s *postService) copyCard(src io.Reader, destPath string) error {
	if err := s.dst.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	out, err := s.dst.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *postService) recordCard(t socialCardTask, drawn bool) {
	if drawn {
		s.metrics.CardsGenerated.Add(1)
	}
	if err := s.cache.SetSocialCardHash(t.sourcePath, t.inputHash); err != nil {
		s.log.Warn("Failed to record social card hash", "path", t.sourcePath, "error", err)
	}
	s.pages.RegisterFile(t.cardDestPath)
}

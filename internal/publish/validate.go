package publish

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateOutput checks the two facts every deploy step depends on:
// the output root exists and it contains a root index document. Both
// missing cases end the pipeline in Rejected before any side effect.
func ValidateOutput(root string) (*Artifact, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("output root %s missing: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output root %s is not a directory", root)
	}

	indexPath := filepath.Join(root, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("root index document missing in %s: %w", root, err)
	}

	return &Artifact{Root: root, IndexPath: indexPath}, nil
}

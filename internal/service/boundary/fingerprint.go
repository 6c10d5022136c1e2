package boundary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"geoenrich/internal/kml"
)

// Fingerprint identifies the answers an index built from path with these
// options would give. It changes whenever the boundary file contents or an
// option that affects containment changes. LinearScan is left out because
// it returns the same keys as the R-tree.
func Fingerprint(path string, kmlOpts kml.Options, opts Options) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for fingerprinting: %w", path, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to read %s for fingerprinting: %w", path, err)
	}
	fmt.Fprintf(hash, "|geodesic=%t|strict=%t", opts.Geodesic, kmlOpts.StrictMultiGeometry)

	return hex.EncodeToString(hash.Sum(nil))[:16], nil
}

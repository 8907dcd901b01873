package engine

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/bamsammich/devfs/internal/vfs"
)

// HashFile computes the BLAKE3 hash of path on fsys, returning the
// hex-encoded digest.
func HashFile(fsys vfs.FileSystem, path string) (string, error) {
	f, err := fsys.OpenRead(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyCopy compares the digests of a copied file on both sides.
func verifyCopy(src vfs.FileSystem, srcPath string, dst vfs.FileSystem, dstPath string) error {
	srcHash, err := HashFile(src, srcPath)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	dstHash, err := HashFile(dst, dstPath)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if srcHash != dstHash {
		return fmt.Errorf("verify %s: checksum mismatch (src %s, dst %s)", dstPath, srcHash[:16], dstHash[:16])
	}
	return nil
}

// Package archive keeps a best-effort history of raw feed payloads. A
// payload is written only when its content differs from the previously
// archived one, judged by a single hash over the whole payload.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lastHashFile = ".last"

type Archiver struct {
	dir string
}

// New returns nil when dir is empty; a nil archiver is a no-op, mirroring
// the hook being disabled by configuration.
func New(dir string) *Archiver {
	if dir == "" {
		return nil
	}
	return &Archiver{dir: dir}
}

// Store archives the payload unless it matches the last archived content.
// Errors are returned for logging only; archival never fails a run.
func (a *Archiver) Store(payload []byte, now time.Time) error {
	if a == nil {
		return nil
	}

	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	if last, err := os.ReadFile(filepath.Join(a.dir, lastHashFile)); err == nil {
		if string(last) == digest {
			return nil
		}
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	name := now.UTC().Format("2006_01_02T15_04_05") + ".json"
	if err := os.WriteFile(filepath.Join(a.dir, name), payload, 0o644); err != nil {
		return fmt.Errorf("write archive payload: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.dir, lastHashFile), []byte(digest), 0o644); err != nil {
		return fmt.Errorf("write archive hash: %w", err)
	}
	return nil
}

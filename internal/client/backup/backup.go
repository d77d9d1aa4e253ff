// Package backup exports an account's sealed vault as a JSON snapshot to a
// local directory or an S3-compatible bucket. Secrets inside the snapshot
// stay encrypted under the account's vault key.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/filex"
)

// Sink stores a named blob and reports where it ended up.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// SnapshotSource is implemented by services.VaultController.
type SnapshotSource interface {
	Snapshot() (models.VaultSnapshot, error)
}

// ObjectName is the relative name a snapshot is stored under.
func ObjectName(s models.VaultSnapshot) string {
	return fmt.Sprintf("vaults/%s/%s.json", url.PathEscape(s.AccountID), s.CreatedAt.UTC().Format("20060102T150405Z"))
}

type Exporter struct {
	source SnapshotSource
	sink   Sink
}

func NewExporter(source SnapshotSource, sink Sink) *Exporter {
	return &Exporter{source: source, sink: sink}
}

// Export writes the current snapshot to the sink and returns its location.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	snap, err := e.source.Snapshot()
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	loc, err := e.sink.Write(ctx, ObjectName(snap), data)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return loc, nil
}

// FileSink writes snapshots below a local directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Write(_ context.Context, name string, data []byte) (string, error) {
	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := filex.EnsureParentDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

package gateway

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// BlobStore writes binary payloads to a local directory tree and hands back
// the URL they are served from. Blobs are grouped into one folder per kind
// ("images/", "audios/", "files/"), mirroring the bucket layout the rest of
// the application expects.
type BlobStore struct {
	root    string
	baseURL string
}

func NewBlobStore(root, baseURL string) *BlobStore {
	return &BlobStore{root: root, baseURL: baseURL}
}

// Save writes data to <root>/<kind>s/<name> and returns its public URL.
// Names derive from client-supplied fields, so anything that would resolve
// outside the kind folder is refused rather than written.
func (b *BlobStore) Save(ctx context.Context, data []byte, name, kind string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	folder := kind + "s"
	dir := filepath.Join(b.root, folder)
	path := filepath.Join(dir, name)
	if name == "" || filepath.Dir(path) != filepath.Clean(dir) {
		return "", fmt.Errorf("blob name %q escapes the store", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob write: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", b.baseURL, folder, url.PathEscape(name)), nil
}

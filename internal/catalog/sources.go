package catalog

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lukman83/storefront/internal/api"
	"github.com/lukman83/storefront/internal/models"
)

// Source names, also used as metric labels and in the durable cache.
const (
	SourceRemote  = "remote"
	SourceBundled = "bundled"
)

// Source produces a full catalog. A malformed payload is an error, never an
// empty success.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Product, error)
}

// ProductLister is the part of the service client the remote source needs.
type ProductLister interface {
	Products(ctx context.Context) ([]models.Product, error)
}

// RemoteSource fetches the catalog from the catalog service.
type RemoteSource struct {
	Client ProductLister
}

var _ ProductLister = (*api.Client)(nil)

func (RemoteSource) Name() string { return SourceRemote }

func (s RemoteSource) Fetch(ctx context.Context) ([]models.Product, error) {
	return s.Client.Products(ctx)
}

//go:embed catalog.json
var embedded embed.FS

// BundledSource reads a catalog file shipped with the binary, or one
// supplied on disk. The file may hold a bare product array or the same
// `{ok, products}` envelope the service returns.
type BundledSource struct {
	FS   fs.FS
	Path string
}

// Bundled returns the catalog compiled into the binary.
func Bundled() BundledSource {
	return BundledSource{FS: embedded, Path: "catalog.json"}
}

// BundledFile returns a source reading path from disk.
func BundledFile(path string) BundledSource {
	return BundledSource{FS: os.DirFS(filepath.Dir(path)), Path: filepath.Base(path)}
}

func (BundledSource) Name() string { return SourceBundled }

func (s BundledSource) Fetch(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.FS, s.Path)
	if err != nil {
		return nil, fmt.Errorf("read bundled catalog: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return api.ParseProducts(trimmed)
	}
	return api.DecodeProductArray(trimmed)
}

// Package catalogfile reads product catalogs stored as JSON arrays, optionally
// gzip compressed.
package catalogfile

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/foodhub/internal/domain/product"
)

const readBufSize = 64 << 10

// ErrDuplicateID is returned when two records share an id.
var ErrDuplicateID = errors.New("duplicate product id")

// Open opens path for reading, transparently decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	if !strings.EqualFold(filepath.Ext(path), ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(bufio.NewReaderSize(f, readBufSize))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "open gzip")
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// Load reads and validates the catalog at path.
func Load(ctx context.Context, path string) ([]product.Product, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	products, err := Decode(ctx, rc)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return products, nil
}

// Parse decodes and validates an in-memory catalog.
func Parse(data []byte) ([]product.Product, error) {
	return Decode(context.Background(), bytes.NewReader(data))
}

// Decode reads a whole catalog from r. Every record is validated and ids
// must be unique. Record order is preserved.
func Decode(ctx context.Context, r io.Reader) ([]product.Product, error) {
	var (
		out  []product.Product
		seen = make(map[int64]struct{})
	)
	err := Stream(ctx, r, func(p product.Product) error {
		if _, dup := seen[p.ID]; dup {
			return errors.Wrapf(ErrDuplicateID, "id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stream decodes the catalog array from r one record at a time and calls fn
// for each valid product. It stops at the first error, including a cancelled
// context.
func Stream(ctx context.Context, r io.Reader, fn func(product.Product) error) error {
	d := jx.Decode(r, readBufSize)
	idx := 0
	if err := d.Arr(func(d *jx.Decoder) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := DecodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "record %d", idx)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "record %d", idx)
		}
		idx++
		return fn(p)
	}); err != nil {
		return errors.Wrap(err, "decode catalog")
	}
	return nil
}

package main

import (
	"context"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/storage/catalogfile"
)

const bloomFPR = 0.001

type options struct {
	files         []string
	dietary       string
	maxPrice      string
	minRating     int
	maxDistanceKm float64
	lat, lon      string
	workers       int
	expected      uint
}

// criteria converts flag values to filter criteria. Unset flags leave the
// corresponding predicate disabled.
func (o options) criteria() (product.Criteria, *geo.Coordinate, error) {
	c := product.AnyCriteria()

	if o.dietary != "" {
		var names []string
		for _, n := range strings.Split(o.dietary, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		tags, err := dietary.ParseSet(names)
		if err != nil {
			return c, nil, errors.Wrap(err, "dietary")
		}
		c.Dietary = tags
	}
	if o.maxPrice != "" {
		p, err := decimal.NewFromString(o.maxPrice)
		if err != nil {
			return c, nil, errors.Wrap(err, "max-price")
		}
		if p.IsNegative() {
			return c, nil, errors.Errorf("max-price %s is negative", p)
		}
		c.MaxPrice = decimal.NewNullDecimal(p)
	}
	if o.minRating < 0 || o.minRating > product.MaxRating {
		return c, nil, errors.Errorf("min-rating %d out of range", o.minRating)
	}
	c.MinRating = o.minRating
	if o.maxDistanceKm >= 0 {
		c.MaxDistanceKm = o.maxDistanceKm
	}

	if (o.lat == "") != (o.lon == "") {
		return c, nil, errors.New("lat and lon must be given together")
	}
	if o.lat == "" {
		return c, nil, nil
	}
	lat, err := strconv.ParseFloat(o.lat, 64)
	if err != nil {
		return c, nil, errors.Wrap(err, "lat")
	}
	lon, err := strconv.ParseFloat(o.lon, 64)
	if err != nil {
		return c, nil, errors.Wrap(err, "lon")
	}
	observer := geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := observer.Validate(); err != nil {
		return c, nil, err
	}
	return c, &observer, nil
}

type stats struct {
	read       int
	duplicates int
	candidates int
}

// fileIndex is the first-pass summary of one file: a bloom filter over its
// ids and the ids that tested positive while the filter was built.
type fileIndex struct {
	filter  *bloom.BloomFilter
	repeats map[int64]struct{}
}

// position is the place of a record: file number, then record number.
type position struct {
	file, record int
}

func (p position) before(o position) bool {
	return p.file < o.file || (p.file == o.file && p.record < o.record)
}

type occurrence struct {
	id     int64
	record int
}

type match struct {
	record    int
	candidate bool
	product   product.Product
}

// fileScan is the second-pass result of one file. Only ids that may occur
// more than once overall are remembered in shared.
type fileScan struct {
	read    int
	matched []match
	shared  []occurrence
}

// collect filters every file and merges the matches in file order. Only the
// first record of a product id counts; later records with the same id are
// duplicates whether or not the first one matched.
//
// Pass one builds a bloom filter per file. Pass two re-reads every file and
// tracks exactly only the ids that test positive against another file's
// filter or repeat within their own file.
func collect(
	ctx context.Context,
	lg *zap.Logger,
	files []string,
	workers int,
	expected uint,
	c product.Criteria,
	observer *geo.Coordinate,
) ([]product.Product, stats, error) {
	indexes, err := indexFiles(ctx, lg, files, workers, expected)
	if err != nil {
		return nil, stats{}, err
	}
	scans, err := scanFiles(ctx, lg, files, workers, indexes, c, observer)
	if err != nil {
		return nil, stats{}, err
	}

	first := make(map[int64]position)
	for i, s := range scans {
		for _, o := range s.shared {
			pos := position{file: i, record: o.record}
			if f, ok := first[o.id]; !ok || pos.before(f) {
				first[o.id] = pos
			}
		}
	}

	var (
		st  = stats{candidates: len(first)}
		out []product.Product
	)
	for i, s := range scans {
		st.read += s.read
		for _, o := range s.shared {
			if first[o.id] != (position{file: i, record: o.record}) {
				st.duplicates++
			}
		}
		for _, m := range s.matched {
			if m.candidate && first[m.product.ID] != (position{file: i, record: m.record}) {
				continue
			}
			out = append(out, m.product)
		}
	}
	return out, st, nil
}

func indexFiles(ctx context.Context, lg *zap.Logger, files []string, workers int, expected uint) ([]fileIndex, error) {
	indexes := make([]fileIndex, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, path := range files {
		g.Go(func() error {
			idx, n, err := indexFile(ctx, path, expected)
			if err != nil {
				return errors.Wrapf(err, "index %s", path)
			}
			lg.Debug("Pass 1 complete",
				zap.String("file", path),
				zap.Int("read", n),
				zap.Int("repeats", len(idx.repeats)),
			)
			indexes[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indexes, nil
}

func indexFile(ctx context.Context, path string, expected uint) (fileIndex, int, error) {
	idx := fileIndex{
		filter:  bloom.NewWithEstimates(max(expected, 1), bloomFPR),
		repeats: make(map[int64]struct{}),
	}
	var (
		key [8]byte
		n   int
	)
	err := streamFile(ctx, path, func(p product.Product) error {
		n++
		if idx.filter.TestAndAdd(idKey(&key, p.ID)) {
			idx.repeats[p.ID] = struct{}{}
		}
		return nil
	})
	return idx, n, err
}

func scanFiles(
	ctx context.Context,
	lg *zap.Logger,
	files []string,
	workers int,
	indexes []fileIndex,
	c product.Criteria,
	observer *geo.Coordinate,
) ([]fileScan, error) {
	scans := make([]fileScan, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, path := range files {
		g.Go(func() error {
			s, err := scanFile(ctx, i, path, indexes, c, observer)
			if err != nil {
				return errors.Wrapf(err, "filter %s", path)
			}
			lg.Debug("Pass 2 complete",
				zap.String("file", path),
				zap.Int("read", s.read),
				zap.Int("matched", len(s.matched)),
				zap.Int("shared", len(s.shared)),
			)
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scans, nil
}

func scanFile(
	ctx context.Context,
	idx int,
	path string,
	indexes []fileIndex,
	c product.Criteria,
	observer *geo.Coordinate,
) (fileScan, error) {
	var (
		s   fileScan
		key [8]byte
	)
	err := streamFile(ctx, path, func(p product.Product) error {
		record := s.read
		s.read++

		candidate := mayRepeat(idx, p.ID, idKey(&key, p.ID), indexes)
		if candidate {
			s.shared = append(s.shared, occurrence{id: p.ID, record: record})
		}
		if c.Match(p, observer) {
			s.matched = append(s.matched, match{record: record, candidate: candidate, product: p})
		}
		return nil
	})
	return s, err
}

// mayRepeat reports whether id can occur more than once across all files.
// False means the record is certainly the only one with this id.
func mayRepeat(idx int, id int64, key []byte, indexes []fileIndex) bool {
	if _, ok := indexes[idx].repeats[id]; ok {
		return true
	}
	for j, other := range indexes {
		if j != idx && other.filter.Test(key) {
			return true
		}
	}
	return false
}

func idKey(buf *[8]byte, id int64) []byte {
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func streamFile(ctx context.Context, path string, fn func(product.Product) error) error {
	rc, err := catalogfile.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return catalogfile.Stream(ctx, rc, fn)
}

func writeProducts(w io.Writer, products []product.Product) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			catalogfile.EncodeProduct(e, p)
		}
	})
	if _, err := w.Write(e.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeOutput writes products to w and closes it. A close error is returned
// since it may be the first sign of a failed write.
func writeOutput(w io.WriteCloser, products []product.Product) error {
	if err := writeProducts(w, products); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

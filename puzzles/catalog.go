package puzzles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrMalformedCatalog is matched by every catalog loading failure.
var ErrMalformedCatalog = errors.New("malformed catalog")

// MalformedCatalogError describes why a catalog could not be loaded.
type MalformedCatalogError struct {
	Source string
	Err    error
}

func (e *MalformedCatalogError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed catalog: %v", e.Err)
	}
	return fmt.Sprintf("malformed catalog %s: %v", e.Source, e.Err)
}

func (e *MalformedCatalogError) Unwrap() error { return e.Err }

func (e *MalformedCatalogError) Is(target error) bool {
	return target == ErrMalformedCatalog
}

// Format is the encoding of a catalog file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks a catalog format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
}

// catalogEntry mirrors one record in the data file. Pointers let us tell a
// missing field from an empty one.
type catalogEntry struct {
	ID       *string   `json:"id" yaml:"id"`
	FEN      *string   `json:"fen" yaml:"fen"`
	Solution *[]string `json:"solution" yaml:"solution"`
}

// Catalog holds every puzzle grouped by bucket. It is immutable after
// Load and safe for concurrent readers.
type Catalog struct {
	buckets map[Bucket][]Record
	size    int
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, &MalformedCatalogError{Source: path, Err: err}
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	cat, err := Load(fd, f)
	var mce *MalformedCatalogError
	if errors.As(err, &mce) {
		mce.Source = path
	}
	return cat, err
}

// Load decodes a catalog keyed by bucket name.
func Load(r io.Reader, f Format) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedCatalogError{Err: err}
	}
	raw := map[string][]catalogEntry{}
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unknown format %d", f)
	}
	if err != nil {
		return nil, &MalformedCatalogError{Err: err}
	}
	return build(raw)
}

func build(raw map[string][]catalogEntry) (*Catalog, error) {
	for key := range raw {
		if _, err := ParseBucket(key); err != nil {
			return nil, &MalformedCatalogError{Err: err}
		}
	}
	cat := &Catalog{buckets: make(map[Bucket][]Record, len(bucketOrder))}
	ids := map[string]Bucket{}
	fingerprints := map[uint64]string{}

	for _, b := range bucketOrder {
		entries := raw[string(b)]
		records := make([]Record, 0, len(entries))
		for i, e := range entries {
			rec, err := e.record(b)
			if err != nil {
				return nil, &MalformedCatalogError{
					Err: fmt.Errorf("%s[%d]: %w", b, i, err)}
			}
			if other, ok := ids[rec.ID]; ok {
				return nil, &MalformedCatalogError{
					Err: fmt.Errorf("duplicate id %q in %s and %s", rec.ID, other, b)}
			}
			ids[rec.ID] = b
			fp := fingerprint(rec)
			if prev, ok := fingerprints[fp]; ok {
				log.Warn().Str("id", rec.ID).Str("duplicate-of", prev).
					Msg("puzzle has the same position and solution as another puzzle")
			} else {
				fingerprints[fp] = rec.ID
			}
			records = append(records, rec)
		}
		cat.buckets[b] = records
		cat.size += len(records)
	}
	log.Debug().Int("puzzles", cat.size).Msg("catalog loaded")
	return cat, nil
}

func (e catalogEntry) record(b Bucket) (Record, error) {
	switch {
	case e.ID == nil:
		return Record{}, errors.New("record missing id")
	case e.FEN == nil:
		return Record{}, fmt.Errorf("record %s missing fen", *e.ID)
	case e.Solution == nil:
		return Record{}, fmt.Errorf("record %s missing solution", *e.ID)
	}
	rec := NewRecord(*e.ID, b, *e.FEN, *e.Solution)
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func fingerprint(r Record) uint64 {
	return xxhash.Sum64([]byte(strings.TrimSpace(r.FEN) + "\x00" + strings.Join(r.solution, " ")))
}

// Len is the total number of puzzles.
func (c *Catalog) Len() int {
	return c.size
}

// Bucket returns a copy of the records in a bucket, in file order.
func (c *Catalog) Bucket(b Bucket) []Record {
	recs := c.buckets[b]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// All yields every puzzle, bucket by bucket in order. It can be ranged over
// any number of times.
func (c *Catalog) All() iter.Seq2[Bucket, Record] {
	return func(yield func(Bucket, Record) bool) {
		for _, b := range bucketOrder {
			for _, rec := range c.buckets[b] {
				if !yield(b, rec) {
					return
				}
			}
		}
	}
}

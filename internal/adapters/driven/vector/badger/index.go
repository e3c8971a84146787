// Package badger provides a persistent local VectorIndex on BadgerDB.
//
// Records are stored under "vec:<id>" with a JSON header followed by the raw
// little-endian float32 vector. A secondary "vdoc:<len>:<document>:<id>" key
// lets a whole document be removed without a full scan; the length prefix keeps
// document "a" from matching the keys of document "a:b". Queries are exact: every
// record passing the filter is scored, which suits corpora of a few hundred
// thousand chunks.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/logger"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Key prefixes.
const (
	vectorPrefix   = "vec:"
	documentPrefix = "vdoc:"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a BadgerDB-backed vector index.
type Index struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Infof(msg string, items ...any) {
	l.logger.Info(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the index in dir, creating it when missing.
// An empty dir opens an in-memory database.
func Open(dir string) (*Index, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating vector directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: logger.Slog()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Index{db: db}, nil
}

// header is the JSON part of a stored record.
type header struct {
	Level    domain.VectorLevel   `json:"level"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

// Upsert writes records, replacing any previous version with the same ID.
func (x *Index) Upsert(_ context.Context, records []driven.VectorRecord) error {
	return x.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			if err := x.removeLocked(txn, r.ID); err != nil {
				return err
			}
			value, err := encodeRecord(r)
			if err != nil {
				return err
			}
			if err := txn.Set(vectorKey(r.ID), value); err != nil {
				return fmt.Errorf("writing vector %s: %w", r.ID, err)
			}
			if err := txn.Set(documentKey(r.Metadata.DocumentID, r.ID), nil); err != nil {
				return fmt.Errorf("writing document key %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// Query scores every record passing filter by cosine similarity.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]domain.RetrievalHit, error) {
	var hits []domain.RetrievalHit

	err := x.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec driven.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rec, err = decodeRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if !filter.Matches(rec.Level, rec.Metadata) {
				continue
			}

			rec.ID = string(iter.Item().Key()[len(vectorPrefix):])
			hits = append(hits, domain.RetrievalHit{
				SourceID: rec.ID,
				Score:    vecmath.Cosine(vector, rec.Vector),
				Metadata: rec.Metadata,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SourceID < hits[j].SourceID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Fetch retrieves a record by ID.
func (x *Index) Fetch(_ context.Context, id string) (*driven.VectorRecord, error) {
	var rec driven.VectorRecord
	err := x.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vectorKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeRecord(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching vector %s: %w", id, err)
	}
	rec.ID = id
	return &rec, nil
}

// Delete removes records by ID.
func (x *Index) Delete(_ context.Context, ids []string) error {
	return x.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := x.removeLocked(txn, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDocument removes every vector of a document.
func (x *Index) DeleteDocument(_ context.Context, documentID string) error {
	return x.db.Update(func(txn *badger.Txn) error {
		prefix := documentKeyPrefix(documentID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)

		var ids []string
		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, string(iter.Item().Key()[len(prefix):]))
		}
		iter.Close()

		for _, id := range ids {
			if err := txn.Delete(vectorKey(id)); err != nil {
				return fmt.Errorf("deleting vector %s: %w", id, err)
			}
			if err := txn.Delete(documentKey(documentID, id)); err != nil {
				return fmt.Errorf("deleting document key %s: %w", id, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// removeLocked deletes a record and its document key inside txn.
func (x *Index) removeLocked(txn *badger.Txn, id string) error {
	item, err := txn.Get(vectorKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading vector %s: %w", id, err)
	}

	var old driven.VectorRecord
	if err := item.Value(func(val []byte) error {
		var err error
		old, err = decodeRecord(val)
		return err
	}); err != nil {
		return err
	}

	if err := txn.Delete(vectorKey(id)); err != nil {
		return fmt.Errorf("deleting vector %s: %w", id, err)
	}
	if err := txn.Delete(documentKey(old.Metadata.DocumentID, id)); err != nil {
		return fmt.Errorf("deleting document key %s: %w", id, err)
	}
	return nil
}

func vectorKey(id string) []byte {
	return []byte(vectorPrefix + id)
}

func documentKeyPrefix(documentID string) []byte {
	return []byte(documentPrefix + strconv.Itoa(len(documentID)) + ":" + documentID + ":")
}

func documentKey(documentID, id string) []byte {
	return append(documentKeyPrefix(documentID), id...)
}

// encodeRecord lays out a record as
// [uint32 header length][header JSON][float32 little-endian...].
func encodeRecord(r driven.VectorRecord) ([]byte, error) {
	head, err := json.Marshal(header{Level: r.Level, Metadata: r.Metadata})
	if err != nil {
		return nil, fmt.Errorf("marshalling vector header: %w", err)
	}

	buf := make([]byte, 4+len(head)+4*len(r.Vector))
	binary.LittleEndian.PutUint32(buf, uint32(len(head)))
	copy(buf[4:], head)
	offset := 4 + len(head)
	for i, f := range r.Vector {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(f))
	}
	return buf, nil
}

func decodeRecord(data []byte) (driven.VectorRecord, error) {
	if len(data) < 4 {
		return driven.VectorRecord{}, errors.New("vector record truncated")
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+n || (len(data)-4-n)%4 != 0 {
		return driven.VectorRecord{}, errors.New("vector record corrupt")
	}

	var head header
	if err := json.Unmarshal(data[4:4+n], &head); err != nil {
		return driven.VectorRecord{}, fmt.Errorf("unmarshaling vector header: %w", err)
	}

	raw := data[4+n:]
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	return driven.VectorRecord{Vector: vec, Level: head.Level, Metadata: head.Metadata}, nil
}

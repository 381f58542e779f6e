// Package storage keeps encoded payloads in a pebble database.
//
// Every value is framed as
//
//	payload_header{crc u32, size u32, created_at i64} || payload
//
// where the header is itself written with the codec. Keys are the schema
// name, a slash, and the 20 raw bytes of a KSUID, so a prefix scan over one
// schema yields its payloads in creation order.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
)

var (
	// ErrNotFound is returned when no payload exists under the requested key.
	ErrNotFound = errors.New("payload not found")
	// ErrCorruptPayload is returned when a stored frame fails its size or CRC check.
	ErrCorruptPayload = errors.New("corrupt payload")
	// ErrPayloadTooLarge is returned for payloads whose size does not fit the header.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// idLength is the size of a raw KSUID.
const idLength = 20

// Entry is a stored payload and its frame metadata.
type Entry struct {
	ID        ksuid.KSUID
	Schema    string
	CreatedAt time.Time
	Payload   []byte
}

// PayloadStore is a pebble-backed store of framed payloads.
type PayloadStore struct {
	db     *pebble.DB
	header *codec.Schema
	now    func() time.Time
}

// Open opens (or creates) the store under dataDir/payloads. The frame header
// layout comes from reg.
func Open(dataDir string, reg *registry.Registry) (*PayloadStore, error) {
	header, err := reg.Lookup(registry.PayloadHeader)
	if err != nil {
		return nil, fmt.Errorf("payload header: %w", err)
	}

	db, err := pebble.Open(filepath.Join(dataDir, "payloads"), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open payload store: %w", err)
	}
	return &PayloadStore{db: db, header: header, now: time.Now}, nil
}

// Put stores payload under schema and returns its new id.
func (s *PayloadStore) Put(ctx context.Context, schema string, payload []byte) (ksuid.KSUID, error) {
	if err := ctx.Err(); err != nil {
		return ksuid.Nil, err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return ksuid.Nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	now := s.now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}

	frame, err := codec.Encode(s.header, codec.Map{
		"crc":        crc32.ChecksumIEEE(payload),
		"size":       uint32(len(payload)),
		"created_at": now.UnixNano(),
	})
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to encode header: %w", err)
	}
	frame = append(frame, payload...)

	if err := s.db.Set(key(schema, id), frame, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store payload: %w", err)
	}
	return id, nil
}

// Get returns the payload stored under schema and id after verifying its frame.
func (s *PayloadStore) Get(ctx context.Context, schema string, id ksuid.KSUID) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(key(schema, id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, schema, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	defer closer.Close()

	return s.unframe(schema, id, value)
}

// Delete removes the payload stored under schema and id.
func (s *PayloadStore) Delete(ctx context.Context, schema string, id ksuid.KSUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := key(schema, id)
	_, closer, err := s.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, schema, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	closer.Close()

	if err := s.db.Delete(k, pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete payload: %w", err)
	}
	return nil
}

// List returns the ids stored under schema, oldest first.
func (s *PayloadStore) List(ctx context.Context, schema string) ([]ksuid.KSUID, error) {
	prefix := []byte(schema + "/")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payloads: %w", err)
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k := iter.Key()
		// Longer keys belong to schemas whose name extends this prefix.
		if len(k) != len(prefix)+idLength {
			continue
		}
		id, err := ksuid.FromBytes(k[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("%w: bad key %q", ErrCorruptPayload, k)
		}
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

// Close closes the underlying database.
func (s *PayloadStore) Close() error {
	return s.db.Close()
}

func (s *PayloadStore) unframe(schema string, id ksuid.KSUID, value []byte) (*Entry, error) {
	hdr, err := codec.Decode(s.header, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrCorruptPayload, schema, id, err)
	}

	crc, okCRC := field[uint32](hdr, "crc")
	size, okSize := field[uint32](hdr, "size")
	createdAt, okTime := field[int64](hdr, "created_at")
	if !okCRC || !okSize || !okTime {
		return nil, fmt.Errorf("%w: %s/%s: unexpected header layout", ErrCorruptPayload, schema, id)
	}

	payload := value[hdr.Consumed():]
	if uint64(len(payload)) != uint64(size) {
		return nil, fmt.Errorf("%w: %s/%s: size %d, header says %d",
			ErrCorruptPayload, schema, id, len(payload), size)
	}
	if crc32.ChecksumIEEE(payload) != crc {
		return nil, fmt.Errorf("%w: %s/%s: checksum mismatch", ErrCorruptPayload, schema, id)
	}

	return &Entry{
		ID:        id,
		Schema:    schema,
		CreatedAt: time.Unix(0, createdAt),
		Payload:   bytes.Clone(payload),
	}, nil
}

func field[T any](r *codec.Record, name string) (T, bool) {
	v, _ := r.Get(name)
	t, ok := v.(T)
	return t, ok
}

func key(schema string, id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(schema)+1+idLength)
	k = append(k, schema...)
	k = append(k, '/')
	return append(k, id.Bytes()...)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

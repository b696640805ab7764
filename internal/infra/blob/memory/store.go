// Package memory keeps published rollup output in process memory. Tests and
// dry runs use it.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"rollupload/internal/blob/core"
)

type object struct {
	info core.Info
	data []byte
}

// Store is a concurrency-safe map of committed objects plus the number of
// objects staged but not yet committed or aborted.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	pending int
	puts    int
}

// New returns an empty store.
func New() *Store { return &Store{objects: make(map[string]object)} }

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores r under key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, data, opts), nil
}

// write must be called with mu held.
func (s *Store) write(key string, data []byte, opts core.PutOptions) core.Info {
	sum := sha256.Sum256(data)
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:8]),
		Metadata:     maps.Clone(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objects[key] = object{info: info, data: data}
	s.puts++
	return info
}

// Stage holds r aside until Commit writes it under key.
func (s *Store) Stage(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	return &staged{store: s, key: key, data: data, opts: opts}, nil
}

type staged struct {
	store *Store
	key   string
	data  []byte
	opts  core.PutOptions
	done  bool
}

func (st *staged) Key() string { return st.key }

func (st *staged) Commit(ctx context.Context) (core.Info, error) {
	if st.done {
		return core.Info{}, errors.New("memory: staged object already finished")
	}
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	st.done = true
	s := st.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	return s.write(st.key, st.data, st.opts), nil
}

func (st *staged) Abort(context.Context) error {
	if st.done {
		return nil
	}
	st.done = true
	st.store.mu.Lock()
	st.store.pending--
	st.store.mu.Unlock()
	return nil
}

// Puts reports how many objects have been written, by Put or by Commit.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Pending reports how many staged objects are neither committed nor aborted.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	info := obj.info
	info.Metadata = maps.Clone(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Info
	for _, key := range slices.Sorted(maps.Keys(s.objects)) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		info := s.objects[key].info
		info.Metadata = maps.Clone(info.Metadata)
		out = append(out, info)
	}
	return out, nil
}

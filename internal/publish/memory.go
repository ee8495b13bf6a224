package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data []byte
	info Info
}

// MemoryStore holds objects in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("read %s: %w", key, err)
	}
	info := Info{Key: k, Size: int64(len(data)), ContentType: contentType, LastModified: time.Now().UTC()}
	s.mu.Lock()
	s.objects[k] = memObject{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Info
	for k, obj := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, obj.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// File: pkg/storage/storagetest/store.go

// Package storagetest provides an in-memory ObjectStore for exercising code that depends on storage.ObjectStore.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"s3client/pkg/common"
	"s3client/pkg/storage"
)

type object struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

type bucket struct {
	objects    map[string]object
	policy     string
	versioning storage.VersioningStatus
	website    *storage.WebsiteConfig
	location   string
	created    time.Time
}

// Store is a thread-safe in-memory object store with deterministic paging.
// Continuation tokens are the last key of the previous page, so listings stay stable across deletions.
type Store struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	pageSize int
	limits   storage.Limits
	now      func() time.Time

	// Optional fault hooks. A non-nil return fails the call (or the single key for FailDelete).
	FailList   func(call int, bucket, prefix, token string) error
	FailGet    func(call int, bucket, key string) error
	FailPut    func(bucket, key string) error
	FailDelete func(bucket, key string) error

	listCalls     int
	getCalls      int
	putCalls      int
	deleteBatches [][]string
	closed        bool
}

var _ storage.ObjectStore = (*Store)(nil)

type Option func(*Store)

func WithPageSize(n int) Option {
	return func(s *Store) { s.pageSize = n }
}

func WithMaxDeleteBatch(n int) Option {
	return func(s *Store) { s.limits.MaxDeleteBatch = n }
}

func WithMaxPresignTTL(d time.Duration) Option {
	return func(s *Store) { s.limits.MaxPresignTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Creates an empty store with the S3 default limits and a page size of 1000
func New(opts ...Option) *Store {
	s := &Store{
		buckets:  make(map[string]*bucket),
		pageSize: 1000,
		limits:   storage.DefaultLimits(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores an object directly, creating the bucket when needed. Intended for test setup.
func (s *Store) Seed(bucketName, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.ensureBucket(bucketName)
	b.objects[key] = object{data: append([]byte(nil), data...), lastModified: s.now()}
}

// Returns a copy of an object's contents
func (s *Store) Data(bucketName, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketName]
	if !ok {
		return nil, false
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Returns the sorted keys currently stored in a bucket
func (s *Store) Keys(bucketName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketName]
	if !ok {
		return nil
	}
	return sortedKeys(b.objects)
}

func (s *Store) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *Store) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

func (s *Store) PutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putCalls
}

// Returns the keys passed to every DeleteObjects call, in call order
func (s *Store) DeleteBatches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches := make([][]string, len(s.deleteBatches))
	for i, b := range s.deleteBatches {
		batches[i] = append([]string(nil), b...)
	}
	return batches
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) ProviderName() common.Provider {
	return "Memory"
}

func (s *Store) Limits() storage.Limits {
	return s.limits
}

func (s *Store) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	buckets := make([]storage.Bucket, 0, len(names))
	for _, name := range names {
		b := s.buckets[name]
		buckets = append(buckets, storage.Bucket{
			Name:      name,
			Provider:  s.ProviderName(),
			Location:  b.location,
			CreatedAt: b.created,
		})
	}
	return buckets, nil
}

func (s *Store) CreateBucket(ctx context.Context, bucketName, location string) error {
	if err := storage.ValidateBucket(bucketName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.buckets[bucketName]; exists {
		return fmt.Errorf("bucket %s already exists", bucketName)
	}
	b := s.ensureBucket(bucketName)
	b.location = location
	return nil
}

func (s *Store) DeleteBucket(ctx context.Context, bucketName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	if len(b.objects) > 0 {
		return fmt.Errorf("bucket %s is not empty", bucketName)
	}
	delete(s.buckets, bucketName)
	return nil
}

func (s *Store) ListObjects(ctx context.Context, bucketName, prefix, token string) (storage.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListingPage{}, err
	}

	s.mu.Lock()
	s.listCalls++
	call := s.listCalls
	hook := s.FailList
	s.mu.Unlock()

	if hook != nil {
		if err := hook(call, bucketName, prefix, token); err != nil {
			return storage.ListingPage{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return storage.ListingPage{}, err
	}

	var page storage.ListingPage
	for _, key := range sortedKeys(b.objects) {
		if !strings.HasPrefix(key, prefix) || key <= token {
			continue
		}
		if len(page.Objects) == s.pageSize {
			page.NextToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		obj := b.objects[key]
		page.Objects = append(page.Objects, storage.Object{
			Key:          key,
			Bucket:       bucketName,
			Provider:     s.ProviderName(),
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
			ContentType:  obj.contentType,
		})
	}
	return page, nil
}

func (s *Store) StatObject(ctx context.Context, bucketName, key string) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return storage.Object{}, err
	}
	obj, ok := b.objects[key]
	if !ok {
		return storage.Object{}, fmt.Errorf("object %s: %w", key, storage.ErrNotFound)
	}
	return storage.Object{
		Key:          key,
		Bucket:       bucketName,
		Provider:     s.ProviderName(),
		Size:         int64(len(obj.data)),
		LastModified: obj.lastModified,
		ContentType:  obj.contentType,
	}, nil
}

func (s *Store) PutObject(ctx context.Context, bucketName, key string, body io.Reader, opts storage.PutOptions) error {
	s.mu.Lock()
	s.putCalls++
	hook := s.FailPut
	s.mu.Unlock()

	if hook != nil {
		if err := hook(bucketName, key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	if opts.Size >= 0 && int64(len(data)) != opts.Size {
		return fmt.Errorf("short body for %s: got %d bytes, want %d", key, len(data), opts.Size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	b.objects[key] = object{data: data, contentType: opts.ContentType, lastModified: s.now()}
	return nil
}

func (s *Store) GetObject(ctx context.Context, bucketName, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.getCalls++
	call := s.getCalls
	hook := s.FailGet
	s.mu.Unlock()

	if hook != nil {
		if err := hook(call, bucketName, key); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return nil, err
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) DeleteObject(ctx context.Context, bucketName, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	// S3 semantics: deleting a missing key succeeds
	delete(b.objects, key)
	return nil
}

func (s *Store) DeleteObjects(ctx context.Context, bucketName string, keys []string) ([]storage.DeleteResult, error) {
	if len(keys) > s.limits.MaxDeleteBatch {
		return nil, fmt.Errorf("batch of %d keys exceeds limit %d", len(keys), s.limits.MaxDeleteBatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteBatches = append(s.deleteBatches, append([]string(nil), keys...))

	b, err := s.bucket(bucketName)
	if err != nil {
		return nil, err
	}

	results := make([]storage.DeleteResult, 0, len(keys))
	for _, key := range keys {
		if s.FailDelete != nil {
			if err := s.FailDelete(bucketName, key); err != nil {
				results = append(results, storage.DeleteResult{Key: key, Err: err})
				continue
			}
		}
		delete(b.objects, key)
		results = append(results, storage.DeleteResult{Key: key})
	}
	return results, nil
}

func (s *Store) GetBucketPolicy(ctx context.Context, bucketName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}
	if b.policy == "" {
		return "", fmt.Errorf("bucket policy for %s: %w", bucketName, storage.ErrNotFound)
	}
	return b.policy, nil
}

func (s *Store) PutBucketPolicy(ctx context.Context, bucketName, policy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	b.policy = policy
	return nil
}

// Sets the versioning status reported by GetBucketVersioning
func (s *Store) SetVersioning(bucketName string, status storage.VersioningStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureBucket(bucketName).versioning = status
}

func (s *Store) GetBucketVersioning(ctx context.Context, bucketName string) (storage.VersioningStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}
	if b.versioning == "" {
		return storage.VersioningDisabled, nil
	}
	return b.versioning, nil
}

func (s *Store) PutBucketWebsite(ctx context.Context, bucketName string, website storage.WebsiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	cfg := website.WithDefaults()
	b.website = &cfg
	return nil
}

// Returns the website configuration last stored for a bucket
func (s *Store) Website(bucketName string) (storage.WebsiteConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketName]
	if !ok || b.website == nil {
		return storage.WebsiteConfig{}, false
	}
	return *b.website, true
}

func (s *Store) PresignGetObject(ctx context.Context, bucketName, key string, ttl time.Duration) (storage.PresignedURL, error) {
	issued := s.now()
	q := url.Values{}
	q.Set("X-Amz-Date", issued.UTC().Format("20060102T150405Z"))
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(ttl.Seconds())))
	q.Set("X-Amz-Signature", fmt.Sprintf("%x", issued.UnixNano()))

	u := url.URL{
		Scheme:   "https",
		Host:     "memory.invalid",
		Path:     "/" + bucketName + "/" + key,
		RawQuery: q.Encode(),
	}
	return storage.PresignedURL{URL: u.String(), ExpiresAt: issued.Add(ttl)}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) ensureBucket(name string) *bucket {
	b, ok := s.buckets[name]
	if !ok {
		b = &bucket{objects: make(map[string]object), created: s.now()}
		s.buckets[name] = b
	}
	return b
}

func (s *Store) bucket(name string) (*bucket, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("bucket %s: %w", name, storage.ErrNotFound)
	}
	return b, nil
}

func sortedKeys(objects map[string]object) []string {
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

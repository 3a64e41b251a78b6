package artifact

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// ObjectConfig configures an S3-compatible artifact bucket.
type ObjectConfig struct {
	Endpoint  string // host:port or URL; an https URL enables TLS
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ObjectStore keeps artifacts in an S3-compatible bucket via minio-go.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	region string
}

// NewObjectStore creates a client for cfg. No request is made until the
// store is used.
func NewObjectStore(cfg ObjectConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "artifacts: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "artifacts: bucket is required")
	}

	endpoint, useSSL := cfg.Endpoint, cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = useSSL || u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "artifacts: create client")
	}
	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: cfg.Region,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return classify(err, s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return classify(err, s.bucket)
	}
	return nil
}

// Put implements Store.
func (s *ObjectStore) Put(ctx context.Context, slug, version, name string, data []byte) error {
	key, err := s.key(slug, version, name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return classify(err, key)
	}
	return nil
}

// Get implements Store.
func (s *ObjectStore) Get(ctx context.Context, slug, version, name string) ([]byte, error) {
	key, err := s.key(slug, version, name)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err, key)
	}
	return data, nil
}

// List implements Store.
func (s *ObjectStore) List(ctx context.Context, slug, version string) ([]string, error) {
	dir, err := s.key(slug, version, "_")
	if err != nil {
		return nil, err
	}
	prefix := path.Dir(dir) + "/"

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, classify(obj.Err, prefix)
		}
		if name := strings.TrimPrefix(obj.Key, prefix); name != "" && !strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// ObjectKey returns the bucket key of an artifact.
func (s *ObjectStore) ObjectKey(slug, version, name string) (string, error) {
	return s.key(slug, version, name)
}

func (s *ObjectStore) key(slug, version, name string) (string, error) {
	k, err := Key(slug, version, name)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return k, nil
	}
	return s.prefix + "/" + k, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func classify(err error, key string) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Wrap(errors.ErrCodeNotFound, err, "object %s not found", key)
	}
	return errors.Wrap(errors.ErrCodeStorage, err, "object store: %s", key)
}

var _ Store = (*ObjectStore)(nil)

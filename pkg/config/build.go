package config

import (
	"context"

	"github.com/charmbracelet/log"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/matzehuels/schemahub/pkg/artifact"
	"github.com/matzehuels/schemahub/pkg/cache"
	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/notify"
	"github.com/matzehuels/schemahub/pkg/vcs"
)

// GitProvider builds the repository provider. A configured token is sent as
// basic auth on https remotes.
func (c *Config) GitProvider(logger *log.Logger) *vcs.GitProvider {
	p := vcs.NewGitProvider(logger)
	if c.Git.Token != "" {
		user := c.Git.Username
		if user == "" {
			user = "schemahub"
		}
		p.Auth = &githttp.BasicAuth{Username: user, Password: c.Git.Token}
	}
	return p
}

// CacheStore opens the configured dedup cache backend.
func (c *Config) CacheStore(ctx context.Context) (cache.Store, error) {
	switch c.Cache.Backend {
	case BackendRedis:
		s, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Username: c.Cache.RedisUsername,
			Password: c.Cache.RedisPassword,
			Database: c.Cache.RedisDB,
			Key:      c.Cache.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBolt:
		s, err := cache.NewBoltStore(c.Cache.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return cache.NullStore{}, nil
	default:
		return cache.NewFileStore(c.Cache.Path), nil
	}
}

// CatalogWriter opens the configured catalog destination. The returned close
// function is never nil.
func (c *Config) CatalogWriter(ctx context.Context) (catalog.Writer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if c.Catalog.Backend != BackendMongo {
		return catalog.NewFileWriter(c.Catalog.Path), noop, nil
	}
	w, err := catalog.NewMongoWriter(ctx, catalog.MongoConfig{
		URI:        c.Catalog.MongoURI,
		Database:   c.Catalog.Database,
		Collection: c.Catalog.Collection,
		Timeout:    c.Catalog.Timeout.Duration,
	})
	if err != nil {
		return nil, noop, err
	}
	return w, w.Close, nil
}

// LoadCatalog reads the catalog written by the configured writer.
func (c *Config) LoadCatalog(ctx context.Context) (catalog.Catalog, error) {
	if c.Catalog.Backend != BackendMongo {
		return catalog.Load(c.Catalog.Path)
	}
	w, err := catalog.NewMongoWriter(ctx, catalog.MongoConfig{
		URI:        c.Catalog.MongoURI,
		Database:   c.Catalog.Database,
		Collection: c.Catalog.Collection,
		Timeout:    c.Catalog.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	defer w.Close(context.Background())
	return w.Load(ctx)
}

// ArtifactStore opens the configured artifact backend. An S3 bucket is
// created when missing.
func (c *Config) ArtifactStore(ctx context.Context) (artifact.Store, error) {
	if c.Artifacts.Backend != BackendS3 {
		return artifact.NewFileStore(c.DataDir), nil
	}
	s, err := artifact.NewObjectStore(artifact.ObjectConfig{
		Endpoint:  c.Artifacts.Endpoint,
		Bucket:    c.Artifacts.Bucket,
		Prefix:    c.Artifacts.Prefix,
		Region:    c.Artifacts.Region,
		AccessKey: c.Artifacts.AccessKey,
		SecretKey: c.Artifacts.SecretKey,
		UseSSL:    c.Artifacts.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Notifier builds the configured notifier. Log notifications go to logger.
func (c *Config) Notifier(logger *log.Logger) (notify.Notifier, error) {
	if c.Notify.Backend != BackendSMTP {
		return notify.NewLogNotifier(logger), nil
	}
	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     c.Notify.Host,
		Port:     c.Notify.Port,
		Username: c.Notify.Username,
		Password: c.Notify.Password,
		From:     c.Notify.From,
		TLS:      c.Notify.TLS,
		Timeout:  c.Notify.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	DefaultPresignExpiry = time.Hour

	// enough for the header and exif block of nearly every jpeg
	probeBytes = 64 << 10
)

// S3Source lists the user's bucket and hands out signed urls that expire
type S3Source struct {
	client     *s3.Client
	presign    *s3.PresignClient
	downloader *manager.Downloader

	bucket string
	expiry time.Duration
	cache  MetaCache
}

// NewS3Source loads the shared aws configuration of profile
func NewS3Source(ctx context.Context, profile, bucket string, expiry time.Duration, cache MetaCache) (*S3Source, error) {
	if profile == "" {
		return nil, errors.New("no aws profile provided")
	}
	if bucket == "" {
		return nil, errors.New("no s3 bucket provided")
	}

	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(
		ctxCfg,
		config.WithSharedConfigProfile(profile),
	)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config, %w", err)
	}

	return NewS3SourceFromClient(s3.NewFromConfig(cfg), bucket, expiry, cache), nil
}

func NewS3SourceFromClient(client *s3.Client, bucket string, expiry time.Duration, cache MetaCache) *S3Source {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &S3Source{
		client:     client,
		presign:    s3.NewPresignClient(client),
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		expiry:     expiry,
		cache:      cache,
	}
}

func (s *S3Source) Kind() photo.SourceKind {
	return photo.KindS3
}

func (s *S3Source) List(ctx context.Context) ([]*photo.Photo, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	sorted := keys.ToSlice()
	sort.Strings(sorted)

	photos := make([]*photo.Photo, 0, len(sorted))
	for _, key := range sorted {
		m, err := cachedMeta(s.cache, photo.KindS3, key, func() (*store.PhotoMeta, error) {
			return s.probeObject(ctx, key)
		})
		if err != nil {
			slog.Warn("unable to probe s3 object", "key", key, "error", err)
			m = nil
		}

		u, err := s.signedURL(ctx, key)
		if err != nil {
			slog.Warn("unable to sign s3 object url", "key", key, "error", err)
			continue
		}
		photos = append(photos, photo.New(key, u, photo.TypeS3User, photoOptions(m)...))
	}

	prune(s.cache, photo.KindS3, keys)
	return photos, nil
}

// keys lists every supported object in the bucket
func (s *S3Source) keys(ctx context.Context) (mapset.Set[string], error) {
	keys := mapset.NewSet[string]()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list s3 bucket, %s, %w", s.bucket, err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !supported(key) {
				continue
			}
			keys.Add(key)
		}
	}

	if keys.Cardinality() == 0 {
		slog.Info("no remote files found", "bucket", s.bucket)
	}
	return keys, nil
}

func (s *S3Source) signedURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// probeObject reads the head of an object, then the whole of it if the head was not enough
func (s *S3Source) probeObject(ctx context.Context, key string) (*store.PhotoMeta, error) {
	data, err := s.download(ctx, key, fmt.Sprintf("bytes=0-%d", probeBytes-1))
	if err != nil {
		return nil, err
	}
	m, err := probe(bytes.NewReader(data))
	if err == nil {
		return m, nil
	}
	if len(data) < probeBytes {
		return nil, err
	}

	slog.Debug("image header larger than probe, downloading whole object", "key", key)
	data, err = s.download(ctx, key, "")
	if err != nil {
		return nil, err
	}
	return probe(bytes.NewReader(data))
}

func (s *S3Source) download(ctx context.Context, key, byteRange string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if byteRange != "" {
		input.Range = aws.String(byteRange)
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, probeBytes))
	if _, err := s.downloader.Download(ctx, buf, input); err != nil {
		return nil, fmt.Errorf("unable to download object from s3, %s, %w", key, err)
	}
	return buf.Bytes(), nil
}

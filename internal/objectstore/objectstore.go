// Package objectstore keeps ledger snapshots as JSON objects in an S3 bucket,
// one object per user at users/{userID}/snapshot.json.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
)

const (
	keyPrefix    = "users/"
	snapshotName = "snapshot.json"
)

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Store struct {
	api    objectAPI
	bucket string
	logger *log.Logger
}

var (
	_ persistence.Gateway    = (*Store)(nil)
	_ persistence.UserLister = (*Store)(nil)
)

// Config locates the bucket. Endpoint is for S3-compatible services such as
// LocalStack or MinIO; leave it empty for AWS.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// New builds an S3-backed store. With an Endpoint set, static test
// credentials and path-style addressing are used.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket cannot be empty")
	}
	if cfg.Region == "" {
		return nil, errors.New("region cannot be empty")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, cfg.Bucket, logger), nil
}

func newStore(api objectAPI, bucket string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{api: api, bucket: bucket, logger: logger.WithComponent(log.ComponentObjectStore)}
}

// SnapshotKey returns the object key holding userID's snapshot.
func SnapshotKey(userID string) string {
	return keyPrefix + userID + "/" + snapshotName
}

// SaveSnapshot implements persistence.Gateway.
func (s *Store) SaveSnapshot(ctx context.Context, userID string, snap core.Snapshot) error {
	if userID == "" {
		return errors.New("userID cannot be empty")
	}
	body, err := json.Marshal(snap.Clone())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(SnapshotKey(userID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", SnapshotKey(userID), err)
	}

	s.logger.DebugContext(ctx, "Snapshot uploaded",
		log.FieldUserID, userID,
		log.FieldItems, snap.Len(),
		"bytes", len(body))
	return nil
}

// LoadSnapshot implements persistence.Gateway.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(SnapshotKey(userID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return core.Snapshot{}, persistence.ErrNotFound
		}
		return core.Snapshot{}, fmt.Errorf("get %s: %w", SnapshotKey(userID), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read %s: %w", SnapshotKey(userID), err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode %s: %w", SnapshotKey(userID), err)
	}
	return snap.Clone(), nil
}

// ListUsers implements persistence.UserLister.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rest, ok := strings.CutPrefix(key, keyPrefix)
			if !ok {
				continue
			}
			if uid, ok := strings.CutSuffix(rest, "/"+snapshotName); ok && uid != "" {
				users = append(users, uid)
			}
		}
	}
	slices.Sort(users)
	return users, nil
}

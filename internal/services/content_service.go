// internal/services/content_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/modelmart/modelmart-backend/internal/config"
)

const metadataCacheTTL = 5 * time.Minute

// ContentService resolves an opaque content hash to descriptive metadata
// held in the external content-addressed store (S3 objects keyed by hash),
// with a Redis cache in front. The ledger never depends on it for
// correctness: a failed or missing resolution degrades to a placeholder and
// no mutation ever calls it.
type ContentService struct {
	s3Client *s3.S3
	rdb      *redis.Client
	cfg      *config.Config
}

type ContentMetadata struct {
	ContentHash string                 `json:"content_hash"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	Resolved    bool                   `json:"resolved"`
}

func NewContentService(cfg *config.Config) (*ContentService, error) {
	svc := &ContentService{cfg: cfg}

	if cfg.AWS.AccessKeyID != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWS.Region),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			),
		})
		if err != nil {
			// Degraded service still serves placeholder metadata.
			return svc, fmt.Errorf("failed to create AWS session: %w", err)
		}
		svc.s3Client = s3.New(sess)
	}

	if cfg.Redis.Host != "" {
		svc.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	return svc, nil
}

func metadataCacheKey(contentHash string) string { return "meta:" + contentHash }

// ResolveMetadata looks a hash up in the cache, then the store. Any failure
// along the way yields the placeholder, never an error.
func (s *ContentService) ResolveMetadata(ctx context.Context, contentHash string) *ContentMetadata {
	if contentHash == "" {
		return placeholderMetadata(contentHash)
	}

	if meta := s.cachedMetadata(ctx, contentHash); meta != nil {
		return meta
	}

	meta, err := s.fetchMetadata(contentHash)
	if err != nil {
		logrus.WithError(err).WithField("content_hash", contentHash).
			Debug("Content metadata resolution failed, using placeholder")
		return placeholderMetadata(contentHash)
	}

	s.cacheMetadata(ctx, meta)
	return meta
}

func (s *ContentService) cachedMetadata(ctx context.Context, contentHash string) *ContentMetadata {
	if s.rdb == nil {
		return nil
	}

	data, err := s.rdb.Get(ctx, metadataCacheKey(contentHash)).Bytes()
	if err != nil {
		return nil
	}

	var meta ContentMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}

func (s *ContentService) cacheMetadata(ctx context.Context, meta *ContentMetadata) {
	if s.rdb == nil {
		return
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return
	}

	if err := s.rdb.Set(ctx, metadataCacheKey(meta.ContentHash), data, metadataCacheTTL).Err(); err != nil {
		logrus.WithError(err).Debug("Failed to cache content metadata")
	}
}

func (s *ContentService) fetchMetadata(contentHash string) (*ContentMetadata, error) {
	if s.s3Client == nil {
		return nil, fmt.Errorf("content store not configured")
	}

	obj, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AWS.S3Bucket),
		Key:    aws.String(contentHash + ".json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content metadata: %w", err)
	}
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content metadata: %w", err)
	}

	var meta ContentMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse content metadata: %w", err)
	}

	meta.ContentHash = contentHash
	meta.Resolved = true
	return &meta, nil
}

func placeholderMetadata(contentHash string) *ContentMetadata {
	return &ContentMetadata{
		ContentHash: contentHash,
		Name:        "unresolved model",
		Resolved:    false,
	}
}

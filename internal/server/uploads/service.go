// Package uploads issues time-boxed direct-to-storage upload grants and
// records confirmed uploads. The service never touches file bytes itself:
// clients PUT straight to object storage with the presigned URL.
package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lifeledger/lifeledger/internal/common"
	"github.com/lifeledger/lifeledger/internal/dbx"
	sc "github.com/lifeledger/lifeledger/internal/server/config"
	"github.com/lifeledger/lifeledger/internal/server/models"
	"github.com/lifeledger/lifeledger/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	timeNow  = time.Now
	keyNonce = uuid.NewString
)

// allowedContentTypes is the image subtype allow-list enforced before any
// grant is issued.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/heic": {},
	"image/heif": {},
}

// ValidationError carries the user-facing message for a rejected upload
// request. It matches common.ErrValidation under errors.Is so the HTTP
// layer can map it to a 400 without inspecting the text.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }
func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// Grant is the ephemeral pair of capability URLs plus the key they address.
// It has no persistent identity; both URLs expire on their own.
type Grant struct {
	PutURL string `json:"putUrl"`
	GetURL string `json:"getUrl"`
	Key    string `json:"key"`
}

// DocumentView is one listed document with a fresh read URL.
type DocumentView struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	StorageKey  string    `json:"s3Key"`
	ContentType string    `json:"docType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service is the upload broker.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *Service {
	return &Service{db: db, repomanager: repomanager, config: config}
}

// sanitizeFilename strips characters outside a conservative allow-set,
// collapses whitespace runs to hyphens, and lowercases the rest.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == ' ':
			b.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), "-")
	return strings.ToLower(collapsed)
}

// storageKey namespaces the object under the owning user and a timestamp so
// keys never collide across users or repeated uploads of the same name.
func storageKey(userID, filename string) string {
	return fmt.Sprintf("uploads/%s/%d-%s-%s", userID, timeNow().UnixMilli(), keyNonce(), sanitizeFilename(filename))
}

func (s *Service) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKeyID,
			s.config.S3SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
	})

	return newS3PresignClient(client), nil
}

func (s *Service) presignPut(ctx context.Context, pc *s3.PresignClient, key string) (string, error) {
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &s.config.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.UploadURLExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *Service) presignGet(ctx context.Context, pc *s3.PresignClient, key string) (string, error) {
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &s.config.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.DownloadURLExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// CreateGrant validates the declared upload and issues a short-lived write
// capability plus a longer-lived read capability for a fresh storage key.
func (s *Service) CreateGrant(ctx context.Context, userID, filename, contentType string, size int64) (*Grant, error) {
	if filename == "" || contentType == "" || size <= 0 {
		return nil, &ValidationError{msg: "Missing required fields: filename, contentType, fileSize"}
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, &ValidationError{msg: "Invalid content type. Only images are allowed."}
	}
	if size > s.config.MaxUploadBytes {
		return nil, &ValidationError{msg: fmt.Sprintf("File exceeds %dMB limit.", s.config.MaxUploadBytes/(1024*1024))}
	}

	pc, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	key := storageKey(userID, filename)

	putURL, err := s.presignPut(ctx, pc, key)
	if err != nil {
		return nil, err
	}
	getURL, err := s.presignGet(ctx, pc, key)
	if err != nil {
		return nil, err
	}

	return &Grant{PutURL: putURL, GetURL: getURL, Key: key}, nil
}

// Confirm records a completed upload as one Document Record. Repeated
// confirmations for the same key hit the unique constraint and are treated
// as success, so client retries stay harmless.
func (s *Service) Confirm(ctx context.Context, userID, key, filename, contentType string) error {
	if key == "" || filename == "" || contentType == "" {
		return &ValidationError{msg: "Missing required fields: s3Key, filename, contentType"}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Documents(tx).Create(ctx, &models.Document{
			UserID:      userID,
			StorageKey:  key,
			Filename:    filename,
			ContentType: contentType,
		})
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil
	}
	return err
}

// List returns the user's documents newest-first, each carrying a freshly
// presigned read URL.
func (s *Service) List(ctx context.Context, userID string) ([]*DocumentView, error) {
	repo := s.repomanager.Documents(s.db)
	docs, err := repo.SelectByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pc, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	views := make([]*DocumentView, 0, len(docs))
	for _, d := range docs {
		url, err := s.presignGet(ctx, pc, d.StorageKey)
		if err != nil {
			return nil, err
		}
		views = append(views, &DocumentView{
			ID:          d.RowID,
			Filename:    d.Filename,
			URL:         url,
			StorageKey:  d.StorageKey,
			ContentType: d.ContentType,
			CreatedAt:   d.CreatedAt,
		})
	}
	return views, nil
}

package ledgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3API is the part of *s3.Client the store needs.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options locate the bucket holding the records.
type S3Options struct {
	Region   string
	User     string
	Password string
	Endpoint string
	Bucket   string
	Prefix   string
}

// S3Store keeps one JSON object per record. Writes are conditional on the
// object's ETag (If-Match) or on its absence (If-None-Match: *); a failed
// precondition is a write conflict.
type S3Store struct {
	client      s3API
	bucket      string
	prefix      string
	maxAttempts int
}

// NewS3Store connects to an S3-compatible endpoint such as MinIO.
func NewS3Store(ctx context.Context, opts S3Options, maxAttempts int) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.User,
			opts.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, opts.Bucket, opts.Prefix, maxAttempts), nil
}

func newS3Store(client s3API, bucket, prefix string, maxAttempts int) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix, maxAttempts: maxAttempts}
}

func (s *S3Store) key(id string) string {
	return s.prefix + "users/" + id + ".json"
}

func (s *S3Store) idFromKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, s.prefix+"users/"), ".json")
}

// read returns the record and the ETag it was read at.
func (s *S3Store) read(ctx context.Context, id string) (*models.UserRecord, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", common.ErrorNotFound
		}
		return nil, "", err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, "", err
	}
	return rec, aws.ToString(out.ETag), nil
}

func (s *S3Store) write(ctx context.Context, rec *models.UserRecord, etag string) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if etag == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(etag)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailure(err) {
			return fmt.Errorf("%w: %w", common.ErrWriteConflict, err)
		}
		return err
	}
	return nil
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func (s *S3Store) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	rec, _, err := s.read(ctx, id)
	if err != nil {
		return nil, s.wrap("get", err)
	}
	return rec, nil
}

func (s *S3Store) Create(ctx context.Context, rec *models.UserRecord) error {
	if err := s.write(ctx, rec, ""); err != nil {
		if isWriteConflict(err) {
			return common.ErrAlreadyExists
		}
		return s.wrap("create", err)
	}
	return nil
}

func (s *S3Store) AtomicUpdate(ctx context.Context, id string, fn UpdateFunc) (*models.UserRecord, error) {
	var result *models.UserRecord

	err := retryOnConflict(ctx, s.maxAttempts, isWriteConflict, func() error {
		cur, etag, err := s.read(ctx, id)
		if err != nil {
			return err
		}

		next, err := fn(*cur)
		if err != nil {
			if errors.Is(err, ErrUnchanged) {
				result = cur
				return nil
			}
			return err
		}
		next.ID = id
		next.Version = cur.Version + 1

		if err := s.write(ctx, &next, etag); err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, s.wrap("atomic update", err)
	}
	return result, nil
}

// List pages through the bucket in key order. The cursor is the S3
// continuation token.
func (s *S3Store) List(ctx context.Context, cursor string, limit int) ([]*models.UserRecord, string, error) {
	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "users/"),
	}
	if limit > 0 {
		in.MaxKeys = aws.Int32(int32(limit))
	}
	if cursor != "" {
		in.ContinuationToken = aws.String(cursor)
	}

	out, err := s.client.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, "", s.wrap("list", err)
	}

	page := make([]*models.UserRecord, 0, len(out.Contents))
	for _, obj := range out.Contents {
		rec, _, err := s.read(ctx, s.idFromKey(aws.ToString(obj.Key)))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return nil, "", s.wrap("list", err)
		}
		page = append(page, rec)
	}

	next := ""
	if aws.ToBool(out.IsTruncated) {
		next = aws.ToString(out.NextContinuationToken)
	}
	return page, next, nil
}

func (s *S3Store) Close() error { return nil }

func (s *S3Store) wrap(op string, err error) error {
	if passThrough(err) {
		return err
	}
	return storeError(op, err)
}

// Package storage wraps the S3-compatible object store that holds visitor
// photos.  The store never hands out permanent URLs: uploads return an
// opaque key and reads go through short-lived presigned URLs.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignTTL is how long a generated photo URL stays valid.
const presignTTL = time.Hour

// dataURLRe splits a base64 data URL into its content type and payload.
var dataURLRe = regexp.MustCompile(`^data:(.+);base64,(.*)$`)

// PhotoStore uploads visitor photos and presigns read URLs against an
// S3-compatible bucket.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

// NewPhotoStore builds a PhotoStore from environment variables:
//
//	BUCKET            – bucket name (required)
//	S3_ENDPOINT       – endpoint host, with or without scheme (required)
//	S3_REGION         – region, defaults to "auto"
//	ACCESS_KEY_ID     – access key (required)
//	SECRET_ACCESS_KEY – secret key (required)
//
// Missing configuration returns an error; the caller runs photo-less
// rather than failing startup, since photos are optional everywhere.
func NewPhotoStore() (*PhotoStore, error) {
	bucket := os.Getenv("BUCKET")
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("ACCESS_KEY_ID")
	secretKey := os.Getenv("SECRET_ACCESS_KEY")
	if bucket == "" || endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("photo store not configured: BUCKET, S3_ENDPOINT, ACCESS_KEY_ID and SECRET_ACCESS_KEY are required")
	}
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "auto"
	}

	secure := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &PhotoStore{client: client, bucket: bucket}, nil
}

// UploadDataURL decodes a base64 data URL, stores the image under a fresh
// date-scoped key and returns that key.  The key, not a URL, is what gets
// persisted on the visit.
func (s *PhotoStore) UploadDataURL(ctx context.Context, dataURL string) (string, error) {
	m := dataURLRe.FindStringSubmatch(dataURL)
	if m == nil {
		return "", errors.New("invalid data URL for photo upload")
	}
	contentType := m[1]
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", fmt.Errorf("decode photo payload: %w", err)
	}

	key := fmt.Sprintf("visits/%s/%s.jpg",
		time.Now().UTC().Format("2006-01-02"), uuid.NewString())

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// PresignedURL returns a displayable URL for a stored photo key, valid for
// one hour.
func (s *PhotoStore) PresignedURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignTTL, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

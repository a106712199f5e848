// utils/evidence.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	evidenceClient  *s3.Client
	evidenceBucket  string
	evidenceBaseURL string
)

const localEvidenceDir = "uploads/evidence"

// InitEvidenceStore configures the R2/S3 client for evidence uploads. When
// R2_BUCKET_NAME is unset the store falls back to local disk, which keeps
// development setups working without object storage credentials.
func InitEvidenceStore() error {
	evidenceBucket = os.Getenv("R2_BUCKET_NAME")
	if evidenceBucket == "" {
		log.Println("⚠️  R2_BUCKET_NAME not set — evidence uploads stored on local disk")
		return os.MkdirAll(localEvidenceDir, os.ModePerm)
	}

	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	evidenceBaseURL = os.Getenv("CDN_BASE_URL")
	if evidenceBaseURL == "" {
		evidenceBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	evidenceClient = s3.NewFromConfig(cfg)
	return nil
}

// StoreEvidence persists an uploaded evidence file and returns its stable
// reference string: a CDN URL when object storage is configured, a local
// path otherwise.
func StoreEvidence(fileHeader *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "evidence/" + uuid.NewString() + ext

	if evidenceClient == nil {
		destPath := filepath.Join("uploads", key)
		if err := saveLocal(fileHeader, destPath); err != nil {
			return "", fmt.Errorf("failed to save evidence locally: %w", err)
		}
		return "/" + filepath.ToSlash(destPath), nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open evidence file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read evidence file: %w", err)
	}

	_, err = evidenceClient.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(evidenceBucket),
		Key:         aws.String(key),
		Body:        buf,
		ContentType: aws.String(fileHeader.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence: %w", err)
	}

	return fmt.Sprintf("%s/%s", evidenceBaseURL, key), nil
}

func saveLocal(fileHeader *multipart.FileHeader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

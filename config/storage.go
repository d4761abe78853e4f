package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/storage"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"google.golang.org/api/option"
)

var BlobStore storage.BlobStore

// InitBlobStore picks the blob driver from STORAGE_DRIVER (gcs, s3, local).
func InitBlobStore(ctx context.Context) error {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	bucket := os.Getenv("STORAGE_BUCKET")

	var (
		s   storage.BlobStore
		err error
	)
	switch driver {
	case "gcs":
		var opts []option.ClientOption
		if f := os.Getenv("GCS_CREDENTIALS_FILE"); f != "" {
			opts = append(opts, option.WithCredentialsFile(f))
		}
		if ep := os.Getenv("GCS_ENDPOINT"); ep != "" {
			// fake-gcs-server and similar emulators
			opts = append(opts, option.WithEndpoint(ep), option.WithoutAuthentication())
		}
		s, err = storage.NewGCSStore(ctx, bucket, opts...)
	case "s3":
		s, err = initS3(ctx, bucket)
	case "", "local":
		root := os.Getenv("STORAGE_LOCAL_ROOT")
		if root == "" {
			root = "./var/uploads"
		}
		s, err = storage.NewLocalStore(root)
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}
	if err != nil {
		return err
	}

	BlobStore = s
	return nil
}

func initS3(ctx context.Context, bucket string) (storage.BlobStore, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL") // e.g. http://localstack:4566

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		// localstack accepts any static credentials
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return storage.NewS3Store(cfg, bucket, endpoint)
}

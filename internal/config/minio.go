package config

import (
	"context"

	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// NewMinIO connects to the object store holding member avatar images. The
// bucket is private, read paths hand out presigned GET URLs.
func NewMinIO(config *koanf.Koanf, log *zap.Logger) *minio.Client {
	minioClient, err := minio.New(config.String("MINIO_URL"), &minio.Options{
		Creds:  credentials.NewStaticV4(config.String("MINIO_USER"), config.String("MINIO_PASSWORD"), ""),
		Secure: false,
	})
	if err != nil {
		log.Fatal("failed to initialize minio client", zap.Error(err))
	}

	bucketName := config.String("MINIO_BUCKET_NAME")
	location := config.String("MINIO_LOCATION")
	ctx := context.Background()

	err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
		Region: location,
	})
	if err != nil {
		exists, errBucketExists := minioClient.BucketExists(ctx, bucketName)
		if errBucketExists == nil && exists {
			log.Info("minio bucket already exists")
		} else {
			log.Fatal("failed to create minio bucket", zap.Error(err))
		}
	} else {
		log.Info("successfully created minio bucket")
	}

	return minioClient
}

package adapters

import (
	"context"
	"time"

	"conecta/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AwsS3 validates object storage connections against Amazon S3.
//
// Expected credentials: access_key_id, secret_access_key, region, bucket.
type AwsS3 struct {
	Timeout time.Duration
}

func NewAwsS3() *AwsS3 { return &AwsS3{Timeout: 30 * time.Second} }

// withTimeout bounds every S3 call the same way the HTTP adapters bound
// theirs with the 30s client. O SDK não impõe timeout por request sozinho.
func (a *AwsS3) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Timeout)
}

func (a *AwsS3) Key() string { return models.PROVIDER_AWS_S3 }

func (a *AwsS3) client(ctx context.Context, creds map[string]any) (*s3.Client, string, error) {
	region := credString(creds, "region")
	bucket := credString(creds, "bucket")

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			credString(creds, "access_key_id"),
			credString(creds, "secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, "", err
	}
	return s3.NewFromConfig(cfg), bucket, nil
}

// VerifyCredentials does a HeadBucket with the static credentials. A failing
// head (wrong keys, missing bucket, no permission) is an expected failure.
func (a *AwsS3) VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult {
	if credString(creds, "access_key_id") == "" || credString(creds, "secret_access_key") == "" {
		return &VerifyResult{IsValid: false, Error: "access_key_id e secret_access_key são obrigatórios"}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	client, bucket, err := a.client(ctx, creds)
	if err != nil {
		return &VerifyResult{IsValid: false, Error: err.Error()}
	}
	if bucket == "" {
		return &VerifyResult{IsValid: false, Error: "bucket é obrigatório"}
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return &VerifyResult{IsValid: false, Error: err.Error()}
	}

	return &VerifyResult{IsValid: true, Metadata: map[string]any{
		"bucket": bucket,
		"region": credString(creds, "region"),
	}}
}

// CheckConnectionStatus reuses the same HeadBucket: it is already the
// cheapest call S3 offers.
func (a *AwsS3) CheckConnectionStatus(ctx context.Context, creds map[string]any) *StatusResult {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	client, bucket, err := a.client(ctx, creds)
	if err != nil {
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: err.Error()}
	}
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: err.Error()}
	}
	return &StatusResult{Status: models.CONNECTION_STATUS_ACTIVE}
}

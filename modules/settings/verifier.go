package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/warekit/warekit/pkg/response"
)

// BucketVerifier checks that a set of S3 settings can reach its bucket.
type BucketVerifier interface {
	VerifyBucket(ctx context.Context, cfg S3Settings) error
}

// s3Verifier performs a HeadBucket call with the candidate credentials.
type s3Verifier struct{}

func (s3Verifier) VerifyBucket(ctx context.Context, cfg S3Settings) error {
	fields := response.ValidationError{}
	if cfg.Region == "" {
		fields["region"] = append(fields["region"], "is required")
	}
	if cfg.Bucket == "" {
		fields["bucket"] = append(fields["bucket"], "is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretKey == "" {
		fields["access_key_id"] = append(fields["access_key_id"], "credentials are required")
	}
	if len(fields) > 0 {
		return fields
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", ErrVerificationFailed, apiErr.ErrorCode())
		}
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}

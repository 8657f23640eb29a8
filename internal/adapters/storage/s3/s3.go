package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"filestream/internal/ports"
)

// Client implements ports.Replica backed by an S3 bucket. Ranged reads
// map directly to the Range parameter of GetObject, so streaming never
// buffers whole objects.
type Client struct {
	svc      *awss3.S3
	uploader *s3manager.Uploader
	bucket   string
}

func New(sess *session.Session, bucket string) *Client {
	return &Client{
		svc:      awss3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}
}

func (c *Client) Provider() string { return "s3" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	up := &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(in.ObjectKey),
		Body:   in.Reader,
	}
	if in.ContentType != "" {
		up.ContentType = aws.String(in.ContentType)
	}

	if _, err := c.uploader.UploadWithContext(ctx, up); err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("s3 upload failed: %w", err)
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: in.Size}, nil
}

func (c *Client) OpenRange(ctx context.Context, objectKey string, offset, length int64) (io.ReadCloser, error) {
	in := &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey),
	}
	if offset > 0 || length >= 0 {
		if length < 0 {
			in.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
		} else {
			in.Range = aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
		}
	}

	out, err := c.svc.GetObjectWithContext(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := c.svc.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey),
	})
	return err
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"rikoadmin/pkg/logger"
)

const chatFilesFolder = "chat-files"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

// NewCloudStorageClient wraps an existing storage client for one bucket.
// origins, when non-empty, are installed as the bucket CORS policy so the
// browser can load chat images directly.
func NewCloudStorageClient(ctx context.Context, client *storage.Client, bucketName string, origins []string) *CloudStorageClient {
	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if len(origins) > 0 {
		if err := storageClient.setBucketCORS(ctx, origins); err != nil {
			logger.Warn("Failed to set CORS configuration: %v", err)
		}
	}

	return storageClient
}

func (c *CloudStorageClient) setBucketCORS(ctx context.Context, origins []string) error {
	bucket := c.client.Bucket(c.bucketName)

	corsConfig := storage.CORS{
		MaxAge:          3600,
		Methods:         []string{"GET", "HEAD"},
		Origins:         origins,
		ResponseHeaders: []string{"Content-Type"},
	}

	bucketAttrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}

	if len(bucketAttrs.CORS) == 0 {
		_, err := bucket.Update(ctx, storage.BucketAttrsToUpdate{
			CORS: []storage.CORS{corsConfig},
		})
		if err != nil {
			return fmt.Errorf("failed to update bucket CORS: %v", err)
		}
	}

	return nil
}

// ChatObjectName is where an upload for an order's chat is stored. A random
// prefix keeps two uploads with the same file name apart.
func ChatObjectName(orderID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "archivo"
	}
	return fmt.Sprintf("%s/%s/%s_%s", chatFilesFolder, orderID, uuid.New().String()[:8], base)
}

// UploadChatFile stores file for the order's chat and returns its public URL.
func (c *CloudStorageClient) UploadChatFile(ctx context.Context, orderID, fileName, contentType string, file io.Reader) (string, error) {
	objectName := ChatObjectName(orderID, fileName)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, fileURL string) error {
	// Expected URL format: https://storage.googleapis.com/bucket-name/file-path
	const prefix = "https://storage.googleapis.com/"
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("invalid GCS URL format")
	}

	parts := strings.SplitN(fileURL[len(prefix):], "/", 2)
	if len(parts) != 2 || parts[0] != c.bucketName {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	if err := c.client.Bucket(c.bucketName).Object(parts[1]).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}

	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

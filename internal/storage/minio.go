package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var Client *minio.Client
var BucketName string

func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "receipt-scanner-backend"
	}

	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		return fmt.Errorf("MINIO_SECRET_KEY not set")
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "receipts"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	var err error
	Client, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", BucketName)
	}

	return nil
}

// ObjectKeyForReceipt returns the object name the source PDF is stored under.
func ObjectKeyForReceipt(receiptID string) string {
	return fmt.Sprintf("receipts/%s.pdf", receiptID)
}

// UploadReceiptPDF stores the source PDF so the receipt can be reparsed or
// served later. Returns the object key for storage in the DB.
func UploadReceiptPDF(ctx context.Context, receiptID string, pdfData []byte) (string, error) {
	objectName := ObjectKeyForReceipt(receiptID)

	_, err := Client.PutObject(ctx, BucketName, objectName,
		bytes.NewReader(pdfData), int64(len(pdfData)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}

	return objectName, nil
}

// DownloadReceiptPDF fetches a stored receipt PDF back out of the bucket.
func DownloadReceiptPDF(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := Client.GetObject(ctx, BucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get PDF: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return data, nil
}

// DeleteReceiptPDF removes a stored PDF from the bucket.
func DeleteReceiptPDF(ctx context.Context, objectKey string) error {
	return Client.RemoveObject(ctx, BucketName, objectKey, minio.RemoveObjectOptions{})
}

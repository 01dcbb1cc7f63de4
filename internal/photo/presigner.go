package photo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	appconfig "infusesecret/internal/platform/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const defaultExpiry = 15 * time.Minute

// allowedTypes 允許上傳的圖片類型與對應副檔名.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MsgUnsupportedType 不支援的圖片類型.
const MsgUnsupportedType = "Unsupported content type"

// UnsupportedTypeError 圖片類型不在允許清單內 (400).
type UnsupportedTypeError struct {
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}
func (e *UnsupportedTypeError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *UnsupportedTypeError) PublicMessage() string { return MsgUnsupportedType }

// Upload 預簽名上傳資訊.
type Upload struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"` // 秒.
}

// Presigner 產生 S3 相容儲存的預簽名 PUT 網址.
type Presigner struct {
	client        *s3.PresignClient
	bucket        string
	publicBaseURL string
	expiry        time.Duration
	now           func() time.Time
}

// NewPresigner 依配置建立預簽名器；BaseEndpoint 設定時使用 path-style（MinIO）.
func NewPresigner(ctx context.Context, cfg appconfig.PhotosConfig) (*Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	expiry := defaultExpiry
	if cfg.ExpiresMinutes > 0 {
		expiry = time.Duration(cfg.ExpiresMinutes) * time.Minute
	}

	return &Presigner{
		client:        s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		expiry:        expiry,
		now:           time.Now,
	}, nil
}

// PresignUpload 為指定圖片類型產生上傳網址與上傳後的公開網址.
func (p *Presigner) PresignUpload(ctx context.Context, contentType string) (*Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, &UnsupportedTypeError{ContentType: contentType}
	}

	key := p.objectKey(ext)
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &Upload{
		UploadURL: req.URL,
		PhotoURL:  p.publicBaseURL + "/" + key,
		Key:       key,
		ExpiresIn: int(p.expiry / time.Second),
	}, nil
}

// objectKey photos/yyyy/mm/dd/<uuid><ext>.
func (p *Presigner) objectKey(ext string) string {
	d := p.now().UTC()
	return fmt.Sprintf("photos/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryBackend uploads media to Cloudinary, letting it detect the resource type.
type CloudinaryBackend struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryBackend builds a backend from a cloudinary:// URL. An empty URL
// falls back to the CLOUDINARY_URL environment variable read by the SDK.
func NewCloudinaryBackend(url string) (*CloudinaryBackend, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if strings.TrimSpace(url) == "" {
		cld, err = cloudinary.New()
	} else {
		cld, err = cloudinary.NewFromURL(url)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryBackend{cld: cld}, nil
}

func (c *CloudinaryBackend) Upload(ctx context.Context, folder, name string, body io.ReadSeeker, _ string) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       folder,
		PublicID:     strings.TrimSuffix(name, filepath.Ext(name)),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

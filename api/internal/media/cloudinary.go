// Package media uploads generated images to Cloudinary.
package media

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"taskboard/api/internal/apperr"
)

const (
	DefaultFolder         = "poster_generator"
	DefaultTransformation = "c_limit,h_1024,w_1024/q_auto:best"

	op = "media.upload"
)

// Asset is what the host reports back for one stored image.
type Asset struct {
	URL      string
	PublicID string
	Width    int
	Height   int
	Format   string
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type Uploader struct {
	Folder         string
	Transformation string

	api    uploadAPI
	logger *slog.Logger
}

func New(cloudName, apiKey, apiSecret string, logger *slog.Logger) (*Uploader, error) {
	var missing []string
	if cloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if apiKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if apiSecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	if len(missing) > 0 {
		return nil, apperr.Newf(apperr.KindConfiguration, "media.new", "missing %s", strings.Join(missing, ", "))
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "media.new", err)
	}
	return newUploader(&cld.Upload, logger), nil
}

func newUploader(api uploadAPI, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		Folder:         DefaultFolder,
		Transformation: DefaultTransformation,
		api:            api,
		logger:         logger,
	}
}

// Upload stores data and returns the hosted asset. The service keeps no copy.
func (u *Uploader) Upload(ctx context.Context, data []byte) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, apperr.Newf(apperr.KindUpstream, op, "empty image")
	}
	res, err := u.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         u.Folder,
		Transformation: u.Transformation,
	})
	if err != nil {
		return Asset{}, apperr.New(apperr.KindUpstream, op, err)
	}
	if res == nil {
		return Asset{}, apperr.New(apperr.KindUpstream, op, errors.New("empty upload result"))
	}
	if res.Error.Message != "" {
		return Asset{}, apperr.Newf(apperr.KindUpstream, op, "cloudinary: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return Asset{}, apperr.Newf(apperr.KindUpstream, op, "cloudinary returned no secure_url")
	}

	u.logger.DebugContext(ctx, "image uploaded", "public_id", res.PublicID, "bytes", res.Bytes)
	return Asset{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Width:    res.Width,
		Height:   res.Height,
		Format:   res.Format,
	}, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/model"
)

// UploadService hands out short-lived presigned upload URLs under the
// FAX intake prefix, so uploads land where the ingest worker watches.
type UploadService struct {
	blobs  blob.Store
	prefix string
	ttl    time.Duration
}

func NewUploadService(blobs blob.Store, prefix string, ttl time.Duration) *UploadService {
	return &UploadService{blobs: blobs, prefix: prefix, ttl: ttl}
}

// PresignUpload returns the object key the client must upload to and a
// presigned PUT URL for it. File names with path separators are rejected
// so clients cannot escape the intake prefix.
func (s *UploadService) PresignUpload(ctx context.Context, fileName string) (key, url string, err error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", "", errors.Wrap(model.ErrValidation, "fileName is required")
	}
	if strings.ContainsAny(fileName, "/\\") || strings.Contains(fileName, "..") {
		return "", "", errors.Wrap(model.ErrValidation, "fileName must be a bare file name")
	}
	key = fmt.Sprintf("%s%d-%s", s.prefix, time.Now().UnixMilli(), fileName)
	url, err = s.blobs.PresignPut(ctx, key, s.ttl)
	if err != nil {
		return "", "", errors.Wrap(err, "presign upload url")
	}
	return key, url, nil
}

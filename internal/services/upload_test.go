package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avclabs/faxdesk/internal/model"
)

func TestPresignUpload(t *testing.T) {
	svc := NewUploadService(newFakeBlob(), "fax/incoming/", 15*time.Minute)

	key, url, err := svc.PresignUpload(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "fax/incoming/"))
	assert.True(t, strings.HasSuffix(key, "-scan.png"))
	assert.Equal(t, "https://blob.test/put/"+key, url)
}

func TestPresignUploadValidation(t *testing.T) {
	svc := NewUploadService(newFakeBlob(), "fax/incoming/", 15*time.Minute)

	for _, name := range []string{"", "  ", "a/b.png", `a\b.png`, "../escape.png"} {
		_, _, err := svc.PresignUpload(context.Background(), name)
		assert.ErrorIs(t, err, model.ErrValidation, "fileName %q", name)
	}
}

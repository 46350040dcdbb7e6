package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	id := uuid.New()
	path, err := st.Upload(context.Background(), id, "capture.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Contains(t, path, id.String())

	rc, err := st.Download(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, st.Delete(context.Background(), path))
	_, err = st.Download(context.Background(), path)
	assert.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, st.Delete(context.Background(), "ab/absent.png"))
}

package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	written, err := store.Save(ctx, "abc_report.pdf", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), written)

	rc, err := store.Open(ctx, "abc_report.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "file body", string(body))

	require.NoError(t, store.Delete(ctx, "abc_report.pdf"))

	_, err = store.Open(ctx, "abc_report.pdf")
	assert.ErrorIs(t, err, apperrors.ErrAttachmentNotFound)
}

func TestLocalStoreRejectsDuplicate(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "dup.txt", strings.NewReader("one"))
	require.NoError(t, err)

	_, err = store.Save(ctx, "dup.txt", strings.NewReader("two"))
	assert.Error(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"../escape.txt", "a/b.txt", ".hidden", ""} {
		_, err := store.Save(ctx, name, strings.NewReader("x"))
		assert.Error(t, err, "name %q should be rejected", name)
	}
}

func TestLocalStoreDeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, apperrors.ErrAttachmentNotFound)
}

package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/storage"
)

func TestLocalDiskLifecycle(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, disk.Put(ctx, "menu/m1.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	ok, err := disk.Exists(ctx, "menu/m1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := disk.Get(ctx, "/menu/m1.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "jpeg", string(data))

	assert.Equal(t, "http://localhost:8080/storage/menu/m1.jpg", disk.URL("menu/m1.jpg"))

	require.NoError(t, disk.Delete(ctx, "menu/m1.jpg"))
	require.NoError(t, disk.Delete(ctx, "menu/m1.jpg"), "delete is idempotent")
	_, err = disk.Get(ctx, "menu/m1.jpg")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalDiskRejectsTraversal(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	for _, p := range []string{"../etc/passwd", "menu/../../x", "", "/"} {
		err := disk.Put(context.Background(), p, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, storage.ErrInvalidPath, p)
	}
}

package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorageSaveOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	owner := uuid.New()

	info, err := s.Save(ctx, owner, "OI Januari_HASIL.xlsx", "application/octet-stream", strings.NewReader("xlsx-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, owner, info.OwnerID)
	assert.Equal(t, "OI Januari_HASIL.xlsx", info.Name)

	rc, got, err := s.Open(ctx, owner, info.ID)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(body))
	assert.Equal(t, info.ID, got.ID)
}

func TestLocalStorageOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	info, err := s.Save(ctx, uuid.New(), "a.xlsx", "", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = s.Stat(ctx, uuid.New(), info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorageDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	owner := uuid.Nil

	info, err := s.Save(ctx, owner, "a.xlsx", "", strings.NewReader("a"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, owner, info.ID))
	_, _, err = s.Open(ctx, owner, info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, s.Delete(ctx, owner, info.ID), ErrFileNotFound)
}

func TestLocalStorageListOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	owner := uuid.New()

	base := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"first.xlsx", "second.xlsx", "third.xlsx"} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		_, err := s.Save(ctx, owner, name, "", strings.NewReader(name))
		require.NoError(t, err)
	}

	files, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "first.xlsx", files[0].Name)
	assert.Equal(t, "third.xlsx", files[2].Name)

	empty, err := s.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"../../etc/passwd", "____etc_passwd"},
		{"OI: Jan?.xlsx", "OI_ Jan_.xlsx"},
		{"  ", "workbook.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}

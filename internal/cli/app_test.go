package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{
		StorageRootDir: filepath.Join(t.TempDir(), "root"),
		DatabaseDSN:    filepath.Join(t.TempDir(), "meta.db"),
	}

	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	var buf bytes.Buffer
	app.out = &buf
	return app, &buf
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	path := filepath.Join(t.TempDir(), "pic.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// addedID runs the add command and extracts the new attachment id from
// its output.
func addedID(t *testing.T, app *App, out *bytes.Buffer, path string) string {
	t.Helper()
	require.NoError(t, app.Dispatch(context.Background(), []string{"add", path}))
	fields := strings.Fields(out.String())
	require.GreaterOrEqual(t, len(fields), 2)
	out.Reset()
	return fields[1]
}

func TestDispatch_UnknownCommand(t *testing.T) {
	app, out := newTestApp(t)

	err := app.Dispatch(context.Background(), []string{"bogus"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestDispatch_AddListInfo(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()

	id := addedID(t, app, out, writeTestPNG(t, 40, 30))

	require.NoError(t, app.Dispatch(ctx, []string{"list"}))
	assert.Contains(t, out.String(), id)
	out.Reset()

	require.NoError(t, app.Dispatch(ctx, []string{"info", id}))
	s := out.String()
	assert.Contains(t, s, "image/png")
	assert.Contains(t, s, "valid image:  true")
	assert.Contains(t, s, "40x30")
}

func TestDispatch_Thumb(t *testing.T) {
	app, out := newTestApp(t)

	id := addedID(t, app, out, writeTestPNG(t, 400, 400))

	require.NoError(t, app.Dispatch(context.Background(), []string{"thumb", id}))
	assert.Contains(t, out.String(), ".thumbnail.200.jpg")
}

func TestDispatch_PointerRequiresUpload(t *testing.T) {
	app, out := newTestApp(t)

	id := addedID(t, app, out, writeTestPNG(t, 10, 10))

	err := app.Dispatch(context.Background(), []string{"pointer", id})
	require.ErrorIs(t, err, common.ErrNotUploaded)
}

func TestDispatch_Delete(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()

	id := addedID(t, app, out, writeTestPNG(t, 10, 10))

	require.NoError(t, app.Dispatch(ctx, []string{"delete", id}))
	assert.Contains(t, out.String(), "deleted "+id)

	err := app.Dispatch(ctx, []string{"info", id})
	require.ErrorIs(t, err, common.ErrNotFound)
}

package services

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/reblog"
	"github.com/camden-git/pressdesk/remote"
	"github.com/camden-git/pressdesk/repository"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type editorNav struct {
	editors []*models.Post
}

func (n *editorNav) ShowEmptyState(reblog.EmptyStateAction) {}

func (n *editorNav) ShowEditor(post *models.Post) {
	n.editors = append(n.editors, post)
}

func (n *editorNav) ShowBlogPicker([]models.Blog, func(models.Blog)) {}

func TestReblogServices_EndToEnd(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, imaging.Encode(&img, imaging.New(12, 8, color.White), imaging.PNG))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img.Bytes())
	}))
	defer srv.Close()

	db := newTestDB(t)
	blogRepo := repository.NewBlogRepository(db)
	postRepo := repository.NewPostRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	require.NoError(t, blogRepo.Upsert(&models.Blog{AccountID: 1, SiteID: 500, Name: "Mine", URL: "https://mine.test", Visible: true, BlockEditorEnabled: true}))
	require.NoError(t, blogRepo.Upsert(&models.Blog{AccountID: 1, SiteID: 501, Name: "Hidden", URL: "https://hidden.test"}))

	store, err := media.NewLocalStorage(t.TempDir(), map[media.AssetType]string{media.AssetTypeDownload: "downloads"})
	require.NoError(t, err)
	nav := &editorNav{}
	presenter := reblog.NewPresenter(
		NewBlogDirectory(blogRepo),
		NewDraftService(postRepo),
		NewMediaLibrary(mediaRepo, media.NewProcessor(store, 32)),
		remote.NewImageDownloader(5*time.Second),
		nav,
	)

	var final *models.Post
	route, err := presenter.Present(context.Background(), 1, remote.Post{
		Title:         "Hello",
		Excerpt:       "<p>world</p>",
		Permalink:     "https://other.test/hello",
		FeaturedImage: srv.URL + "/covers/hello.png",
	}, func(post *models.Post, err error) {
		assert.NoError(t, err)
		final = post
	})
	require.NoError(t, err)
	assert.Equal(t, reblog.RouteEditor, route)
	require.Len(t, nav.editors, 1)

	presenter.Wait()
	require.NotNil(t, final)
	require.NotNil(t, final.FeaturedImageID)

	stored, err := postRepo.GetByID(final.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", stored.Title)
	assert.Equal(t, final.FeaturedImageID, stored.FeaturedImageID)
	assert.Contains(t, stored.Content, "wp:quote")

	m, err := mediaRepo.GetByID(*stored.FeaturedImageID)
	require.NoError(t, err)
	assert.Equal(t, "hello.png", m.Filename)
	assert.Equal(t, "image/png", m.MimeType)
	assert.Equal(t, 12, m.Width)
	assert.Regexp(t, `^downloads/.+\.png$`, m.LocalPath)

	full, err := store.GetFullPath(m.LocalPath)
	require.NoError(t, err)
	assert.FileExists(t, full)

	draft, err := NewDraftReader(postRepo, mediaRepo).GetDraft(context.Background(), final.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", draft.Post.Title)
	require.Len(t, draft.Media, 1)
	require.NotNil(t, draft.FeaturedImage)
	assert.Equal(t, m.ID, draft.FeaturedImage.ID)
}

func TestDraftReader_Missing(t *testing.T) {
	db := newTestDB(t)
	postRepo := repository.NewPostRepository(db)
	reader := NewDraftReader(postRepo, repository.NewMediaRepository(db))

	_, err := reader.GetDraft(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	lost := uint(99)
	post := &models.Post{BlogID: 1, Title: "No cover", FeaturedImageID: &lost}
	require.NoError(t, postRepo.Create(post))
	draft, err := reader.GetDraft(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, draft.Media)
	assert.Nil(t, draft.FeaturedImage)
}

type failingMedia struct {
	repository.MediaRepositoryInterface
}

func (failingMedia) Create(*models.Media) error {
	return errors.New("disk full")
}

func TestMediaLibrary_RemovesFileWhenRecordFails(t *testing.T) {
	base := t.TempDir()
	store, err := media.NewLocalStorage(base, nil)
	require.NoError(t, err)
	lib := NewMediaLibrary(failingMedia{}, media.NewProcessor(store, 32))

	_, err = lib.CreateMedia(context.Background(), &models.Post{ID: 1, BlogID: 1},
		&remote.Image{Data: []byte("png bytes"), Format: "png"}, "https://a.test/x.png")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(base, "downloads"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

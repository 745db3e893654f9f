package reblog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlogs struct {
	blogs []models.Blog
	err   error
}

func (f *fakeBlogs) VisibleBlogs(ctx context.Context, accountID int64) ([]models.Blog, error) {
	return f.blogs, f.err
}

type fakePosts struct {
	mu        sync.Mutex
	nextID    uint
	saved     map[uint]models.Post
	createErr error
}

func (f *fakePosts) CreateDraft(ctx context.Context, blog models.Blog) (*models.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &models.Post{ID: f.nextID, BlogID: blog.ID, Status: models.PostStatusDraft}, nil
}

func (f *fakePosts) Save(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[uint]models.Post{}
	}
	f.saved[post.ID] = *post
	return nil
}

func (f *fakePosts) get(id uint) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[id]
}

type fakeMedia struct {
	mu      sync.Mutex
	created []string
}

func (f *fakeMedia) CreateMedia(ctx context.Context, post *models.Post, img *remote.Image, sourceURL string) (*models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, sourceURL)
	return &models.Media{ID: 77, BlogID: post.BlogID, PostID: &post.ID, RemoteURL: sourceURL}, nil
}

type fakeImages struct {
	err error
}

func (f *fakeImages) Download(ctx context.Context, url string) (*remote.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &remote.Image{Data: []byte{0xFF, 0xD8}, Format: "jpeg"}, nil
}

type fakeNav struct {
	emptyActions []EmptyStateAction
	editors      []*models.Post
	picker       []models.Blog
	onSelect     func(models.Blog)
}

func (n *fakeNav) ShowEmptyState(action EmptyStateAction) {
	n.emptyActions = append(n.emptyActions, action)
}

func (n *fakeNav) ShowEditor(post *models.Post) {
	n.editors = append(n.editors, post)
}

func (n *fakeNav) ShowBlogPicker(blogs []models.Blog, onSelect func(models.Blog)) {
	n.picker = blogs
	n.onSelect = onSelect
}

type doneRecorder struct {
	mu    sync.Mutex
	posts []*models.Post
	errs  []error
}

func (d *doneRecorder) done(post *models.Post, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.posts = append(d.posts, post)
	d.errs = append(d.errs, err)
}

type fixture struct {
	blogs  *fakeBlogs
	posts  *fakePosts
	media  *fakeMedia
	images *fakeImages
	nav    *fakeNav
	p      *Presenter
}

func newFixture(blogs ...models.Blog) *fixture {
	f := &fixture{
		blogs:  &fakeBlogs{blogs: blogs},
		posts:  &fakePosts{},
		media:  &fakeMedia{},
		images: &fakeImages{},
		nav:    &fakeNav{},
	}
	f.p = NewPresenter(f.blogs, f.posts, f.media, f.images, f.nav)
	return f
}

var source = remote.Post{
	ID:        9,
	SiteID:    100,
	Title:     "Original title",
	Excerpt:   "A short summary",
	Permalink: "https://example.com/original",
}

func TestPresent_NoBlogsShowsEmptyState(t *testing.T) {
	f := newFixture()
	rec := &doneRecorder{}

	route, err := f.p.Present(context.Background(), 1, source, rec.done)
	require.NoError(t, err)
	assert.Equal(t, RouteEmptyState, route)
	assert.Equal(t, []EmptyStateAction{ActionManageSites}, f.nav.emptyActions)
	assert.Empty(t, f.nav.editors)
	assert.Empty(t, rec.posts)
}

func TestPresent_SingleBlogOpensEditor(t *testing.T) {
	f := newFixture(models.Blog{ID: 3, Name: "Only"})
	rec := &doneRecorder{}

	route, err := f.p.Present(context.Background(), 1, source, rec.done)
	require.NoError(t, err)
	assert.Equal(t, RouteEditor, route)
	require.Len(t, f.nav.editors, 1)
	assert.Nil(t, f.nav.picker)

	post := f.nav.editors[0]
	assert.Equal(t, uint(3), post.BlogID)
	assert.Equal(t, "Original title", post.Title)
	assert.Contains(t, post.Content, "A short summary")

	f.p.Wait()
	require.Len(t, rec.posts, 1)
	assert.NoError(t, rec.errs[0])
}

func TestPresent_ManyBlogsShowsSortedPicker(t *testing.T) {
	f := newFixture(
		models.Blog{ID: 1, SiteID: 1, Name: "Site 10"},
		models.Blog{ID: 2, SiteID: 2, Name: "Site 2"},
		models.Blog{ID: 3, SiteID: 3, Name: "Site 1"},
	)
	rec := &doneRecorder{}

	route, err := f.p.Present(context.Background(), 1, source, rec.done)
	require.NoError(t, err)
	assert.Equal(t, RouteBlogPicker, route)
	assert.Empty(t, f.nav.editors)

	var names []string
	for _, b := range f.nav.picker {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Site 1", "Site 2", "Site 10"}, names)

	f.nav.onSelect(f.nav.picker[2])
	require.Len(t, f.nav.editors, 1)
	assert.Equal(t, uint(1), f.nav.editors[0].BlogID)
	f.p.Wait()
	assert.Len(t, rec.posts, 1)
}

func TestPresent_BlogServiceError(t *testing.T) {
	f := newFixture()
	f.blogs.err = errors.New("db down")

	_, err := f.p.Present(context.Background(), 1, source, nil)
	assert.Error(t, err)
	assert.Empty(t, f.nav.emptyActions)
}

func TestPrepareDraft_Dialects(t *testing.T) {
	f := newFixture()

	classic, err := f.p.PrepareDraft(context.Background(), models.Blog{ID: 1}, source, nil)
	require.NoError(t, err)
	assert.Equal(t,
		`<blockquote><p>A short summary</p><cite><a href="https://example.com/original">Original title</a></cite></blockquote>`,
		classic.Content)

	block, err := f.p.PrepareDraft(context.Background(), models.Blog{ID: 2, BlockEditorEnabled: true}, source, nil)
	require.NoError(t, err)
	assert.Equal(t, "<!-- wp:quote -->\n"+
		`<blockquote class="wp-block-quote"><p>A short summary</p><cite><a href="https://example.com/original">Original title</a></cite></blockquote>`+"\n"+
		"<!-- /wp:quote -->", block.Content)

	assert.Equal(t, classic.Content, f.posts.get(classic.ID).Content)
}

func TestPrepareDraft_AttachesFeaturedImage(t *testing.T) {
	f := newFixture()
	src := source
	src.FeaturedImage = "https://example.com/cover.jpg"
	rec := &doneRecorder{}

	post, err := f.p.PrepareDraft(context.Background(), models.Blog{ID: 5, BlockEditorEnabled: true}, src, rec.done)
	require.NoError(t, err)
	assert.Nil(t, post.FeaturedImageID)
	assert.Contains(t, post.Content, "wp:quote", "content is set before the download finishes")

	f.p.Wait()
	require.Len(t, rec.posts, 1)
	require.NoError(t, rec.errs[0])
	final := rec.posts[0]
	require.NotNil(t, final.FeaturedImageID)
	assert.Equal(t, uint(77), *final.FeaturedImageID)
	assert.Contains(t, final.Content, `<!-- wp:image {"id":77} -->`)
	assert.Contains(t, final.Content, "wp:quote")

	assert.Equal(t, []string{"https://example.com/cover.jpg"}, f.media.created)
	stored := f.posts.get(post.ID)
	require.NotNil(t, stored.FeaturedImageID)
}

func TestPrepareDraft_DownloadFailureSkipsAttachment(t *testing.T) {
	f := newFixture()
	f.images.err = errors.New("404")
	src := source
	src.FeaturedImage = "https://example.com/missing.jpg"
	rec := &doneRecorder{}

	post, err := f.p.PrepareDraft(context.Background(), models.Blog{ID: 5}, src, rec.done)
	require.NoError(t, err)

	f.p.Wait()
	require.Len(t, rec.posts, 1)
	assert.NoError(t, rec.errs[0])
	assert.Nil(t, rec.posts[0].FeaturedImageID)
	assert.Equal(t, post.Content, rec.posts[0].Content)
	assert.Empty(t, f.media.created)
}

func TestPrepareDraft_CreateFailureCallsDoneOnce(t *testing.T) {
	f := newFixture()
	f.posts.createErr = errors.New("quota")
	rec := &doneRecorder{}

	_, err := f.p.PrepareDraft(context.Background(), models.Blog{ID: 5}, source, rec.done)
	require.Error(t, err)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], f.posts.createErr)
	assert.Nil(t, rec.posts[0])
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "empty_state", RouteEmptyState.String())
	assert.Equal(t, "editor", RouteEditor.String())
	assert.Equal(t, "blog_picker", RouteBlogPicker.String())
	assert.Equal(t, "route(9)", Route(9).String())
}

func TestWithNavigator_SharesWait(t *testing.T) {
	f := newFixture(models.Blog{ID: 5, SiteID: 50, Visible: true})
	nav := &fakeNav{}
	p := f.p.WithNavigator(nav)
	src := source
	src.FeaturedImage = "https://example.com/cover.jpg"
	rec := &doneRecorder{}

	route, err := p.Present(context.Background(), 1, src, rec.done)
	require.NoError(t, err)
	assert.Equal(t, RouteEditor, route)
	assert.Len(t, nav.editors, 1)
	assert.Empty(t, f.nav.editors, "the original navigator is untouched")

	f.p.Wait()
	require.Len(t, rec.posts, 1)
	require.NotNil(t, rec.posts[0].FeaturedImageID)
}

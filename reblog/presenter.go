// Package reblog turns a post from another site into a new draft that quotes
// it, choosing the destination blog from the ones the account can post to.
package reblog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/remote"
	"github.com/facette/natsort"
)

type BlogService interface {
	VisibleBlogs(ctx context.Context, accountID int64) ([]models.Blog, error)
}

type PostService interface {
	CreateDraft(ctx context.Context, blog models.Blog) (*models.Post, error)
	Save(ctx context.Context, post *models.Post) error
}

// MediaService stores a downloaded image and records it as media of post.
type MediaService interface {
	CreateMedia(ctx context.Context, post *models.Post, img *remote.Image, sourceURL string) (*models.Media, error)
}

type ImageDownloader interface {
	Download(ctx context.Context, url string) (*remote.Image, error)
}

// Navigator presents the screens of the flow.
type Navigator interface {
	ShowEmptyState(action EmptyStateAction)
	ShowEditor(post *models.Post)
	ShowBlogPicker(blogs []models.Blog, onSelect func(models.Blog))
}

type EmptyStateAction string

// ActionManageSites is the only action offered to accounts without a site.
const ActionManageSites EmptyStateAction = "manage_sites"

type Route int

const (
	RouteEmptyState Route = iota
	RouteEditor
	RouteBlogPicker
)

func (r Route) String() string {
	switch r {
	case RouteEmptyState:
		return "empty_state"
	case RouteEditor:
		return "editor"
	case RouteBlogPicker:
		return "blog_picker"
	default:
		return fmt.Sprintf("route(%d)", int(r))
	}
}

// DoneFunc receives the draft once its featured image has been dealt with.
type DoneFunc func(post *models.Post, err error)

type Presenter struct {
	blogs  BlogService
	posts  PostService
	media  MediaService
	images ImageDownloader
	nav    Navigator

	// shared by every copy made with WithNavigator
	wg *sync.WaitGroup
}

func NewPresenter(blogs BlogService, posts PostService, media MediaService, images ImageDownloader, nav Navigator) *Presenter {
	return &Presenter{
		blogs:  blogs,
		posts:  posts,
		media:  media,
		images: images,
		nav:    nav,
		wg:     &sync.WaitGroup{},
	}
}

// WithNavigator returns a presenter that shows its screens on nav. Background
// attachments of the copy are tracked by the original's Wait.
func (p *Presenter) WithNavigator(nav Navigator) *Presenter {
	c := *p
	c.nav = nav
	return &c
}

// Present routes by the number of visible blogs of the account: none shows
// the empty state, one opens the editor, more shows a picker that opens the
// editor for the chosen blog.
func (p *Presenter) Present(ctx context.Context, accountID int64, source remote.Post, done DoneFunc) (Route, error) {
	blogs, err := p.blogs.VisibleBlogs(ctx, accountID)
	if err != nil {
		return RouteEmptyState, fmt.Errorf("failed to list blogs for account %d: %w", accountID, err)
	}

	switch len(blogs) {
	case 0:
		p.nav.ShowEmptyState(ActionManageSites)
		return RouteEmptyState, nil
	case 1:
		if err := p.openEditor(ctx, blogs[0], source, done); err != nil {
			return RouteEditor, err
		}
		return RouteEditor, nil
	default:
		sorted := SortBlogs(blogs)
		p.nav.ShowBlogPicker(sorted, func(blog models.Blog) {
			if err := p.openEditor(ctx, blog, source, done); err != nil {
				log.Printf("reblog: failed to open editor for blog %d: %v", blog.ID, err)
			}
		})
		return RouteBlogPicker, nil
	}
}

func (p *Presenter) openEditor(ctx context.Context, blog models.Blog, source remote.Post, done DoneFunc) error {
	post, err := p.PrepareDraft(ctx, blog, source, done)
	if err != nil {
		return err
	}
	p.nav.ShowEditor(post)
	return nil
}

// SortBlogs returns blogs ordered naturally by name, then by site ID.
func SortBlogs(blogs []models.Blog) []models.Blog {
	sorted := append([]models.Blog(nil), blogs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Name != b.Name {
			return natsort.Compare(a.Name, b.Name)
		}
		return a.SiteID < b.SiteID
	})
	return sorted
}

// PrepareDraft creates a draft on blog quoting source and returns it with its
// title and content already saved. If source has a featured image, it is
// downloaded and attached in the background; failures there are logged and
// leave the draft without an image. done is called exactly once, after that
// attempt or right away when there is nothing to attach.
func (p *Presenter) PrepareDraft(ctx context.Context, blog models.Blog, source remote.Post, done DoneFunc) (*models.Post, error) {
	if done == nil {
		done = func(*models.Post, error) {}
	}

	post, err := p.posts.CreateDraft(ctx, blog)
	if err != nil {
		err = fmt.Errorf("failed to create draft on blog %d: %w", blog.ID, err)
		done(nil, err)
		return nil, err
	}

	f := Formatter{BlockEditor: blog.BlockEditorEnabled}
	post.Title = source.Title
	post.Content = f.Quote(source.Excerpt, source.Title, source.Permalink)
	if err := p.posts.Save(ctx, post); err != nil {
		err = fmt.Errorf("failed to save draft %d: %w", post.ID, err)
		done(nil, err)
		return nil, err
	}

	if source.FeaturedImage == "" {
		done(clonePost(post), nil)
		return post, nil
	}

	draft := clonePost(post)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		done(p.attachFeaturedImage(context.WithoutCancel(ctx), f, draft, source.FeaturedImage), nil)
	}()
	return post, nil
}

// attachFeaturedImage works on its own copy of the draft and returns it,
// updated only when every step succeeded.
func (p *Presenter) attachFeaturedImage(ctx context.Context, f Formatter, post *models.Post, imageURL string) *models.Post {
	img, err := p.images.Download(ctx, imageURL)
	if err != nil {
		log.Printf("reblog: skipping featured image of draft %d: %v", post.ID, err)
		return post
	}

	m, err := p.media.CreateMedia(ctx, post, img, imageURL)
	if err != nil {
		log.Printf("reblog: skipping featured image of draft %d: %v", post.ID, err)
		return post
	}

	updated := clonePost(post)
	mediaID := m.ID
	updated.FeaturedImageID = &mediaID
	updated.Content = f.ImageBlock(imageURL, m.ID) + "\n" + post.Content
	if err := p.posts.Save(ctx, updated); err != nil {
		log.Printf("reblog: failed to save featured image of draft %d: %v", post.ID, err)
		return post
	}
	return updated
}

// Wait blocks until all background attachments, including those started by
// copies from WithNavigator, have finished.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

func clonePost(post *models.Post) *models.Post {
	c := *post
	if post.FeaturedImageID != nil {
		id := *post.FeaturedImageID
		c.FeaturedImageID = &id
	}
	return &c
}

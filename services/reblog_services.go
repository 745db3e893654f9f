package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/camden-git/pressdesk/config"
	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/remote"
	"github.com/camden-git/pressdesk/repository"
	"gorm.io/gorm"
)

// BlogDirectory lists the blogs an account can post to.
type BlogDirectory struct {
	blogRepo repository.BlogRepositoryInterface
}

func NewBlogDirectory(blogRepo repository.BlogRepositoryInterface) *BlogDirectory {
	return &BlogDirectory{blogRepo: blogRepo}
}

func (d *BlogDirectory) VisibleBlogs(_ context.Context, accountID int64) ([]models.Blog, error) {
	return d.blogRepo.ListVisibleByAccount(accountID)
}

// ImportSites upserts every catalog entry keyed by site ID and returns how
// many rows were written. Blogs missing from the catalog are left alone.
func (d *BlogDirectory) ImportSites(sites *config.SitesFile) (int, error) {
	if sites == nil {
		return 0, nil
	}
	for i, s := range sites.Sites {
		blog := &models.Blog{
			AccountID:          s.AccountID,
			SiteID:             s.SiteID,
			Name:               s.Name,
			URL:                s.URL,
			Visible:            s.IsVisible(),
			BlockEditorEnabled: s.BlockEditor,
		}
		if err := d.blogRepo.Upsert(blog); err != nil {
			return i, fmt.Errorf("failed to import site %d: %w", s.SiteID, err)
		}
	}
	log.Printf("blogs: imported %d sites", len(sites.Sites))
	return len(sites.Sites), nil
}

// DraftService creates and saves local draft posts.
type DraftService struct {
	postRepo repository.PostRepositoryInterface
}

func NewDraftService(postRepo repository.PostRepositoryInterface) *DraftService {
	return &DraftService{postRepo: postRepo}
}

func (s *DraftService) CreateDraft(_ context.Context, blog models.Blog) (*models.Post, error) {
	post := &models.Post{BlogID: blog.ID, Status: models.PostStatusDraft}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *DraftService) Save(_ context.Context, post *models.Post) error {
	return s.postRepo.Update(post)
}

// Draft is a stored post with the media attached to it.
type Draft struct {
	Post          *models.Post   `json:"post"`
	Media         []models.Media `json:"media"`
	FeaturedImage *models.Media  `json:"featured_image,omitempty"`
}

// DraftReader loads drafts back after their featured image has settled.
type DraftReader struct {
	postRepo  repository.PostRepositoryInterface
	mediaRepo repository.MediaRepositoryInterface
}

func NewDraftReader(postRepo repository.PostRepositoryInterface, mediaRepo repository.MediaRepositoryInterface) *DraftReader {
	return &DraftReader{postRepo: postRepo, mediaRepo: mediaRepo}
}

// GetDraft returns gorm.ErrRecordNotFound when the post does not exist. A
// featured image whose media row is gone is left out.
func (d *DraftReader) GetDraft(_ context.Context, postID uint) (*Draft, error) {
	post, err := d.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	attached, err := d.mediaRepo.ListByPost(post.ID)
	if err != nil {
		return nil, err
	}
	draft := &Draft{Post: post, Media: attached}
	if post.FeaturedImageID == nil {
		return draft, nil
	}

	featured, err := d.mediaRepo.GetByID(*post.FeaturedImageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("media: featured image %d of post %d is missing", *post.FeaturedImageID, post.ID)
		return draft, nil
	} else if err != nil {
		return nil, err
	}
	draft.FeaturedImage = featured
	return draft, nil
}

// DownloadStore keeps downloaded files under the media storage root.
// *media.Processor satisfies it.
type DownloadStore interface {
	StoreDownload(data []byte, ext string) (string, error)
	DeleteStored(relativePath string) error
}

// MediaLibrary stores downloaded images and records them as post media.
type MediaLibrary struct {
	mediaRepo repository.MediaRepositoryInterface
	store     DownloadStore
}

func NewMediaLibrary(mediaRepo repository.MediaRepositoryInterface, store DownloadStore) *MediaLibrary {
	return &MediaLibrary{mediaRepo: mediaRepo, store: store}
}

func (l *MediaLibrary) CreateMedia(_ context.Context, post *models.Post, img *remote.Image, sourceURL string) (*models.Media, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("no image data for %s", sourceURL)
	}

	relPath, err := l.store.StoreDownload(img.Data, media.ExtensionForFormat(img.Format))
	if err != nil {
		return nil, fmt.Errorf("failed to store image from %s: %w", sourceURL, err)
	}

	postID := post.ID
	m := &models.Media{
		BlogID:    post.BlogID,
		PostID:    &postID,
		Filename:  filenameFromURL(sourceURL, relPath),
		LocalPath: relPath,
		MimeType:  "image/" + img.Format,
		Width:     img.Config.Width,
		Height:    img.Config.Height,
		RemoteURL: sourceURL,
		CreatedAt: time.Now().Unix(),
	}
	if err := l.mediaRepo.Create(m); err != nil {
		if delErr := l.store.DeleteStored(relPath); delErr != nil {
			log.Printf("media: failed to remove orphaned %s: %v", relPath, delErr)
		}
		return nil, err
	}

	log.Printf("media: stored %s as media %d for post %d", sourceURL, m.ID, post.ID)
	return m, nil
}

func filenameFromURL(rawURL, fallback string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return path.Base(fallback)
}

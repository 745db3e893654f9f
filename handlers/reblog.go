package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/realtime"
	"github.com/camden-git/pressdesk/reblog"
	"github.com/camden-git/pressdesk/remote"
	"github.com/camden-git/pressdesk/services"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// PostFetcher loads the post being reblogged. *remote.Client satisfies it.
type PostFetcher interface {
	FetchPost(ctx context.Context, siteID, postID int64) (*remote.Post, error)
}

type BlogLookup interface {
	GetByID(id uint) (*models.Blog, error)
}

// DraftLookup loads a stored draft with its media. *services.DraftReader
// satisfies it.
type DraftLookup interface {
	GetDraft(ctx context.Context, postID uint) (*services.Draft, error)
}

type ReblogHandler struct {
	Source PostFetcher
	Lookup BlogLookup
	Blogs  reblog.BlogService
	Posts  reblog.PostService
	Media  reblog.MediaService
	Images reblog.ImageDownloader
	Drafts DraftLookup
	Events Broadcaster

	once      sync.Once
	presenter *reblog.Presenter
}

// responseNavigator records the screen the presenter chose so it can be
// returned to the client.
type responseNavigator struct {
	actions []reblog.EmptyStateAction
	editor  *models.Post
	blogs   []models.Blog
}

func (n *responseNavigator) ShowEmptyState(action reblog.EmptyStateAction) {
	n.actions = append(n.actions, action)
}

func (n *responseNavigator) ShowEditor(post *models.Post) {
	n.editor = post
}

func (n *responseNavigator) ShowBlogPicker(blogs []models.Blog, _ func(models.Blog)) {
	// the choice arrives as a separate request, see SelectBlog
	n.blogs = blogs
}

type reblogRequest struct {
	AccountID int64 `json:"account_id"`
	BlogID    uint  `json:"blog_id"`
	SiteID    int64 `json:"site_id"`
	PostID    int64 `json:"post_id"`
}

type reblogResponse struct {
	Route   string                    `json:"route"`
	Actions []reblog.EmptyStateAction `json:"actions,omitempty"`
	Blogs   []models.Blog             `json:"blogs,omitempty"`
	Draft   *models.Post              `json:"draft,omitempty"`
}

func (rh *ReblogHandler) shared() *reblog.Presenter {
	rh.once.Do(func() {
		rh.presenter = reblog.NewPresenter(rh.Blogs, rh.Posts, rh.Media, rh.Images, nil)
	})
	return rh.presenter
}

// presenterFor binds the handler's presenter to nav for one request.
func (rh *ReblogHandler) presenterFor(nav reblog.Navigator) *reblog.Presenter {
	return rh.shared().WithNavigator(nav)
}

// Wait blocks until featured image attachments started by earlier requests
// have finished.
func (rh *ReblogHandler) Wait() {
	rh.shared().Wait()
}

func (rh *ReblogHandler) draftReady(post *models.Post, err error) {
	if err != nil {
		log.Printf("reblog: draft failed: %v", err)
		return
	}
	if rh.Events == nil {
		return
	}
	extra := map[string]any{"blog_id": post.BlogID}
	if post.FeaturedImageID != nil {
		extra["featured_image_id"] = *post.FeaturedImageID
	}
	rh.Events.Broadcast(realtime.Event{
		Type:    realtime.EventReblogDraft,
		Subject: strconv.FormatUint(uint64(post.ID), 10),
		Status:  post.Status,
		Extra:   extra,
	})
}

func decodeReblogRequest(w http.ResponseWriter, r *http.Request) (reblogRequest, bool) {
	var req reblogRequest
	if !decodeJSONBody(w, r, &req) {
		return req, false
	}
	if req.AccountID <= 0 || req.SiteID <= 0 || req.PostID <= 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "account_id, site_id and post_id are required")
		return req, false
	}
	return req, true
}

func (rh *ReblogHandler) fetchSource(w http.ResponseWriter, r *http.Request, req reblogRequest) (*remote.Post, bool) {
	source, err := rh.Source.FetchPost(r.Context(), req.SiteID, req.PostID)
	if err != nil {
		log.Printf("Error fetching post %d of site %d: %v", req.PostID, req.SiteID, err)
		if status, _ := upstreamStatus(err); status == http.StatusNotFound {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Source post not found")
		} else {
			WriteAPIError(w, http.StatusBadGateway, CodeUpstream, "Failed to fetch source post")
		}
		return nil, false
	}
	return source, true
}

// StartReblog decides where a reblog goes for the account: an empty state,
// straight into a draft, or a list of blogs to pick from.
func (rh *ReblogHandler) StartReblog(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReblogRequest(w, r)
	if !ok {
		return
	}
	source, ok := rh.fetchSource(w, r, req)
	if !ok {
		return
	}

	nav := &responseNavigator{}
	route, err := rh.presenterFor(nav).Present(r.Context(), req.AccountID, *source, rh.draftReady)
	if err != nil {
		log.Printf("Error presenting reblog for account %d: %v", req.AccountID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to start reblog")
		return
	}

	writeJSON(w, http.StatusOK, reblogResponse{
		Route:   route.String(),
		Actions: nav.actions,
		Blogs:   nav.blogs,
		Draft:   nav.editor,
	})
}

// SelectBlog finishes a picker route with the chosen blog.
func (rh *ReblogHandler) SelectBlog(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReblogRequest(w, r)
	if !ok {
		return
	}
	if req.BlogID == 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Missing required field: blog_id")
		return
	}

	blog, err := rh.Lookup.GetByID(req.BlogID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Error getting blog %d: %v", req.BlogID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve blog")
		return
	}
	if err != nil || blog.AccountID != req.AccountID || !blog.Visible {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Blog not found")
		return
	}

	source, ok := rh.fetchSource(w, r, req)
	if !ok {
		return
	}

	nav := &responseNavigator{}
	draft, err := rh.presenterFor(nav).PrepareDraft(r.Context(), *blog, *source, rh.draftReady)
	if err != nil {
		log.Printf("Error preparing reblog draft on blog %d: %v", blog.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to create draft")
		return
	}

	writeJSON(w, http.StatusCreated, reblogResponse{
		Route: reblog.RouteEditor.String(),
		Draft: draft,
	})
}

// GetDraft returns a draft with its attached media, so clients can pick up
// the featured image once the draft_ready event arrives.
func (rh *ReblogHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseUint(chi.URLParam(r, "post_id"), 10, 64)
	if err != nil || postID == 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid post ID")
		return
	}

	draft, err := rh.Drafts.GetDraft(r.Context(), uint(postID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Draft not found")
		return
	} else if err != nil {
		log.Printf("Error getting draft %d: %v", postID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/camden-git/pressdesk/config"
	"github.com/camden-git/pressdesk/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitesYAML = `sites:
  - account_id: 1
    site_id: 100
    name: Travel Notes
    url: https://travel.example
    block_editor: true
  - account_id: 1
    site_id: 101
    name: Archive
    url: https://archive.example
    visible: false
  - account_id: 1
    site_id: 102
    name: Photo Log
    url: https://photos.example
`

func TestBlogDirectory_ImportSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sitesYAML), 0o644))
	sites, err := config.LoadSites(path)
	require.NoError(t, err)

	repo := repository.NewBlogRepository(newTestDB(t))
	dir := NewBlogDirectory(repo)

	n, err := dir.ImportSites(sites)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// a second import updates in place
	sites.Sites[0].Name = "Travel Journal"
	_, err = dir.ImportSites(sites)
	require.NoError(t, err)

	blogs, err := dir.VisibleBlogs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	assert.Equal(t, "Photo Log", blogs[0].Name)
	assert.Equal(t, "Travel Journal", blogs[1].Name)
	assert.True(t, blogs[1].BlockEditorEnabled)
	assert.False(t, blogs[0].BlockEditorEnabled)

	hidden, err := repo.GetBySiteID(101)
	require.NoError(t, err)
	assert.False(t, hidden.Visible)
}

func TestBlogDirectory_ImportNil(t *testing.T) {
	n, err := NewBlogDirectory(repository.NewBlogRepository(newTestDB(t))).ImportSites(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

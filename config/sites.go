package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sites file validation errors.
var (
	ErrSiteMissingAccount = errors.New("account_id is required")
	ErrSiteMissingID      = errors.New("site_id is required")
	ErrSiteMissingName    = errors.New("name is required")
	ErrDuplicateSite      = errors.New("site_id is listed more than once")
)

// SitesFile lists the blogs each account can post to.
type SitesFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

// SiteConfig is one blog entry. Visible defaults to true.
type SiteConfig struct {
	AccountID   int64  `yaml:"account_id"`
	SiteID      int64  `yaml:"site_id"`
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Visible     *bool  `yaml:"visible"`
	BlockEditor bool   `yaml:"block_editor"`
}

// IsVisible reports whether the site is offered as a reblog destination.
func (s SiteConfig) IsVisible() bool {
	return s.Visible == nil || *s.Visible
}

// LoadSites reads and validates a sites YAML file.
func LoadSites(path string) (*SitesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var sites SitesFile
	if err := yaml.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := sites.Validate(); err != nil {
		return nil, fmt.Errorf("sites file validation failed: %w", err)
	}

	return &sites, nil
}

func (f *SitesFile) Validate() error {
	seen := make(map[int64]bool, len(f.Sites))
	for i, s := range f.Sites {
		if s.AccountID <= 0 {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingAccount, i)
		}
		if s.SiteID <= 0 {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingID, i)
		}
		if s.Name == "" {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingName, i)
		}
		if seen[s.SiteID] {
			return fmt.Errorf("%w: sites[%d] (%d)", ErrDuplicateSite, i, s.SiteID)
		}
		seen[s.SiteID] = true
	}
	return nil
}

package remote

// Person is a site member as returned by the users, followers and viewers
// endpoints. Followers and viewers leave Roles empty.
type Person struct {
	ID           int64    `json:"ID"`
	Login        string   `json:"login"`
	Name         string   `json:"name"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	AvatarURL    string   `json:"avatar_URL"`
	Roles        []string `json:"roles"`
	LinkedUserID int64    `json:"linked_user_ID"`
	IsSuperAdmin bool     `json:"is_super_admin"`
}

// Post is the subset of a post needed to reblog it.
type Post struct {
	ID            int64  `json:"ID"`
	SiteID        int64  `json:"site_ID"`
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Permalink     string `json:"URL"`
	FeaturedImage string `json:"featured_image"`
}

type usersResponse struct {
	Found int      `json:"found"`
	Users []Person `json:"users"`
}

type followersResponse struct {
	Found       int      `json:"found"`
	Subscribers []Person `json:"subscribers"`
}

type viewersResponse struct {
	Found   int      `json:"found"`
	Viewers []Person `json:"viewers"`
}

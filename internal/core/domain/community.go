package domain

// Community is a listing entity shown next to guilds on the index page.
type Community struct {
	ID          int      `json:"id"`
	URLName     string   `json:"urlName"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	MemberCount int      `json:"membersCount,omitempty"`
	IsMember    bool     `json:"isMember,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// DisplayName is the name used for search and ordering.
func (c Community) DisplayName() string {
	return c.Name
}

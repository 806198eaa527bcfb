package domain

// Logic is the boolean combinator rendered between requirement cards.
type Logic string

const (
	LogicAnd  Logic = "AND"
	LogicOr   Logic = "OR"
	LogicNor  Logic = "NOR"
	LogicNand Logic = "NAND"
)

// GuildPlatform is a chat platform a guild grants access to.
type GuildPlatform struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name"`
	PlatformID string `json:"platformId,omitempty"`
}

// Guild is a read-only snapshot of a guild as served by the API.
type Guild struct {
	ID             int             `json:"id"`
	URLName        string          `json:"urlName"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	GuildPlatforms []GuildPlatform `json:"guildPlatforms"`
	Requirements   []Requirement   `json:"requirements"`
	Logic          Logic           `json:"logic,omitempty"`
	Members        []string        `json:"members,omitempty"`
	Owner          string          `json:"owner,omitempty"`
}

// DisplayName is the name used for search and ordering.
func (g Guild) DisplayName() string {
	return g.Name
}

// MemberCount counts members with a non-empty address.
func (g Guild) MemberCount() int {
	n := 0
	for _, m := range g.Members {
		if m != "" {
			n++
		}
	}
	return n
}

// HasPlatform reports whether the guild is connected to at least one platform.
func (g Guild) HasPlatform() bool {
	return len(g.GuildPlatforms) > 0
}

// GuildSlug is the minimal record returned by the guild enumeration endpoint.
type GuildSlug struct {
	URLName string `json:"urlName"`
}

package gateway

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/vietddude/guildhall/internal/core/domain"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// Fixtures is the local data bundled with the binary.
type Fixtures struct {
	Guilds      []domain.Guild
	Communities []domain.Community
}

// LoadFixtures decodes the bundled fixture files.
func LoadFixtures() (Fixtures, error) {
	var f Fixtures
	if err := decodeFixture("fixtures/guilds.json", &f.Guilds); err != nil {
		return Fixtures{}, err
	}
	if err := decodeFixture("fixtures/communities.json", &f.Communities); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// Slugs returns the fixture guild slugs in order.
func (f Fixtures) Slugs() []string {
	slugs := make([]string, 0, len(f.Guilds))
	for _, g := range f.Guilds {
		if g.URLName != "" {
			slugs = append(slugs, g.URLName)
		}
	}
	return slugs
}

func decodeFixture(name string, out any) error {
	data, err := fixtureFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse fixture %s: %w", name, err)
	}
	return nil
}

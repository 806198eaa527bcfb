package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/gateway"
	"github.com/vietddude/guildhall/internal/infra/storage"
	"github.com/vietddude/guildhall/internal/infra/storage/memory"
	"github.com/vietddude/guildhall/internal/render"
	"github.com/vietddude/guildhall/internal/requirement"
)

const ethaneJSON = `{
	"id": 7,
	"urlName": "ethane",
	"name": "Ethane",
	"logic": "OR",
	"guildPlatforms": [{"id": 1, "name": "DISCORD"}],
	"members": ["0xa", "", "0xb"],
	"requirements": [
		{"type": "ERC721", "address": "0x57F1887a8BF19b14fC0dF6Fd9B2acc9Af147eA85", "symbol": "-", "key": "length", "value": "[3,5]"},
		{"type": "POAP", "value": "devcon"},
		{"type": "MIRROR", "value": "x"},
		{"type": "ERC721", "address": "0xff9c1b15b16263c61d017ee9f65c50e4ae0113d7", "name": "Loot"}
	]
}`

const guildsJSON = `[
	{"id": 1, "urlName": "alpha", "name": "Alpha", "members": ["0x1"]},
	{"id": 2, "urlName": "bravo", "name": "Bravo", "members": ["0x1", "0x2", "0x3"]},
	{"id": 3, "urlName": "charlie", "name": "Charlie Guild", "members": []}
]`

type upstream struct {
	down     atomic.Bool
	listDown atomic.Bool
	calls    atomic.Int64

	// When set, guild requests signal hold and wait for release.
	hold    chan struct{}
	release chan struct{}
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)
	if u.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/guild/urlName/ethane":
		if u.release != nil {
			u.hold <- struct{}{}
			<-u.release
		}
		_, _ = w.Write([]byte(ethaneJSON))
	case "/guild":
		if u.listDown.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(guildsJSON))
	case "/community":
		_, _ = w.Write([]byte(`[{"id":1,"urlName":"a","name":"Agora","membersCount":5},{"id":2,"urlName":"h","name":"Hidden","hidden":true}]`))
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	api       *upstream
	site      *Site
	snapshots *memory.SnapshotRepo
	handler   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := &upstream{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	fixtures, err := gateway.LoadFixtures()
	require.NoError(t, err)
	client := gateway.NewClient(gateway.ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	gw := gateway.New(client, fixtures, 10*time.Second)

	store, err := render.NewMemoryStore(64)
	require.NoError(t, err)
	cache := render.NewCache(store, render.CacheConfig{Revalidate: 10 * time.Second, Dedupe: true})
	t.Cleanup(cache.Wait)

	snapshots := memory.NewSnapshotRepo()
	s := New(gw, snapshots, cache)
	return &harness{api: api, site: s, snapshots: snapshots, handler: s.Handler(nil)}
}

func (h *harness) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBuildGuildPage(t *testing.T) {
	var g domain.Guild
	require.NoError(t, json.Unmarshal([]byte(ethaneJSON), &g))

	page := BuildGuildPage(g)

	assert.True(t, page.ShowJoin)
	assert.Equal(t, 2, page.MemberCount)
	assert.Equal(t, []string{"0xa", "0xb"}, page.Members)
	assert.Equal(t, []domain.RequirementType{"MIRROR"}, page.Unsupported)

	require.Len(t, page.Requirements, 3)
	assert.Equal(t, "Own a(n) ENS with 3-5 length", page.Requirements[0].Directive.Text())
	assert.Equal(t, "Own the devcon POAP", page.Requirements[1].Directive.Text())
	assert.Equal(t, requirement.KindLink, page.Requirements[2].Directive.Kind)

	assert.Equal(t, domain.Logic("OR"), page.Requirements[0].Separator)
	assert.Equal(t, domain.Logic("OR"), page.Requirements[1].Separator)
	assert.Empty(t, page.Requirements[2].Separator)
}

func TestBuildGuildPage_NoRequirements(t *testing.T) {
	page := BuildGuildPage(domain.Guild{Name: "Empty", Logic: domain.LogicAnd})

	assert.NotNil(t, page.Requirements)
	assert.Empty(t, page.Requirements)
	assert.False(t, page.ShowJoin)
}

func TestGuildPage_MissThenHit(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/guild/ethane")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "s-maxage=10, stale-while-revalidate", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var page GuildPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, "Ethane", page.Name)
	assert.Len(t, page.Requirements, 3)

	rec = h.get(t, "/guild/ethane")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, h.api.calls.Load())
}

func TestGuildPage_SavesSnapshot(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.get(t, "/guild/ethane").Code)

	g, _, err := h.snapshots.GetGuild(context.Background(), "ethane")
	require.NoError(t, err)
	assert.Equal(t, 7, g.ID)
}

func TestStoredGuildPage(t *testing.T) {
	h := newHarness(t)

	_, _, err := StoredGuildPage(context.Background(), h.snapshots, "ethane")
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	require.Equal(t, http.StatusOK, h.get(t, "/guild/ethane").Code)
	h.api.down.Store(true)

	page, fetchedAt, err := StoredGuildPage(context.Background(), h.snapshots, "ethane")
	require.NoError(t, err)
	assert.Equal(t, "Ethane", page.Name)
	assert.Equal(t, 2, page.MemberCount)
	assert.False(t, fetchedAt.IsZero())
}

func TestGuildPage_NotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/guild/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// An unavailable API is indistinguishable from a missing guild.
	h.api.down.Store(true)
	rec = h.get(t, "/guild/ethane")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuildPage_CanceledRequestDoesNotFailOthers(t *testing.T) {
	h := newHarness(t)
	h.api.hold = make(chan struct{}, 1)
	h.api.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	first := httptest.NewRecorder()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		h.handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/guild/ethane", nil).WithContext(ctx))
	}()
	<-h.api.hold

	second := httptest.NewRecorder()
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		h.handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/guild/ethane", nil))
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-firstDone
	assert.NotEqual(t, http.StatusNotFound, first.Code)

	close(h.api.release)
	<-secondDone
	require.Equal(t, http.StatusOK, second.Code)

	var page GuildPage
	require.NoError(t, json.NewDecoder(second.Body).Decode(&page))
	assert.Equal(t, "Ethane", page.Name)

	rec := h.get(t, "/guild/ethane")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestGuilds_SearchAndOrder(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/guilds")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[GuildSummary]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "members", resp.Order)
	assert.Equal(t, "api", resp.Source)
	assert.Equal(t, 10, resp.Revalidate)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "bravo", resp.Items[0].URLName)

	rec = h.get(t, "/?search=GUILD&order=name")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	resp = ListResponse[GuildSummary]{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "name", resp.Order)
	assert.Equal(t, "GUILD", resp.Search)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Charlie Guild", resp.Items[0].Name)
}

func TestGuilds_UnknownOrderKeepsDefault(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/guilds?order=popularity")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[GuildSummary]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "members", resp.Order)
}

func TestGuilds_FallsBackToSnapshotsThenFixtures(t *testing.T) {
	h := newHarness(t)
	h.api.down.Store(true)

	rec := h.get(t, "/guilds")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListResponse[GuildSummary]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "fixture", resp.Source)
	assert.NotEmpty(t, resp.Items)

	// Fresh cache over a populated snapshot store.
	h2 := newHarness(t)
	require.NoError(t, h2.snapshots.SaveGuilds(context.Background(),
		[]domain.Guild{{ID: 9, URLName: "saved", Name: "Saved"}}, time.Now()))
	h2.api.down.Store(true)

	rec = h2.get(t, "/guilds")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = ListResponse[GuildSummary]{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "snapshot", resp.Source)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "saved", resp.Items[0].URLName)
}

func TestCommunities_HidesHidden(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/communities")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[domain.Community]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Agora", resp.Items[0].Name)

	list, err := h.snapshots.ListCommunities(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPaths(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/paths")
	require.Equal(t, http.StatusOK, rec.Code)

	var page PathsPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, page.Paths)
	assert.Equal(t, "api", page.Source)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/paths", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestPrewarm(t *testing.T) {
	h := newHarness(t)
	// Slugs come from the fixtures; only ethane exists upstream.
	h.api.listDown.Store(true)

	require.NoError(t, h.site.Prewarm(context.Background(), 2))

	rec := h.get(t, "/guild/ethane")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = h.get(t, "/guild/loot-lords")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

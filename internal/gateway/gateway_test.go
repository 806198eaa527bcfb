package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fixtures, err := LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	return New(client, fixtures, 10*time.Second), client
}

func TestFetchGuildBySlug(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/guild/urlName/ethane" {
			t.Errorf("expected path /guild/urlName/ethane, got %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      7,
			"urlName": "ethane",
			"name":    "Ethane",
			"logic":   "AND",
			"requirements": []map[string]any{
				{"type": "POAP", "value": "devcon"},
			},
		})
	})

	res, err := gw.FetchGuildBySlug(context.Background(), "ethane")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value.Name != "Ethane" || res.Value.ID != 7 {
		t.Errorf("unexpected guild: %+v", res.Value)
	}
	if res.Revalidate != 10*time.Second {
		t.Errorf("expected revalidate 10s, got %v", res.Revalidate)
	}
	if res.Source != SourceAPI {
		t.Errorf("expected source api, got %s", res.Source)
	}
	if len(res.Value.Requirements) != 1 || res.Value.Requirements[0].Value.String() != "devcon" {
		t.Errorf("unexpected requirements: %+v", res.Value.Requirements)
	}
}

func TestFetchGuildBySlug_NonOKIsNotFound(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := gw.FetchGuildBySlug(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("status %d: expected ErrNotFound, got %v", code, err)
		}
	}
}

func TestFetchGuildBySlug_NetworkErrorIsNotFound(t *testing.T) {
	fixtures, _ := LoadFixtures()
	// Nothing listens on this port.
	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	gw := New(client, fixtures, 10*time.Second)

	_, err := gw.FetchGuildBySlug(context.Background(), "ethane")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchGuildBySlug_NullBodyIsNotFound(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	_, err := gw.FetchGuildBySlug(context.Background(), "ethane")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchGuildBySlug_CanceledContextIsNotNotFound(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"urlName":"ethane"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.FetchGuildBySlug(ctx, "ethane")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a canceled fetch must not report ErrNotFound")
	}
}

func TestFetchGuildBySlug_EscapesSlug(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/guild/urlName/a%2Fb" {
			t.Errorf("expected escaped slug, got %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, _ = gw.FetchGuildBySlug(context.Background(), "a/b")
}

func TestFetchAllGuildSlugs(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"urlName":"a"},{"urlName":""},{"urlName":"b","name":"B"}]`))
	})

	res := gw.FetchAllGuildSlugs(context.Background())
	if res.Source != SourceAPI {
		t.Errorf("expected api source, got %s", res.Source)
	}
	if len(res.Value) != 2 || res.Value[0] != "a" || res.Value[1] != "b" {
		t.Errorf("unexpected slugs: %v", res.Value)
	}
}

func TestFetchAllGuildSlugs_FallsBackToFixtures(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	res := gw.FetchAllGuildSlugs(context.Background())
	if res.Source != SourceFixture {
		t.Errorf("expected fixture source, got %s", res.Source)
	}
	want := gw.Fixtures().Slugs()
	if len(want) == 0 {
		t.Fatal("fixtures should not be empty")
	}
	if len(res.Value) != len(want) {
		t.Fatalf("expected %d slugs, got %d", len(want), len(res.Value))
	}
	for i := range want {
		if res.Value[i] != want[i] {
			t.Errorf("slug %d: expected %s, got %s", i, want[i], res.Value[i])
		}
	}
}

func TestFetchAllGuildSlugs_NetworkFailureFallsBack(t *testing.T) {
	fixtures, _ := LoadFixtures()
	gw := New(NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}), fixtures, time.Second)

	res := gw.FetchAllGuildSlugs(context.Background())
	if len(res.Value) == 0 {
		t.Error("expected fixture slugs on network failure")
	}
}

func TestFetchAllCommunities_Unavailable(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/community" {
			t.Errorf("expected /community, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := gw.FetchAllCommunities(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_HealthTracksFailures(t *testing.T) {
	gw, client := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		_, _ = gw.FetchAllGuilds(context.Background())
	}

	health := client.GetHealth()
	if health.Available {
		t.Error("expected client to be marked unavailable")
	}
	if health.ErrorRate != 1 {
		t.Errorf("expected error rate 1, got %v", health.ErrorRate)
	}
}

func TestClient_MissingBaseURL(t *testing.T) {
	client := NewClient(ClientConfig{})
	var out []any
	if err := client.GetJSON(context.Background(), "/guild", &out); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}
	if slugs := f.Slugs(); len(slugs) == 0 || slugs[0] != "ethane" {
		t.Errorf("expected ethane as first fixture slug, got %v", slugs)
	}
	if len(f.Communities) == 0 {
		t.Error("expected community fixtures")
	}
}

package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/statetree"
	"github.com/aretw0/statetree/pkg/catalog/cloud"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := statetree.New()
	require.NoError(t, err)
	return NewHandler(eng, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type treeBody struct {
	ID   string `json:"id"`
	Tree struct {
		Revision uint64                 `json:"revision"`
		Slots    map[string]domain.Slot `json:"slots"`
		Flags    map[string]any         `json:"flags"`
	} `json:"tree"`
	Diff *domain.TreeDiff `json:"diff"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestGetHealth(t *testing.T) {
	rr := do(t, newTestHandler(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := do(t, newTestHandler(t, WithVersion("1.2.3\n")), http.MethodGet, "/info", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "statetree-http", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
}

func TestCORSPreflight(t *testing.T) {
	rr := do(t, newTestHandler(t), http.MethodOptions, "/areas", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestListAreas(t *testing.T) {
	rr := do(t, newTestHandler(t), http.MethodGet, "/areas", "")
	require.Equal(t, http.StatusOK, rr.Code)

	areas := decode[[]areaInfo](t, rr)
	require.Len(t, areas, 2)
	assert.Equal(t, "cloud", areas[0].Name)
	assert.Equal(t, "universe", areas[1].Name)
	assert.Contains(t, areas[0].Slots, cloud.AccessKeys)
	assert.Contains(t, areas[0].Flags, cloud.FetchMetadata)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})))

	rr := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "# metrics", rr.Body.String())

	rr = do(t, newTestHandler(t), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestHandler(t)

	t.Run("create with id", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions", `{"id":"s1"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Equal(t, "s1", resp.ID)
		assert.Equal(t, domain.StatusInit, resp.Tree.Slots[cloud.Regions].Status)
	})

	t.Run("create again returns existing", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions", `{"id":"s1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("create without body generates id", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions", "")
		require.Equal(t, http.StatusCreated, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Len(t, resp.ID, 36)
	})

	t.Run("list", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/areas/cloud/sessions", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[map[string][]string](t, rr)
		assert.Len(t, resp["sessions"], 2)
		assert.Contains(t, resp["sessions"], "s1")

		rr = do(t, h, http.MethodGet, "/areas/universe/sessions", "")
		resp = decode[map[string][]string](t, rr)
		assert.Empty(t, resp["sessions"])
	})

	t.Run("dispatch single action", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", `{"kind":"GET_REGION_LIST"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Equal(t, domain.StatusLoading, resp.Tree.Slots[cloud.Regions].Status)
		require.NotNil(t, resp.Diff)
		assert.Contains(t, resp.Diff.Slots, cloud.Regions)
	})

	t.Run("dispatch response payload", func(t *testing.T) {
		body := `{"actions":[{"kind":"GET_REGION_LIST_RESPONSE","payload":{"status":200,"data":[{"name":"us-west"},{"name":"eu-central"}]}}]}`
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", body)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[treeBody](t, rr)

		slot := resp.Tree.Slots[cloud.Regions]
		assert.Equal(t, domain.StatusSuccess, slot.Status)
		regions, ok := slot.Data.([]any)
		require.True(t, ok)
		require.Len(t, regions, 2)
		assert.Equal(t, "eu-central", regions[0].(map[string]any)["name"])
	})

	t.Run("unknown kind has no diff", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", `{"kind":"NOPE"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Nil(t, resp.Diff)
	})

	t.Run("read slot", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/areas/cloud/sessions/s1/slots/regions", "")
		require.Equal(t, http.StatusOK, rr.Code)
		slot := decode[domain.Slot](t, rr)
		assert.Equal(t, domain.StatusSuccess, slot.Status)

		rr = do(t, h, http.MethodGet, "/areas/cloud/sessions/s1/slots/nope", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("reset", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/reset", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Equal(t, domain.StatusInit, resp.Tree.Slots[cloud.Regions].Status)
	})

	t.Run("get and delete", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/areas/cloud/sessions/s1", "")
		require.Equal(t, http.StatusOK, rr.Code)

		rr = do(t, h, http.MethodDelete, "/areas/cloud/sessions/s1", "")
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, h, http.MethodGet, "/areas/cloud/sessions/s1", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestErrors(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/areas/cloud/sessions", `{"id":"s1"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown area", http.MethodGet, "/areas/nope/sessions", "", http.StatusNotFound},
		{"unknown session", http.MethodGet, "/areas/cloud/sessions/missing", "", http.StatusNotFound},
		{"dispatch to unknown session", http.MethodPost, "/areas/cloud/sessions/missing/actions", `{"kind":"GET_REGION_LIST"}`, http.StatusNotFound},
		{"reset unknown session", http.MethodPost, "/areas/cloud/sessions/missing/reset", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/areas/cloud/sessions/s1/actions", `{`, http.StatusBadRequest},
		{"empty dispatch", http.MethodPost, "/areas/cloud/sessions/s1/actions", `{}`, http.StatusBadRequest},
		{"malformed create", http.MethodPost, "/areas/cloud/sessions", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code)
			resp := decode[map[string]string](t, rr)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestSubscribeEvents(t *testing.T) {
	eng, err := statetree.New()
	require.NoError(t, err)
	h := NewHandler(eng)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, _, err = eng.Start(context.Background(), cloud.Name, "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/areas/cloud/sessions/s1/events?watch=regions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	_, _ = reader.ReadString('\n') // data: connected
	_, _ = reader.ReadString('\n') // blank

	// Filtered out: touches only the providers slot.
	post := func(body string) {
		r, err := http.Post(srv.URL+"/areas/cloud/sessions/s1/actions", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		r.Body.Close()
		require.Equal(t, http.StatusOK, r.StatusCode)
	}
	post(`{"kind":"GET_PROVIDER_LIST"}`)
	post(`{"kind":"GET_REGION_LIST"}`)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), line)

	var diff domain.TreeDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &diff))
	assert.Contains(t, diff.Slots, cloud.Regions)
	assert.NotContains(t, diff.Slots, cloud.Providers)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("cloud:s1")
	assert.Equal(t, 1, sm.Subscribers("cloud:s1"))

	sm.Broadcast("cloud:s1", "hello")
	sm.Broadcast("cloud:other", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("cloud:s1", "flood")
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("cloud:s1"))
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/areas/{area}/sessions/{id}/actions"))
}

func TestSpecEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "operationId: dispatch")

	rr = do(t, h, http.MethodGet, "/swagger", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/openapi.yaml")
}

func TestRequestValidation(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/areas/cloud/sessions", `{"id":"s1"}`).Code)

	t.Run("batch action without kind", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", `{"actions":[{"payload":1}]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.NotEmpty(t, decode[map[string]string](t, rr)["error"])
	})

	t.Run("missing body", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/areas/cloud/sessions/s1/actions", strings.NewReader(`{"kind":"GET_REGION_LIST"}`))
		req.Header.Set("Content-Type", "text/plain")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("valid batch reaches the handler", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions/s1/actions", `{"actions":[{"kind":"GET_REGION_LIST","payload":null}]}`)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[treeBody](t, rr)
		assert.Equal(t, domain.StatusLoading, resp.Tree.Slots[cloud.Regions].Status)
	})

	t.Run("create without body", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/areas/cloud/sessions", "")
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestWatchParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"absent", "", nil},
		{"single", "?watch=regions", []string{"regions"}},
		{"list with spaces", "?watch=regions,%20fetchMetadata,", []string{"regions", "fetchMetadata"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/areas/cloud/sessions/s1/events"+tt.query, nil)
			got, err := watchParam(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/glossary-engine/internal/archive"
	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, keyword string) (*types.SearchResultSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.SearchResultSet{
		Keyword: keyword,
		Organic: []types.OrganicResult{
			{Position: 1, Title: "Roth IRA Basics", Snippet: "A Roth IRA is funded with after-tax dollars."},
		},
		RelatedQuestions: []types.RelatedQuestion{{Question: "Who can open a Roth IRA?"}},
	}, nil
}

type fixture struct {
	srv     *Server
	rec     *completion.Recorder
	fetcher *stubFetcher
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()
	rec := &completion.Recorder{Replies: []string{"# Roth IRA\n\nA retirement account."}}
	f := &stubFetcher{}
	p := session.NewPipeline(f, nil, rec, types.GenerationConfig{}, nil)

	var arch *archive.Store
	if withArchive {
		var err error
		arch, err = archive.NewStore(types.ArchiveConfig{Dir: filepath.Join(t.TempDir(), "archive")})
		require.NoError(t, err)
		t.Cleanup(func() { arch.Close() })
	}
	return &fixture{srv: NewServer(p, arch, false, types.ServerConfig{}, nil), rec: rec, fetcher: f}
}

func (fx *fixture) do(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case strings.HasPrefix(target, "/api/"):
		req.Header.Set("Content-Type", "application/json")
	case method == http.MethodPost:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	fx.srv.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	fx := newFixture(t, false)
	w := fx.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestPageCreatesSession(t *testing.T) {
	fx := newFixture(t, false)
	w := fx.do(t, http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	c := sessionCookie(t, w)
	assert.NotEmpty(t, c.Value)
	body := w.Body.String()
	for _, button := range []string{"Fetch SERP Data", "Generate Outline", "Generate Content", "Add Section", "Show Entire Article", "Generate Article"} {
		assert.Contains(t, body, button)
	}
	assert.NotContains(t, body, "Top Queries", "Search Console disabled")
	assert.NotContains(t, body, "Save to Archive", "archive disabled")
	assert.Contains(t, body, "Introduction")
}

func TestFormFlow(t *testing.T) {
	fx := newFixture(t, false)
	c := sessionCookie(t, fx.do(t, http.MethodGet, "/", "", nil))

	form := url.Values{"keyword": {"roth ira"}}.Encode()
	w := fx.do(t, http.MethodPost, "/actions/fetch-serp", form, c)
	require.Equal(t, http.StatusSeeOther, w.Code)

	page := fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.Contains(t, page, "Roth IRA Basics")
	assert.Contains(t, page, "Who can open a Roth IRA?")
	assert.Contains(t, page, "Fetched 1 results")

	form = url.Values{"section": {"introduction"}, "instructions": {"Give an overview."}}.Encode()
	fx.do(t, http.MethodPost, "/actions/generate-content", form, c)
	assert.Contains(t, fx.rec.Last().User, "Give an overview.")

	fx.do(t, http.MethodPost, "/actions/show-article", "", c)
	page = fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.Contains(t, page, "<h1>Roth IRA</h1>")
	assert.Contains(t, page, "Showing entire article.")

	page = fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.NotContains(t, page, "Showing entire article.", "flash is shown once")
}

func TestGenerateArticleShowsNewArticle(t *testing.T) {
	fx := newFixture(t, false)
	c := sessionCookie(t, fx.do(t, http.MethodGet, "/", "", nil))

	fx.rec.Replies = []string{"## Intro\n\nold section"}
	form := url.Values{"keyword": {"roth ira"}, "section": {"introduction"}, "instructions": {"write"}}.Encode()
	fx.do(t, http.MethodPost, "/actions/fetch-serp", form, c)
	fx.do(t, http.MethodPost, "/actions/generate-content", form, c)

	fx.rec.Replies = []string{"# New one-shot article\n\nFresh text."}
	fx.do(t, http.MethodPost, "/actions/save-outline", url.Values{"outline": {"I. Definition"}}.Encode(), c)
	fx.do(t, http.MethodPost, "/actions/generate-article", "", c)

	page := fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.Contains(t, page, "Article generated.")
	assert.Contains(t, page, "<h1>New one-shot article</h1>")
	assert.NotContains(t, page, "<h2>Intro</h2>")
}

func TestPageRendersWhileActionRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	client := completion.Func(func(ctx context.Context, _ completion.Prompt) (string, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return "I. What an annuity is", nil
	})
	p := session.NewPipeline(&stubFetcher{}, nil, client, types.GenerationConfig{}, nil)
	fx := &fixture{srv: NewServer(p, nil, false, types.ServerConfig{}, nil)}
	c := sessionCookie(t, fx.do(t, http.MethodGet, "/", "", nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.do(t, http.MethodPost, "/actions/generate-outline", url.Values{"keyword": {"annuity"}}.Encode(), c)
	}()
	<-started

	page := make(chan string, 1)
	go func() { page <- fx.do(t, http.MethodGet, "/", "", c).Body.String() }()
	select {
	case body := <-page:
		assert.Contains(t, body, "An action is still running.")
		assert.NotContains(t, body, "What an annuity is")
	case <-time.After(2 * time.Second):
		t.Fatal("page view waited for the running action")
	}

	close(release)
	<-done
	body := fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.Contains(t, body, "I. What an annuity is")
	assert.NotContains(t, body, "An action is still running.")
}

func TestFormActionFailureShowsMessage(t *testing.T) {
	fx := newFixture(t, false)
	c := sessionCookie(t, fx.do(t, http.MethodGet, "/", "", nil))

	fx.do(t, http.MethodPost, "/actions/generate-outline", url.Values{"keyword": {" "}}.Encode(), c)
	page := fx.do(t, http.MethodGet, "/", "", c).Body.String()
	assert.Contains(t, page, `class="flash error"`)
	assert.Contains(t, page, "keyword is required")
}

func createSession(t *testing.T, fx *fixture, keyword string) string {
	t.Helper()
	w := fx.do(t, http.MethodPost, "/api/sessions", `{"keyword":"`+keyword+`"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var sess session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, keyword, sess.Keyword)
	return sess.ID
}

func TestAPIActions(t *testing.T) {
	fx := newFixture(t, false)
	id := createSession(t, fx, "roth ira")

	w := fx.do(t, http.MethodPost, "/api/sessions/"+id+"/actions/generate-content",
		`{"section":"introduction","instructions":"Overview please."}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result  actionResult    `json:"result"`
		Session session.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Generated Introduction.", resp.Result.Message)
	got, _ := resp.Session.Article.Get("introduction")
	assert.Equal(t, "# Roth IRA\n\nA retirement account.", got)

	w = fx.do(t, http.MethodGet, "/api/sessions/"+id+"/article", "", nil)
	assert.Equal(t, "# Roth IRA\n\nA retirement account.", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")

	w = fx.do(t, http.MethodGet, "/api/sessions/"+id+"/article?format=html", "", nil)
	assert.Contains(t, w.Body.String(), "<h1>Roth IRA</h1>")
}

func TestAPIFailureKindsAndStatus(t *testing.T) {
	fx := newFixture(t, false)
	id := createSession(t, fx, "roth ira")

	tests := []struct {
		name     string
		action   string
		body     string
		setup    func()
		wantCode int
		wantKind types.FailureKind
	}{
		{
			name:     "validation",
			action:   "add-section",
			body:     `{"section":"introduction"}`,
			wantCode: http.StatusBadRequest,
			wantKind: types.FailureValidation,
		},
		{
			name:   "connection exhausted",
			action: "fetch-serp",
			setup: func() {
				fx.fetcher.err = types.NewFailure(types.FailureConnectionExhausted, errors.New("refused"), "unreachable")
			},
			wantCode: http.StatusBadGateway,
			wantKind: types.FailureConnectionExhausted,
		},
		{
			name:     "completion",
			action:   "related-keywords",
			setup:    func() { fx.rec.Err = errors.New("model down") },
			wantCode: http.StatusBadGateway,
			wantKind: types.FailureCompletion,
		},
		{
			name:     "unknown action",
			action:   "explode",
			wantCode: http.StatusBadRequest,
			wantKind: types.FailureValidation,
		},
		{
			name:     "archive disabled",
			action:   "archive",
			wantCode: http.StatusInternalServerError,
			wantKind: types.FailureUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			before := fx.do(t, http.MethodGet, "/api/sessions/"+id, "", nil).Body.String()

			w := fx.do(t, http.MethodPost, "/api/sessions/"+id+"/actions/"+tt.action, tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.wantKind), body["kind"])
			assert.NotEmpty(t, body["error"])

			after := fx.do(t, http.MethodGet, "/api/sessions/"+id, "", nil).Body.String()
			assert.JSONEq(t, before, after, "failed action must not change the session")
		})
	}
}

func TestAPIUnknownSession(t *testing.T) {
	fx := newFixture(t, false)
	w := fx.do(t, http.MethodGet, "/api/sessions/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = fx.do(t, http.MethodDelete, "/api/sessions/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIDeleteSession(t *testing.T) {
	fx := newFixture(t, false)
	id := createSession(t, fx, "annuity")

	assert.Equal(t, http.StatusNoContent, fx.do(t, http.MethodDelete, "/api/sessions/"+id, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, fx.do(t, http.MethodGet, "/api/sessions/"+id, "", nil).Code)
}

func TestArchiveEndpoints(t *testing.T) {
	fx := newFixture(t, true)
	id := createSession(t, fx, "roth ira")

	w := fx.do(t, http.MethodPost, "/api/sessions/"+id+"/actions/archive", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "nothing generated yet")

	fx.do(t, http.MethodPost, "/api/sessions/"+id+"/actions/generate-content",
		`{"section":"introduction","instructions":"write"}`, nil)
	w = fx.do(t, http.MethodPost, "/api/sessions/"+id+"/actions/archive", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result actionResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	articleID := resp.Result.ArchiveID
	require.NotEmpty(t, articleID)

	w = fx.do(t, http.MethodGet, "/api/archive?keyword=roth+ira", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Articles []archive.Entry `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Articles, 1)
	assert.Equal(t, "Roth IRA", list.Articles[0].Title)

	assert.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/api/archive/"+articleID, "", nil).Code)
	assert.Equal(t, http.StatusNoContent, fx.do(t, http.MethodDelete, "/api/archive/"+articleID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, fx.do(t, http.MethodGet, "/api/archive/"+articleID, "", nil).Code)
}

func TestArchiveDisabledEndpoints(t *testing.T) {
	fx := newFixture(t, false)
	assert.Equal(t, http.StatusNotFound, fx.do(t, http.MethodGet, "/api/archive", "", nil).Code)
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/civic-dashboard/internal/model"
)

// testHandler captures the incoming request details and returns a canned
// response.
type testHandler struct {
	method      string
	path        string
	query       string
	body        string
	contentType string
	auth        string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu           sync.Mutex
	token        string
	refreshToken string
	user         *model.User
	loggedOut    bool
}

func (s *fakeSession) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.refreshToken
}

func (s *fakeSession) SetCredentials(user *model.User, token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user != nil {
		s.user = user
	}
	s.token, s.refreshToken = token, refreshToken
	return nil
}

func (s *fakeSession) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.refreshToken, s.user = "", "", nil
	s.loggedOut = true
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(h http.Handler, session Session) (*Client, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewClient(model.APIConfig{BaseURL: srv.URL + "/", TimeoutSec: 5}, session, quietLogger())
	return c, srv
}

func TestClient_ListIssues(t *testing.T) {
	h := &testHandler{responseBody: `{
		"success": true,
		"data": [
			{"_id": "i1", "title": "Pothole", "status": "pending", "latitude": 28.6, "longitude": 77.2,
			 "reportedBy": {"_id": "u1", "name": "Asha"}, "upvotes": ["u2"], "downvotes": []}
		],
		"pagination": {"currentPage": 2, "totalPages": 5, "totalItems": 42, "itemsPerPage": 10,
		               "hasNextPage": true, "hasPrevPage": true}
	}`}
	c, srv := newTestClient(h, &fakeSession{token: "tok"})
	defer srv.Close()

	page, err := c.ListIssues(context.Background(), map[string][]string{"status": {"pending,resolved"}, "page": {"2"}})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/issues" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.query != "page=2&status=pending%2Cresolved" {
		t.Errorf("query = %q", h.query)
	}
	if h.auth != "Bearer tok" {
		t.Errorf("Authorization = %q", h.auth)
	}
	if len(page.Issues) != 1 || page.Issues[0].ID != "i1" || page.Issues[0].VoteScore() != 1 {
		t.Errorf("issues = %+v", page.Issues)
	}
	if page.Pagination.TotalItems != 42 || !page.Pagination.HasNextPage {
		t.Errorf("pagination = %+v", page.Pagination)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"validation", http.StatusBadRequest, `{"success":false,"message":"Title is required"}`, KindValidation, "Title is required"},
		{"not found", http.StatusNotFound, `{"success":false,"message":"Issue not found"}`, KindNotFound, "Issue not found"},
		{"server", http.StatusInternalServerError, `oops`, KindServer, ""},
		{"conflict", http.StatusConflict, `{"error":"User already exists"}`, KindBusiness, "User already exists"},
		{"soft failure", http.StatusOK, `{"success":false,"message":"Voting closed"}`, KindBusiness, "Voting closed"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{statusCode: tc.status, responseBody: tc.body}
			c, srv := newTestClient(h, nil)
			defer srv.Close()

			_, err := c.GetIssue(context.Background(), "i1")
			apiErr, ok := err.(*Error)
			if !ok {
				t.Fatalf("err = %T %v, want *Error", err, err)
			}
			if apiErr.Kind != tc.kind || apiErr.Message != tc.message || apiErr.StatusCode != tc.status {
				t.Errorf("err = %+v", apiErr)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(model.APIConfig{BaseURL: url}, nil, quietLogger())
	_, err := c.ListDepartments(context.Background())
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if Message(err) != "Cannot reach the server" {
		t.Errorf("Message = %q", Message(err))
	}
}

func TestClient_PathEscape(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true,"data":{"_id":"a/b"}}`}
	c, srv := newTestClient(h, nil)
	defer srv.Close()

	if _, err := c.GetUser(context.Background(), "a/b"); err != nil {
		t.Fatal(err)
	}
	if h.path != "/users/a/b" {
		t.Errorf("decoded path = %q", h.path)
	}
}

func TestClient_Me_WrappedOrBare(t *testing.T) {
	for _, body := range []string{
		`{"success":true,"data":{"user":{"_id":"u1","name":"Asha","role":"admin"}}}`,
		`{"success":true,"data":{"_id":"u1","name":"Asha","role":"admin"}}`,
	} {
		h := &testHandler{responseBody: body}
		c, srv := newTestClient(h, &fakeSession{token: "t"})
		u, err := c.Me(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("Me: %v", err)
		}
		if u.ID != "u1" || u.Role != model.RoleAdmin {
			t.Errorf("user = %+v", u)
		}
	}
}

func TestClient_LoginIsAnonymous(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true,"data":{"user":{"_id":"u1"},"token":"a","refreshToken":"r"}}`}
	c, srv := newTestClient(h, &fakeSession{token: "old"})
	defer srv.Close()

	res, err := c.Login(context.Background(), "a@b.co", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if h.auth != "" {
		t.Errorf("login sent Authorization %q", h.auth)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(h.body), &body); err != nil || body["email"] != "a@b.co" {
		t.Errorf("body = %s", h.body)
	}
	if res.Token != "a" || res.RefreshToken != "r" || res.User.ID != "u1" {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_LoginFailureDoesNotRefresh(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	session := &fakeSession{refreshToken: "r"}
	c, srv := newTestClient(mux, session)
	defer srv.Close()

	_, err := c.Login(context.Background(), "a@b.co", "wrong")
	if !IsUnauthorized(err) || Message(err) != "Invalid credentials" {
		t.Fatalf("err = %v", err)
	}
	if refreshes.Load() != 0 || session.loggedOut {
		t.Errorf("refreshes = %d, loggedOut = %v", refreshes.Load(), session.loggedOut)
	}
}

// reauthServer serves /issues/i1, which accepts only validToken, and
// /auth/refresh, which answers with refreshStatus.
type reauthServer struct {
	validToken    string
	refreshStatus int
	refreshDelay  time.Duration
	refreshDrop   bool

	issueCalls   atomic.Int32
	refreshCalls atomic.Int32
	lastRefresh  atomic.Value
}

func (s *reauthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/refresh":
		s.refreshCalls.Add(1)
		data, _ := io.ReadAll(r.Body)
		s.lastRefresh.Store(string(data))
		time.Sleep(s.refreshDelay)
		if s.refreshDrop {
			conn, _, _ := w.(http.Hijacker).Hijack()
			conn.Close()
			return
		}
		if s.refreshStatus != http.StatusOK {
			w.WriteHeader(s.refreshStatus)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid refresh token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"_id":"u1","name":"Asha"},"token":"new","refreshToken":"r2"}}`))
	case "/issues/i1":
		s.issueCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+s.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"i1","title":"Pothole"}}`))
	default:
		http.NotFound(w, r)
	}
}

func TestClient_Reauth_RefreshSucceeds(t *testing.T) {
	rs := &reauthServer{validToken: "new", refreshStatus: http.StatusOK}
	session := &fakeSession{token: "old", refreshToken: "r1"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	issue, err := c.GetIssue(context.Background(), "i1")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if issue.Title != "Pothole" {
		t.Errorf("issue = %+v", issue)
	}
	if rs.issueCalls.Load() != 2 || rs.refreshCalls.Load() != 1 {
		t.Errorf("issue/refresh calls = %d/%d, want 2/1", rs.issueCalls.Load(), rs.refreshCalls.Load())
	}
	if got := rs.lastRefresh.Load().(string); !strings.Contains(got, `"refreshToken":"r1"`) {
		t.Errorf("refresh body = %s", got)
	}
	tok, rt := session.Tokens()
	if tok != "new" || rt != "r2" || session.user == nil || session.user.ID != "u1" {
		t.Errorf("session = %q %q %+v", tok, rt, session.user)
	}
}

func TestClient_Reauth_RefreshFailsLogsOut(t *testing.T) {
	rs := &reauthServer{validToken: "never", refreshStatus: http.StatusUnauthorized}
	session := &fakeSession{token: "old", refreshToken: "r1", user: &model.User{ID: "u1"}}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	_, err := c.GetIssue(context.Background(), "i1")
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want the original 401", err)
	}
	if apiErr := err.(*Error); apiErr.Path != "/issues/i1" || apiErr.Message != "Token expired" {
		t.Errorf("err = %+v, want the originating request's error", apiErr)
	}
	if !session.loggedOut || session.user != nil {
		t.Error("session not cleared after failed refresh")
	}
	if rs.issueCalls.Load() != 1 || rs.refreshCalls.Load() != 1 {
		t.Errorf("issue/refresh calls = %d/%d, want 1/1", rs.issueCalls.Load(), rs.refreshCalls.Load())
	}
}

func TestClient_Reauth_NoRefreshToken(t *testing.T) {
	rs := &reauthServer{validToken: "never", refreshStatus: http.StatusOK}
	session := &fakeSession{token: "old"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	if _, err := c.GetIssue(context.Background(), "i1"); !IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if rs.refreshCalls.Load() != 0 || !session.loggedOut {
		t.Errorf("refresh calls = %d, loggedOut = %v", rs.refreshCalls.Load(), session.loggedOut)
	}
}

func TestClient_Reauth_CallerCancelKeepsSession(t *testing.T) {
	rs := &reauthServer{validToken: "new", refreshStatus: http.StatusOK, refreshDelay: 300 * time.Millisecond}
	session := &fakeSession{token: "old", refreshToken: "r1"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.GetIssue(ctx, "i1"); err == nil {
		t.Fatal("expected an error from the cancelled call")
	}
	if session.loggedOut {
		t.Fatal("session cleared because the caller gave up")
	}

	// The refresh keeps running and lands for everyone else.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if tok, _ := session.Tokens(); tok == "new" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("refresh never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := c.GetIssue(context.Background(), "i1"); err != nil {
		t.Errorf("GetIssue after refresh: %v", err)
	}
	if rs.refreshCalls.Load() != 1 {
		t.Errorf("refresh calls = %d, want 1", rs.refreshCalls.Load())
	}
}

func TestClient_Reauth_UnreachableRefreshKeepsSession(t *testing.T) {
	rs := &reauthServer{validToken: "never", refreshDrop: true}
	session := &fakeSession{token: "old", refreshToken: "r1"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	if _, err := c.GetIssue(context.Background(), "i1"); !IsUnauthorized(err) {
		t.Fatalf("err = %v, want the original 401", err)
	}
	if session.loggedOut {
		t.Error("session cleared on a transport failure")
	}
	if tok, rt := session.Tokens(); tok != "old" || rt != "r1" {
		t.Errorf("tokens = %q/%q, want old/r1", tok, rt)
	}
}

func TestClient_Reauth_SecondUnauthorizedNotRetried(t *testing.T) {
	// The refresh succeeds but the server still rejects the new token.
	rs := &reauthServer{validToken: "never", refreshStatus: http.StatusOK}
	session := &fakeSession{token: "old", refreshToken: "r1"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	if _, err := c.GetIssue(context.Background(), "i1"); !IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if rs.issueCalls.Load() != 2 || rs.refreshCalls.Load() != 1 {
		t.Errorf("issue/refresh calls = %d/%d, want 2/1", rs.issueCalls.Load(), rs.refreshCalls.Load())
	}
}

func TestClient_Reauth_ConcurrentShareRefresh(t *testing.T) {
	rs := &reauthServer{validToken: "new", refreshStatus: http.StatusOK, refreshDelay: 50 * time.Millisecond}
	session := &fakeSession{token: "old", refreshToken: "r1"}
	c, srv := newTestClient(rs, session)
	defer srv.Close()

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetIssue(context.Background(), "i1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("GetIssue: %v", err)
		}
	}
	if rs.refreshCalls.Load() != 1 {
		t.Errorf("refresh calls = %d, want 1", rs.refreshCalls.Load())
	}
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"d1","name":"Roads"}]}`))
	}))
	defer srv.Close()

	c := NewClient(model.APIConfig{BaseURL: srv.URL}, nil, quietLogger())
	deps, err := c.ListDepartments(context.Background())
	if err != nil {
		t.Fatalf("ListDepartments: %v", err)
	}
	if len(deps) != 1 || calls.Load() != 3 {
		t.Errorf("deps = %v, calls = %d", deps, calls.Load())
	}
}

func TestClient_CreateIssueMultipart(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(img, []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got struct {
		fields   map[string]string
		filename string
		content  string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		if fh := r.MultipartForm.File["images"]; len(fh) == 1 {
			got.filename = fh[0].Filename
			f, _ := fh[0].Open()
			data, _ := io.ReadAll(f)
			f.Close()
			got.content = string(data)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"new1","title":"Broken light"}}`))
	}))
	defer srv.Close()

	c := NewClient(model.APIConfig{BaseURL: srv.URL}, &fakeSession{token: "t"}, quietLogger())
	issue, err := c.CreateIssue(context.Background(), model.NewIssue{
		Title:       "Broken light",
		Description: "Dark street",
		Category:    model.CategoryElectricity,
		Priority:    model.PriorityHigh,
		Latitude:    28.6139,
		Longitude:   77.209,
		Tags:        []string{"night", "safety"},
		ImagePaths:  []string{img},
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.ID != "new1" {
		t.Errorf("issue = %+v", issue)
	}
	for k, want := range map[string]string{
		"title":       "Broken light",
		"category":    "electricity",
		"priority":    "high",
		"latitude":    "28.6139",
		"coordinates": "[77.209,28.6139]",
		"tags":        "night,safety",
	} {
		if got.fields[k] != want {
			t.Errorf("field %s = %q, want %q", k, got.fields[k], want)
		}
	}
	if _, ok := got.fields["address"]; ok {
		t.Error("empty address was sent")
	}
	if got.filename != "photo.jpg" || got.content != "jpegdata" {
		t.Errorf("file = %q %q", got.filename, got.content)
	}
}

func TestClient_CreateIssueMissingImage(t *testing.T) {
	h := &testHandler{}
	c, srv := newTestClient(h, nil)
	defer srv.Close()

	_, err := c.CreateIssue(context.Background(), model.NewIssue{Title: "x", ImagePaths: []string{"/no/such/file.png"}})
	if err == nil {
		t.Fatal("expected error for missing image")
	}
	if h.method != "" {
		t.Error("request sent despite unreadable image")
	}
}

func TestClient_Vote(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true,"data":{"upvotes":3,"downvotes":1,"voteCount":2}}`}
	c, srv := newTestClient(h, &fakeSession{token: "t"})
	defer srv.Close()

	res, err := c.Vote(context.Background(), "i1", model.VoteUp)
	if err != nil {
		t.Fatal(err)
	}
	if h.path != "/issues/i1/vote" || h.body != `{"voteType":"upvote"}` {
		t.Errorf("request = %s %s", h.path, h.body)
	}
	if res.VoteCount != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_Hierarchy(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true,"data":{
		"states":[{"_id":"s1","name":"Delhi","type":"state",
		  "bounds":{"north":28.9,"south":28.4,"east":77.4,"west":76.8},
		  "center":{"latitude":28.6,"longitude":77.2}}],
		"districts":[],"tehsils":[]}}`}
	c, srv := newTestClient(h, nil)
	defer srv.Close()

	hier, err := c.Hierarchy(context.Background(), "s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if h.query != "stateId=s1" {
		t.Errorf("query = %q", h.query)
	}
	if len(hier.States) != 1 || hier.States[0].Bounds.North != 28.9 {
		t.Errorf("hierarchy = %+v", hier)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/warbler/internal/config"
	"anoa.com/warbler/internal/session"
	"anoa.com/warbler/internal/testutil"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	srv := NewServer(Dependencies{
		Config: &config.Config{
			AppEnv:         "test",
			AllowedOrigins: "http://localhost:3000",
			SecretKey:      "test-secret",
			SessionName:    "warbler_test",
			CSRFTTL:        time.Hour,
			BcryptCost:     bcrypt.MinCost,
		},
		DB: testutil.NewDB(t),
	})
	return srv.Handler()
}

// client is a cookie-carrying browser stand-in.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
	csrf    string
}

func newClient(t *testing.T, h http.Handler) *client {
	c := &client{t: t, handler: h}
	var body struct {
		Token string `json:"csrf_token"`
	}
	c.do(http.MethodGet, "/api/csrf", nil, http.StatusOK, &body)
	if body.Token == "" {
		t.Fatal("no csrf token issued")
	}
	c.csrf = body.Token
	return c
}

func (c *client) do(method, path string, payload any, wantStatus int, out any) *httptest.ResponseRecorder {
	c.t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set(session.CSRFHeader, c.csrf)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = []*http.Cookie{set[len(set)-1]}
	}

	if w.Code != wantStatus {
		c.t.Fatalf("%s %s = %d, want %d: %s", method, path, w.Code, wantStatus, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w
}

type userJSON struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type messageJSON struct {
	ID   uint     `json:"id"`
	Text string   `json:"text"`
	User userJSON `json:"user"`
}

type timelineJSON struct {
	Anonymous       bool          `json:"anonymous"`
	Messages        []messageJSON `json:"messages"`
	LikedMessageIDs []uint        `json:"liked_message_ids"`
}

func (c *client) signup(username string) userJSON {
	c.t.Helper()
	var res struct {
		User     userJSON `json:"user"`
		Redirect string   `json:"redirect"`
	}
	c.do(http.MethodPost, "/api/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	}, http.StatusCreated, &res)
	if res.User.ID == 0 || res.Redirect != "/" {
		c.t.Fatalf("signup response = %+v", res)
	}
	return res.User
}

func (c *client) timeline() timelineJSON {
	c.t.Helper()
	var tl timelineJSON
	c.do(http.MethodGet, "/api/timeline", nil, http.StatusOK, &tl)
	return tl
}

func TestAnonymousTimeline(t *testing.T) {
	h := newTestServer(t)
	c := newClient(t, h)

	w := c.do(http.MethodGet, "/api/timeline", nil, http.StatusOK, nil)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}

	tl := c.timeline()
	if !tl.Anonymous || len(tl.Messages) != 0 {
		t.Errorf("timeline = %+v", tl)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
}

func TestSignupRequiresCSRF(t *testing.T) {
	h := newTestServer(t)
	c := newClient(t, h)
	c.csrf = ""

	c.do(http.MethodPost, "/api/signup", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter22",
	}, http.StatusUnauthorized, nil)
}

func TestWarblerFlow(t *testing.T) {
	h := newTestServer(t)

	alice := newClient(t, h)
	aliceUser := alice.signup("alice")
	if aliceUser.ImageURL == "" {
		t.Error("signup should apply the default image")
	}

	var posted messageJSON
	alice.do(http.MethodPost, "/api/messages", map[string]string{"text": "  <b>hello</b> world "}, http.StatusCreated, &posted)
	if posted.Text != "hello world" {
		t.Errorf("stored text = %q", posted.Text)
	}
	alice.do(http.MethodPost, "/api/messages", map[string]string{"text": "   "}, http.StatusBadRequest, nil)

	tl := alice.timeline()
	if tl.Anonymous || len(tl.Messages) != 1 || tl.Messages[0].ID != posted.ID {
		t.Fatalf("alice timeline = %+v", tl)
	}

	bob := newClient(t, h)
	bobUser := bob.signup("bob")
	if got := bob.timeline(); len(got.Messages) != 0 {
		t.Fatalf("bob sees strangers: %+v", got)
	}

	bob.do(http.MethodPost, fmt.Sprintf("/api/users/follow/%d", aliceUser.ID), nil, http.StatusOK, nil)
	tl = bob.timeline()
	if len(tl.Messages) != 1 || tl.Messages[0].User.Username != "alice" {
		t.Fatalf("bob timeline after follow = %+v", tl)
	}

	var liked struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	likePath := fmt.Sprintf("/api/messages/%d/like", posted.ID)
	bob.do(http.MethodPost, likePath, nil, http.StatusOK, &liked)
	bob.do(http.MethodPost, likePath, nil, http.StatusOK, &liked)
	if !liked.Liked || liked.LikeCount != 1 {
		t.Errorf("like = %+v", liked)
	}
	if tl = bob.timeline(); len(tl.LikedMessageIDs) != 1 || tl.LikedMessageIDs[0] != posted.ID {
		t.Errorf("liked ids = %v", tl.LikedMessageIDs)
	}

	var unread struct {
		Count int64 `json:"count"`
	}
	alice.do(http.MethodGet, "/api/notifications/unread-count", nil, http.StatusOK, &unread)
	if unread.Count != 2 {
		t.Errorf("alice unread = %d, want follow + like", unread.Count)
	}

	// only the author may delete
	deletePath := fmt.Sprintf("/api/messages/%d/delete", posted.ID)
	bob.do(http.MethodPost, deletePath, nil, http.StatusUnauthorized, nil)
	alice.do(http.MethodPost, deletePath, nil, http.StatusOK, nil)
	if tl = bob.timeline(); len(tl.Messages) != 0 {
		t.Errorf("deleted message still visible: %+v", tl)
	}

	var profile struct {
		User        userJSON `json:"user"`
		IsFollowing bool     `json:"is_following"`
	}
	bob.do(http.MethodGet, fmt.Sprintf("/api/users/%d", aliceUser.ID), nil, http.StatusOK, &profile)
	if !profile.IsFollowing {
		t.Error("bob should be following alice")
	}

	bob.do(http.MethodPost, "/api/logout", nil, http.StatusOK, nil)
	if tl = bob.timeline(); !tl.Anonymous {
		t.Error("bob still logged in after logout")
	}
	bob.do(http.MethodPost, fmt.Sprintf("/api/users/follow/%d", bobUser.ID), nil, http.StatusUnauthorized, nil)

	bob.do(http.MethodPost, "/api/login", map[string]string{"username": "bob", "password": "wrong-pass"}, http.StatusUnauthorized, nil)
	bob.do(http.MethodPost, "/api/login", map[string]string{"username": "bob", "password": "hunter22"}, http.StatusOK, nil)
	if tl = bob.timeline(); tl.Anonymous {
		t.Error("login did not stick")
	}
}

func TestLogoutNeedsCSRF(t *testing.T) {
	h := newTestServer(t)
	c := newClient(t, h)
	c.signup("carol")

	token := c.csrf
	c.csrf = ""
	c.do(http.MethodPost, "/api/logout", nil, http.StatusUnauthorized, nil)
	if tl := c.timeline(); tl.Anonymous {
		t.Fatal("forged logout took effect")
	}

	c.csrf = token
	c.do(http.MethodPost, "/api/logout", nil, http.StatusOK, nil)
}

func TestDeleteAccountClearsSession(t *testing.T) {
	h := newTestServer(t)
	c := newClient(t, h)
	user := c.signup("dave")

	c.do(http.MethodPost, "/api/messages", map[string]string{"text": "bye"}, http.StatusCreated, nil)
	c.do(http.MethodPost, "/api/users/delete", nil, http.StatusOK, nil)

	if tl := c.timeline(); !tl.Anonymous {
		t.Error("session survived account deletion")
	}
	c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), nil, http.StatusNotFound, nil)
}

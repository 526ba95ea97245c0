package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/internal/session"
	"anoa.com/warbler/pkg/apperror"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[uint]*entity.User

func (f fakeUsers) FindByID(_ context.Context, id uint) (*entity.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user")
}

type harness struct {
	router  *gin.Engine
	cookies []*http.Cookie
}

func newHarness(users fakeUsers) *harness {
	sessions := session.NewManager(session.Options{Secret: "test-secret", Name: "warbler_test", CSRFTTL: time.Hour})
	auth := NewAuthMiddleware(sessions, users)

	r := gin.New()
	r.Use(NoStore(), auth.LoadSession())
	r.GET("/csrf", func(c *gin.Context) {
		token, _ := sessions.IssueCSRF(c)
		c.String(http.StatusOK, token)
	})
	r.POST("/as/:id", func(c *gin.Context) {
		var id struct {
			ID uint `uri:"id"`
		}
		_ = c.ShouldBindUri(&id)
		_ = sessions.Login(c, id.ID)
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		rc := session.FromGin(c)
		if !rc.IsAuthenticated() {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, rc.User.Username)
	})

	guarded := r.Group("", auth.RequireAuth(), auth.RequireCSRF())
	guarded.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })
	guarded.POST("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	forms := r.Group("", auth.RequireCSRF())
	forms.POST("/form", func(c *gin.Context) { c.Status(http.StatusOK) })

	return &harness{router: r}
}

func (h *harness) do(method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		for _, value := range v {
			req.Header.Add(k, value)
		}
	}
	for _, ck := range h.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		h.cookies = []*http.Cookie{set[len(set)-1]}
	}
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestLoadSessionResolvesUser(t *testing.T) {
	h := newHarness(fakeUsers{1: {ID: 1, Username: "alice"}})

	if got := h.do(http.MethodGet, "/whoami", nil).Body.String(); got != "anonymous" {
		t.Fatalf("before login = %q", got)
	}
	h.do(http.MethodPost, "/as/1", nil)
	if got := h.do(http.MethodGet, "/whoami", nil).Body.String(); got != "alice" {
		t.Fatalf("after login = %q", got)
	}
}

func TestStaleSessionContinuesAnonymously(t *testing.T) {
	users := fakeUsers{1: {ID: 1, Username: "alice"}}
	h := newHarness(users)
	h.do(http.MethodPost, "/as/1", nil)

	delete(users, 1)

	w := h.do(http.MethodGet, "/whoami", nil)
	if w.Code != http.StatusOK || w.Body.String() != "anonymous" {
		t.Fatalf("stale session = %d %q", w.Code, w.Body.String())
	}

	// the id is gone from the cookie, so a recreated user 1 is not picked up
	users[1] = &entity.User{ID: 1, Username: "mallory"}
	if got := h.do(http.MethodGet, "/whoami", nil).Body.String(); got != "anonymous" {
		t.Fatalf("session was not cleared, got %q", got)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	h := newHarness(fakeUsers{})

	w := h.do(http.MethodGet, "/private", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := errorBody(t, w); msg != "access unauthorized" {
		t.Errorf("error = %q", msg)
	}
}

func TestRequireCSRF(t *testing.T) {
	h := newHarness(fakeUsers{1: {ID: 1, Username: "alice"}})
	h.do(http.MethodPost, "/as/1", nil)

	if w := h.do(http.MethodGet, "/private", nil); w.Code != http.StatusOK {
		t.Fatalf("safe method without token = %d", w.Code)
	}

	w := h.do(http.MethodPost, "/private", nil)
	if w.Code != http.StatusUnauthorized || errorBody(t, w) != "access unauthorized" {
		t.Fatalf("missing token = %d %q", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/private", http.Header{session.CSRFHeader: {"not-a-token"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token = %d", w.Code)
	}

	token := h.do(http.MethodGet, "/csrf", nil).Body.String()
	if w := h.do(http.MethodPost, "/private", http.Header{session.CSRFHeader: {token}}); w.Code != http.StatusOK {
		t.Fatalf("valid token = %d %q", w.Code, w.Body.String())
	}
}

func TestCSRFTokenIsBoundToSession(t *testing.T) {
	victim := newHarness(fakeUsers{})
	token := victim.do(http.MethodGet, "/csrf", nil).Body.String()

	attacker := newHarness(fakeUsers{})
	attacker.do(http.MethodGet, "/csrf", nil)
	if w := attacker.do(http.MethodPost, "/form", http.Header{session.CSRFHeader: {token}}); w.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token accepted: %d", w.Code)
	}
	if w := victim.do(http.MethodPost, "/form", http.Header{session.CSRFHeader: {token}}); w.Code != http.StatusOK {
		t.Fatalf("own token rejected: %d", w.Code)
	}
}

func TestNoStoreHeader(t *testing.T) {
	h := newHarness(fakeUsers{})
	if got := h.do(http.MethodGet, "/whoami", nil).Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

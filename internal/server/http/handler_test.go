package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/notsy/internal/common"
	"github.com/dmitrijs2005/notsy/internal/logging"
	"github.com/dmitrijs2005/notsy/internal/server/config"
	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notsy/internal/server/services"
	"github.com/dmitrijs2005/notsy/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func testConfig() *config.Config {
	return &config.Config{
		EndpointAddrHTTP: "127.0.0.1:0",
		MaxImageBytes:    64,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		ShutdownTimeout:  time.Second,
	}
}

type env struct {
	handler http.Handler
	images  *storage.MemoryStore
}

func newEnv(t *testing.T, c *config.Config) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	images := storage.NewMemoryStore("http://localhost/images")
	ns := services.NewNoteService(nil, repomanager.NewMemoryRepositoryManager(), images, logging.Nop(), c.MaxImageBytes)
	s := NewHTTPServer(c, logging.Nop(), ns, WithImageSource(images))
	return &env{handler: s.Handler(), images: images}
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) models.Note {
	t.Helper()
	var n models.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n), w.Body.String())
	return n
}

func decodeNotes(t *testing.T, w *httptest.ResponseRecorder) []models.Note {
	t.Helper()
	var ns []models.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ns), w.Body.String())
	return ns
}

func (e *env) create(t *testing.T, body string) models.Note {
	t.Helper()
	w := e.do(t, http.MethodPost, "/note/create", strings.NewReader(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeNote(t, w)
}

// ---- routes ----

func TestNoteLifecycle(t *testing.T) {
	e := newEnv(t, testConfig())

	n := e.create(t, `{"title":"buy milk","content":"2l","completed":true,"createdBy":"eve","imageUrl":"http://x/y.png"}`)
	assert.Equal(t, "buy milk", n.Title)
	assert.Equal(t, "2l", *n.Content)
	assert.False(t, n.Completed)
	assert.Equal(t, models.SystemAuthor, *n.CreatedBy)
	assert.Nil(t, n.ImageURL)

	w := e.do(t, http.MethodGet, "/note/"+n.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, n.ID, decodeNote(t, w).ID)

	w = e.do(t, http.MethodPut, "/note/complete/"+n.ID.String(), strings.NewReader(`{"completed":true}`))
	require.Equal(t, http.StatusOK, w.Code)
	completed := decodeNote(t, w)
	assert.True(t, completed.Completed)
	assert.Equal(t, "2l", *completed.Content)

	w = e.do(t, http.MethodPost, "/note/update/"+n.ID.String(), strings.NewReader(`{"title":"buy oat milk"}`))
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeNote(t, w)
	assert.Equal(t, "buy oat milk", updated.Title)
	assert.Nil(t, updated.Content)
	assert.False(t, updated.Completed)

	w = e.do(t, http.MethodPost, "/note/"+n.ID.String()+"/image", strings.NewReader("GIF89a"), "Content-Type", "image/gif")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	withImage := decodeNote(t, w)
	require.NotNil(t, withImage.ImageURL)
	assert.True(t, strings.HasSuffix(*withImage.ImageURL, ".gif"))
	assert.True(t, strings.HasPrefix(*withImage.ImageURL, "http://localhost/images/"+n.ID.String()+"_"))

	w = e.do(t, http.MethodGet, strings.TrimPrefix(*withImage.ImageURL, "http://localhost"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GIF89a", w.Body.String())
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))

	w = e.do(t, http.MethodDelete, "/note/"+n.ID.String()+"/image", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeNote(t, w).ImageURL)

	w = e.do(t, http.MethodDelete, "/note/"+n.ID.String()+"/image", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Note does not have an image", w.Body.String())

	w = e.do(t, http.MethodDelete, "/note/delete/"+n.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buy oat milk", decodeNote(t, w).Title)

	w = e.do(t, http.MethodGet, "/note/"+n.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Note not found", w.Body.String())
}

func TestListRoutes(t *testing.T) {
	e := newEnv(t, testConfig())

	w := e.do(t, http.MethodGet, "/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	a := e.create(t, `{"title":"a"}`)
	b := e.create(t, `{"title":"b"}`)
	e.create(t, `{"title":"c"}`)
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		w := e.do(t, http.MethodPut, "/note/complete/"+id.String(), strings.NewReader(`{"completed":true}`))
		require.Equal(t, http.StatusOK, w.Code)
	}

	all := decodeNotes(t, e.do(t, http.MethodGet, "/notes", nil))
	done := decodeNotes(t, e.do(t, http.MethodGet, "/notes/completed", nil))
	todo := decodeNotes(t, e.do(t, http.MethodGet, "/notes/todo", nil))

	assert.Len(t, all, 3)
	assert.Len(t, done, 2)
	require.Len(t, todo, 1)
	assert.Equal(t, "c", todo[0].Title)
}

func TestNotFoundRoutes(t *testing.T) {
	e := newEnv(t, testConfig())
	missing := uuid.NewString()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/note/" + missing, ""},
		{http.MethodGet, "/note/not-a-uuid", ""},
		{http.MethodPost, "/note/update/" + missing, `{"title":"x"}`},
		{http.MethodPut, "/note/complete/" + missing, `{"completed":true}`},
		{http.MethodPost, "/note/" + missing + "/image", "img"},
		{http.MethodDelete, "/note/" + missing + "/image", ""},
		{http.MethodDelete, "/note/delete/" + missing, ""},
		{http.MethodDelete, "/note/delete/123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := e.do(t, tt.method, tt.path, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Note not found", w.Body.String())
			assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
		})
	}
}

func TestBadRequests(t *testing.T) {
	e := newEnv(t, testConfig())
	n := e.create(t, `{"title":"a"}`)
	id := n.ID.String()

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers []string
		want    string
	}{
		{"create malformed", http.MethodPost, "/note/create", `{"title":`, nil, "Invalid body"},
		{"create empty", http.MethodPost, "/note/create", ``, nil, "Invalid body"},
		{"create bad id", http.MethodPost, "/note/create", `{"id":"nope","title":"a"}`, nil, "Invalid body"},
		{"create null", http.MethodPost, "/note/create", `null`, nil, "Invalid body"},
		{"create no title", http.MethodPost, "/note/create", `{"content":"x"}`, nil, "Title is required"},
		{"update null", http.MethodPost, "/note/update/" + id, ` null `, nil, "Invalid body"},
		{"update malformed", http.MethodPost, "/note/update/" + id, `[1,2]`, nil, "Invalid body"},
		{"update no title", http.MethodPost, "/note/update/" + id, `{}`, nil, "Title is required"},
		{"complete malformed", http.MethodPut, "/note/complete/" + id, `nope`, nil, "Invalid body"},
		{"complete null", http.MethodPut, "/note/complete/" + id, `null`, nil, "Invalid body"},
		{"empty image", http.MethodPost, "/note/" + id + "/image", ``, []string{"Content-Type", "image/png"}, "No image provided"},
		{"image too large", http.MethodPost, "/note/" + id + "/image", strings.Repeat("x", 65), []string{"Content-Type", "image/png"}, "Image too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, tt.method, tt.path, strings.NewReader(tt.body), tt.headers...)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	w := e.do(t, http.MethodGet, "/note/"+id, nil)
	assert.Nil(t, decodeNote(t, w).ImageURL)
}

func TestComplete_NullBodyKeepsState(t *testing.T) {
	e := newEnv(t, testConfig())
	n := e.create(t, `{"title":"a"}`)
	path := "/note/complete/" + n.ID.String()

	w := e.do(t, http.MethodPut, path, strings.NewReader(`{"completed":true}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeNote(t, w).Completed)

	w = e.do(t, http.MethodPut, path, strings.NewReader(`null`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid body", w.Body.String())

	w = e.do(t, http.MethodGet, "/note/"+n.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeNote(t, w).Completed)
}

func TestAttachImage_DefaultExtension(t *testing.T) {
	e := newEnv(t, testConfig())
	n := e.create(t, `{"title":"a"}`)

	w := e.do(t, http.MethodPost, "/note/"+n.ID.String()+"/image", strings.NewReader("hello"), "Content-Type", "text/plain")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(*decodeNote(t, w).ImageURL, ".jpg"))

	w = e.do(t, http.MethodPost, "/note/"+n.ID.String()+"/image", strings.NewReader("hello"), "Content-Type", "image/PNG")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(*decodeNote(t, w).ImageURL, ".jpg"))

	w = e.do(t, http.MethodGet, "/images/unknown.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---- error mapping ----

type fakeNotes struct {
	err   error
	panic bool
}

func (f *fakeNotes) List(context.Context, *bool) ([]*models.Note, error) {
	if f.panic {
		panic("boom")
	}
	return nil, f.err
}
func (f *fakeNotes) Get(context.Context, uuid.UUID) (*models.Note, error) { return nil, f.err }
func (f *fakeNotes) Create(context.Context, *models.NoteInput) (*models.Note, error) {
	return nil, f.err
}
func (f *fakeNotes) Update(context.Context, uuid.UUID, *models.NoteInput) (*models.Note, error) {
	return nil, f.err
}
func (f *fakeNotes) Complete(context.Context, uuid.UUID, bool) (*models.Note, error) {
	return nil, f.err
}
func (f *fakeNotes) Delete(context.Context, uuid.UUID) (*models.Note, error) { return nil, f.err }
func (f *fakeNotes) AttachImage(context.Context, uuid.UUID, io.Reader, string) (*models.Note, error) {
	return nil, f.err
}
func (f *fakeNotes) DetachImage(context.Context, uuid.UUID) (*models.Note, error) {
	return nil, f.err
}

func fakeEnv(t *testing.T, c *config.Config, ns NoteService, opts ...Option) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &env{handler: NewHTTPServer(c, logging.Nop(), ns, opts...).Handler()}
}

func TestInternalErrors_JSONStringWithAction(t *testing.T) {
	e := fakeEnv(t, testConfig(), &fakeNotes{err: &common.StoreError{Op: "find notes", Err: errors.New("connection reset")}})
	id := uuid.NewString()

	tests := []struct {
		method, path, body, action string
	}{
		{http.MethodGet, "/notes", "", "retrieving notes"},
		{http.MethodGet, "/notes/completed", "", "retrieving completed notes"},
		{http.MethodGet, "/notes/todo", "", "retrieving todo notes"},
		{http.MethodGet, "/note/" + id, "", "retrieving note"},
		{http.MethodPost, "/note/create", `{"title":"a"}`, "writing note"},
		{http.MethodPost, "/note/update/" + id, `{"title":"a"}`, "updating note"},
		{http.MethodPut, "/note/complete/" + id, `{}`, "completing note"},
		{http.MethodPost, "/note/" + id + "/image", "img", "uploading image"},
		{http.MethodDelete, "/note/" + id + "/image", "", "deleting image"},
		{http.MethodDelete, "/note/delete/" + id, "", "deleting note"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			w := e.do(t, tt.method, tt.path, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var msg string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
			assert.Equal(t, "An error occurred while "+tt.action+": connection reset", msg)
		})
	}
}

func TestErrorMapping_Context(t *testing.T) {
	e := fakeEnv(t, testConfig(), &fakeNotes{err: &common.StoreError{Op: "find note", Err: context.Canceled}})
	w := e.do(t, http.MethodGet, "/notes", nil)
	assert.Equal(t, 499, w.Code)
	assert.Empty(t, w.Body.String())

	e = fakeEnv(t, testConfig(), &fakeNotes{err: &common.StoreError{Op: "find notes", Err: context.DeadlineExceeded}})
	w = e.do(t, http.MethodGet, "/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var msg string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "An error occurred while retrieving notes: context deadline exceeded", msg)

	e = fakeEnv(t, testConfig(), &fakeNotes{err: errors.New("plain")})
	w = e.do(t, http.MethodGet, "/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, `"An error occurred while retrieving notes: plain"`, w.Body.String())
}

func TestRecovery(t *testing.T) {
	e := fakeEnv(t, testConfig(), &fakeNotes{panic: true})
	w := e.do(t, http.MethodGet, "/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- middleware ----

func TestRequestID(t *testing.T) {
	e := newEnv(t, testConfig())

	w := e.do(t, http.MethodGet, "/ping", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = e.do(t, http.MethodGet, "/ping", nil)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRateLimit(t *testing.T) {
	c := testConfig()
	c.RateLimitRPS = 1
	c.RateLimitBurst = 1
	e := newEnv(t, c)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/ping", nil).Code)
	w := e.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too Many Requests", w.Body.String())
}

func TestCORS(t *testing.T) {
	c := testConfig()
	c.CORSAllowedOrigins = "http://app.example, http://other.example"
	e := newEnv(t, c)

	w := e.do(t, http.MethodOptions, "/note/create", nil,
		"Origin", "http://app.example",
		"Access-Control-Request-Method", http.MethodPost)
	assert.Equal(t, "http://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = e.do(t, http.MethodGet, "/ping", nil, "Origin", "http://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPing(t *testing.T) {
	e := fakeEnv(t, testConfig(), &fakeNotes{})
	w := e.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	e = fakeEnv(t, testConfig(), &fakeNotes{}, WithPinger(func(context.Context) error { return errors.New("down") }))
	w = e.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// no image source, no image route
	w = e.do(t, http.MethodGet, "/images/x.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---- Run ----

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewHTTPServer(testConfig(), logging.Nop(), &fakeNotes{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	c := testConfig()
	c.EndpointAddrHTTP = "256.0.0.1:bad"
	s := NewHTTPServer(c, logging.Nop(), &fakeNotes{})

	err := s.Run(context.Background())
	assert.Error(t, err)
}

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/form"
	"github.com/jjudge-oj/imageforms/internal/screen"
	"github.com/jjudge-oj/imageforms/internal/services"
	"github.com/jjudge-oj/imageforms/internal/storage"
	"github.com/jjudge-oj/imageforms/internal/store"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestServer(t *testing.T) (*httptest.Server, *storage.MemoryStorage) {
	t.Helper()

	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	objects := storage.NewMemoryStorage("test")
	svc := services.NewRecordService(store.NewMemoryRecordRepository(), storage.NewStorage(objects), nil, ts.URL)
	handler = NewRouter(svc)
	return ts, objects
}

func clientFor(ts *httptest.Server, c types.Collection) *crudclient.Client {
	return crudclient.New(crudclient.Endpoint{BaseURL: ts.URL + "/api/" + c.Path}, crudclient.WithHTTPClient(ts.Client()))
}

func TestRecordLifecycleOverHTTP(t *testing.T) {
	ts, objects := newTestServer(t)
	ctx := context.Background()
	c := types.MultipleImageContent

	s := screen.New(c, clientFor(ts, c))
	require.NoError(t, s.Mount(ctx))
	assert.Empty(t, s.Records())

	f := s.Form()
	require.NoError(t, f.SetField(types.FieldName, "Ann"))
	require.NoError(t, f.SetField(types.FieldEmail, "a@x.com"))
	require.NoError(t, f.SetField(types.FieldPassword, "pw"))
	require.NoError(t, f.SetFileAt(0, crudclient.BytesAttachment("a.png", pngHeader)))
	i, err := f.AddFileSlot()
	require.NoError(t, err)
	require.NoError(t, f.SetFileAt(i, crudclient.BytesAttachment("b.png", pngHeader)))
	require.NoError(t, f.SetContentAt(0, "hello"))

	created, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Images, 2)
	assert.Equal(t, []string{"hello"}, created.Content)
	assert.Equal(t, form.MessageCreated, s.Message())
	assert.Equal(t, 2, objects.Len())

	resp, err := ts.Client().Get(created.Images[0])
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)

	require.NoError(t, s.Edit(created.ID))
	require.NoError(t, f.SetField(types.FieldName, "Anna"))
	updated, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.Images, updated.Images)
	require.Len(t, s.Records(), 1)
	assert.Equal(t, "Anna", s.Records()[0].Name)

	fresh := screen.New(c, clientFor(ts, c))
	require.NoError(t, fresh.Mount(ctx))
	assert.Equal(t, s.Records(), fresh.Records())

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.Empty(t, s.Records())
	assert.Equal(t, screen.MessageDeleted, s.Message())
	assert.Equal(t, 0, objects.Len())

	records, err := clientFor(ts, c).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPasswordIsNeverReturned(t *testing.T) {
	ts, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Ann"))
	require.NoError(t, mw.WriteField("email", "a@x.com"))
	require.NoError(t, mw.WriteField("password", "hunter2"))
	require.NoError(t, mw.Close())

	resp, err := ts.Client().Post(ts.URL+"/api/single/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(raw), `"user"`)
	assert.Contains(t, string(raw), `"_id"`)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "hunter2")
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ts, objects := newTestServer(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		collection types.Collection
		build      func(p *crudclient.Payload)
		message    string
	}{
		{
			name:       "non-image upload",
			collection: types.MultipleImage,
			build: func(p *crudclient.Payload) {
				p.AddField("password", "pw")
				p.AddFile("images", crudclient.BytesAttachment("notes.txt", []byte("plain text")))
			},
			message: "not an image",
		},
		{
			name:       "two images on single",
			collection: types.SingleImage,
			build: func(p *crudclient.Payload) {
				p.AddField("password", "pw")
				p.AddFile("image", crudclient.BytesAttachment("a.png", pngHeader))
				p.AddFile("image", crudclient.BytesAttachment("b.png", pngHeader))
			},
			message: "only one image",
		},
		{
			name:       "missing password",
			collection: types.SingleImage,
			build:      func(*crudclient.Payload) {},
			message:    "password is required",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var p crudclient.Payload
			p.AddField("name", "Ann")
			p.AddField("email", "a@x.com")
			tc.build(&p)

			_, err := clientFor(ts, tc.collection).Create(ctx, p)
			var statusErr *crudclient.StatusError
			require.True(t, errors.As(err, &statusErr), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
			assert.Contains(t, statusErr.Message, tc.message)
		})
	}
	assert.Equal(t, 0, objects.Len())
}

func TestRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/single/", http.StatusOK},
		{http.MethodGet, "/api/multiple/new", http.StatusOK},
		{http.MethodGet, "/api/content/missing", http.StatusNotFound},
		{http.MethodDelete, "/api/content/missing", http.StatusNotFound},
		{http.MethodGet, "/files/images/single/none.png", http.StatusNotFound},
		{http.MethodGet, "/api/unknown/", http.StatusNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)
			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == http.StatusOK {
				assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
			}
		})
	}
}

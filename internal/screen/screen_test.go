package screen

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/form"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	records   []types.Record
	listErr   error
	removeErr error
	removed   []string
	created   int
}

func (f *fakeAPI) List(context.Context) ([]types.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Record(nil), f.records...), nil
}

func (f *fakeAPI) Create(_ context.Context, p crudclient.Payload) (types.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return types.Record{ID: "new", Name: p.Values(types.FieldName)[0], Email: p.Values(types.FieldEmail)[0]}, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, p crudclient.Payload) (types.Record, error) {
	return types.Record{ID: id, Name: p.Values(types.FieldName)[0], Email: p.Values(types.FieldEmail)[0]}, nil
}

func (f *fakeAPI) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, id)
	return nil
}

func twoRecords() []types.Record {
	return []types.Record{
		{ID: "a", Name: "Ann", Email: "a@x.com", Images: []string{"http://img/1", "http://img/2"}},
		{ID: "b", Name: "Bob", Email: "b@x.com", Content: []string{"hello"}},
	}
}

func TestMountLoadsRecordsInOrder(t *testing.T) {
	s := New(types.MultipleImage, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))

	assert.True(t, s.Mounted())
	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
	assert.NoError(t, s.LoadError())
	assert.Equal(t, "", s.Message())
}

func TestMountFailureLeavesListEmpty(t *testing.T) {
	listErr := errors.New("connection refused")
	s := New(types.SingleImage, &fakeAPI{listErr: listErr})

	err := s.Mount(context.Background())
	require.ErrorIs(t, err, listErr)
	assert.Empty(t, s.Records())
	assert.ErrorIs(t, s.LoadError(), listErr)
	assert.Equal(t, MessageLoadFailed, s.Message())
}

func TestDeleteRemovesFromList(t *testing.T) {
	api := &fakeAPI{records: twoRecords()}
	s := New(types.MultipleImageContent, api)
	require.NoError(t, s.Mount(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "a"))

	assert.Equal(t, []string{"a"}, api.removed)
	recs := s.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].ID)
	assert.Equal(t, MessageDeleted, s.Message())
}

func TestDeleteFailureKeepsList(t *testing.T) {
	api := &fakeAPI{records: twoRecords(), removeErr: errors.New("boom")}
	s := New(types.MultipleImage, api)
	require.NoError(t, s.Mount(context.Background()))

	require.Error(t, s.Delete(context.Background(), "a"))
	assert.Len(t, s.Records(), 2)
	assert.Equal(t, MessageDeleteFailed, s.Message())
}

func TestEditAndSubmitUpdatesList(t *testing.T) {
	s := New(types.SingleImage, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))

	assert.ErrorIs(t, s.Edit("missing"), ErrRecordNotListed)

	require.NoError(t, s.Edit("b"))
	require.NoError(t, s.Form().SetField(types.FieldName, "Robert"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "Robert", recs[1].Name)
	assert.Equal(t, form.MessageUpdated, s.Message())
}

func TestSubmitAfterDeleteShowsFormMessage(t *testing.T) {
	s := New(types.SingleImage, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))
	require.NoError(t, s.Delete(context.Background(), "a"))

	f := s.Form()
	require.NoError(t, f.SetField(types.FieldName, "Cat"))
	require.NoError(t, f.SetField(types.FieldEmail, "c@x.com"))
	require.NoError(t, f.SetField(types.FieldPassword, "pw"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, form.MessageCreated, s.Message())
	assert.Len(t, s.Records(), 2)
}

func TestRenderTable(t *testing.T) {
	s := New(types.MultipleImageContent, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "CONTENT")
	assert.Contains(t, out, "http://img/1, http://img/2")
	assert.Contains(t, out, "No images")
	assert.Contains(t, out, "No content")
	assert.Contains(t, out, "hello")
}

func TestRenderEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecords(&buf, types.SingleImage, nil))
	assert.Equal(t, "No records found.\n", buf.String())
}

func TestRenderForm(t *testing.T) {
	s := New(types.MultipleImageContent, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))

	f := s.Form()
	require.NoError(t, f.SetField(types.FieldPassword, "secret"))
	require.NoError(t, f.SetFileAt(0, crudclient.BytesAttachment("cat.png", []byte("x"))))

	var buf bytes.Buffer
	require.NoError(t, s.RenderForm(&buf))
	out := buf.String()
	assert.Contains(t, out, "Creating")
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "cat.png")
	assert.Contains(t, out, "content[0]")

	require.NoError(t, s.Edit("a"))
	buf.Reset()
	require.NoError(t, s.RenderForm(&buf))
	assert.Contains(t, buf.String(), "Editing")
	assert.Contains(t, buf.String(), "Ann")
}

func TestResetAfterDeleteAndSubmitClearsMessage(t *testing.T) {
	s := New(types.SingleImage, &fakeAPI{records: twoRecords()})
	require.NoError(t, s.Mount(context.Background()))
	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, MessageDeleted, s.Message())

	f := s.Form()
	require.NoError(t, f.SetField(types.FieldName, "Cat"))
	require.NoError(t, f.SetField(types.FieldEmail, "c@x.com"))
	require.NoError(t, f.SetField(types.FieldPassword, "pw"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.MessageCreated, s.Message())

	f.Reset()
	assert.Empty(t, s.Message())

	require.NoError(t, s.Delete(context.Background(), "b"))
	f.Reset()
	assert.Empty(t, s.Message())
}

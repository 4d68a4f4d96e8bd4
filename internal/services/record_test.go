package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jjudge-oj/imageforms/internal/storage"
	"github.com/jjudge-oj/imageforms/internal/store"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []types.RecordEvent
}

func (r *recordedEvents) Publish(_ context.Context, evt types.RecordEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordedEvents) kinds() []types.RecordEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.RecordEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type failingRepo struct {
	*store.MemoryRecordRepository
}

func (failingRepo) Update(context.Context, types.StoredRecord) (types.StoredRecord, error) {
	return types.StoredRecord{}, errors.New("db down")
}

func newTestService() (*RecordService, *store.MemoryRecordRepository, *storage.MemoryStorage, *recordedEvents) {
	repo := store.NewMemoryRecordRepository()
	objects := storage.NewMemoryStorage("test")
	events := &recordedEvents{}
	return NewRecordService(repo, storage.NewStorage(objects), events, "http://files.local/"), repo, objects, events
}

func png(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n" + name)}
}

func TestCreateStoresImagesAndHashesPassword(t *testing.T) {
	svc, repo, objects, events := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, types.MultipleImageContent, RecordInput{
		Name:     "Ann",
		Email:    "a@x.com",
		Password: "secret",
		Images:   []Upload{png("a.png"), png("b.png")},
		Content:  []string{"one", "two"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	require.Len(t, rec.Images, 2)
	assert.True(t, strings.HasPrefix(rec.Images[0], "http://files.local/files/images/content/"), rec.Images[0])
	assert.Equal(t, []string{"one", "two"}, rec.Content)
	assert.Equal(t, 2, objects.Len())

	stored, err := repo.Get(ctx, "content", rec.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	ok, err := svc.checkPassword(ctx, types.MultipleImageContent, rec.ID, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []types.RecordEventType{types.RecordCreated}, events.kinds())
}

func TestSingleImageView(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, types.SingleImage, RecordInput{Name: "Ann", Email: "a@x.com", Password: "pw", Images: []Upload{png("a.png")}, Content: []string{"ignored"}})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Image)
	assert.Nil(t, rec.Images)
	assert.Nil(t, rec.Content)

	bare, err := svc.Create(ctx, types.SingleImage, RecordInput{Name: "Bob", Email: "b@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, bare.Image)

	list, err := svc.List(ctx, types.SingleImage)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, rec.ID, list[0].ID)
	assert.Equal(t, bare.ID, list[1].ID)
}

func TestUpdateKeepsUnprovidedFields(t *testing.T) {
	svc, _, objects, events := newTestService()
	ctx := context.Background()
	c := types.MultipleImageContent

	created, err := svc.Create(ctx, c, RecordInput{Name: "Ann", Email: "a@x.com", Password: "old", Images: []Upload{png("a.png")}, Content: []string{"keep"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c, created.ID, RecordInput{Name: "Anna", Email: "anna@x.com"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Anna", updated.Name)
	assert.Equal(t, created.Images, updated.Images)
	assert.Equal(t, []string{"keep"}, updated.Content)
	ok, err := svc.checkPassword(ctx, c, created.ID, "old")
	require.NoError(t, err)
	assert.True(t, ok)

	replaced, err := svc.Update(ctx, c, created.ID, RecordInput{Name: "Anna", Email: "anna@x.com", Password: "new", Images: []Upload{png("b.png"), png("c.png")}, Content: []string{"fresh"}})
	require.NoError(t, err)
	require.Len(t, replaced.Images, 2)
	assert.NotContains(t, replaced.Images, created.Images[0])
	assert.Equal(t, []string{"fresh"}, replaced.Content)
	assert.Equal(t, 2, objects.Len(), "old image deleted")
	ok, err = svc.checkPassword(ctx, c, created.ID, "new")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Update(ctx, c, "missing", RecordInput{Name: "x", Email: "x@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, []types.RecordEventType{types.RecordCreated, types.RecordUpdated, types.RecordUpdated}, events.kinds())
}

func TestUpdateFailureRemovesNewImages(t *testing.T) {
	repo := store.NewMemoryRecordRepository()
	objects := storage.NewMemoryStorage("test")
	ctx := context.Background()

	seed := NewRecordService(repo, storage.NewStorage(objects), nil, "")
	created, err := seed.Create(ctx, types.MultipleImage, RecordInput{Name: "Ann", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	svc := NewRecordService(failingRepo{repo}, storage.NewStorage(objects), nil, "")
	_, err = svc.Update(ctx, types.MultipleImage, created.ID, RecordInput{Name: "Ann", Email: "a@x.com", Images: []Upload{png("a.png")}})
	require.Error(t, err)
	assert.Equal(t, 0, objects.Len())
}

func TestDeleteRemovesImages(t *testing.T) {
	svc, _, objects, events := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, types.MultipleImage, RecordInput{Name: "Ann", Email: "a@x.com", Password: "pw", Images: []Upload{png("a.png")}})
	require.NoError(t, err)
	require.Equal(t, 1, objects.Len())

	require.NoError(t, svc.Delete(ctx, types.MultipleImage, created.ID))
	assert.Equal(t, 0, objects.Len())
	assert.ErrorIs(t, svc.Delete(ctx, types.MultipleImage, created.ID), store.ErrNotFound)

	_, err = svc.Get(ctx, types.MultipleImage, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []types.RecordEventType{types.RecordCreated, types.RecordDeleted}, events.kinds())
}

func TestCollectionsAreIsolated(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, types.MultipleImage, RecordInput{Name: "Ann", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, types.MultipleImageContent, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := svc.List(ctx, types.SingleImage)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Package screen implements the generic CRUD screen: a record list, a form
// and the delete action, all bound to one collection and one endpoint.
package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/form"
	"github.com/jjudge-oj/imageforms/internal/liststore"
	"github.com/jjudge-oj/imageforms/types"
)

const (
	MessageDeleted      = "Record deleted successfully!"
	MessageDeleteFailed = "Error deleting record. Please try again."
	MessageLoadFailed   = "Error loading records."
)

// ErrRecordNotListed is returned by Edit for ids missing from the list.
var ErrRecordNotListed = errors.New("record is not in the list")

// API is the set of calls a screen makes against its endpoint.
type API interface {
	List(ctx context.Context) ([]types.Record, error)
	Create(ctx context.Context, payload crudclient.Payload) (types.Record, error)
	Update(ctx context.Context, id string, payload crudclient.Payload) (types.Record, error)
	Remove(ctx context.Context, id string) error
}

// Screen is one mounted CRUD screen.
type Screen struct {
	collection types.Collection
	api        API
	list       *liststore.Store
	form       *form.Controller
	logTags    log.Fields

	mu      sync.Mutex
	loadErr error
	mounted bool
}

// New builds an unmounted screen for collection backed by api.
func New(collection types.Collection, api API) *Screen {
	list := liststore.New()
	return &Screen{
		collection: collection,
		api:        api,
		list:       list,
		form:       form.NewController(collection, api, list),
		logTags:    log.Fields{"module": "screen", "component": collection.Name},
	}
}

// Mount fetches the record list. A failed fetch leaves the list empty;
// the error is kept for LoadError and also returned.
func (s *Screen) Mount(ctx context.Context) error {
	err := s.list.Initialize(ctx, s.api)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.loadErr = err
	if err != nil {
		log.WithFields(s.logTags).WithError(err).Error("Error fetching records")
		return fmt.Errorf("mount %s: %w", s.collection.Name, err)
	}
	log.WithFields(s.logTags).WithField("count", s.list.Len()).Debug("Records loaded")
	return nil
}

// Collection returns the schema of the screen.
func (s *Screen) Collection() types.Collection {
	return s.collection
}

// Form returns the form controller of the screen.
func (s *Screen) Form() *form.Controller {
	return s.form
}

// Records returns the records currently listed.
func (s *Screen) Records() []types.Record {
	return s.list.Records()
}

// Mounted reports whether Mount has run.
func (s *Screen) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// LoadError returns the error of the last list fetch, if any.
func (s *Screen) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Edit makes the listed record with the given id the form's edit target.
func (s *Screen) Edit(id string) error {
	rec, ok := s.list.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotListed, id)
	}
	s.form.BeginEdit(rec)
	return nil
}

// Delete removes the record on the server and then from the list. On
// failure the list is left as it was.
func (s *Screen) Delete(ctx context.Context, id string) error {
	logger := log.WithFields(s.logTags).WithField("id", id)

	if err := s.api.Remove(ctx, id); err != nil {
		logger.WithError(err).Error("Error deleting record")
		s.form.SetMessage(MessageDeleteFailed)
		return err
	}
	s.list.RemoveByID(id)
	s.form.SetMessage(MessageDeleted)
	logger.Debug("Record deleted")
	return nil
}

// Submit submits the form. See form.Controller.Submit.
func (s *Screen) Submit(ctx context.Context) (types.Record, error) {
	return s.form.Submit(ctx)
}

// Message returns the latest user-facing message: the outcome of the most
// recent delete or submission, or the load failure when there is none.
func (s *Screen) Message() string {
	if msg := s.form.Message(); msg != "" {
		return msg
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return MessageLoadFailed
	}
	return ""
}

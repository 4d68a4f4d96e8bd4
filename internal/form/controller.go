// Package form holds the draft state of a record form and submits it as a
// multipart create or update call.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/liststore"
	"github.com/jjudge-oj/imageforms/types"
)

const (
	MessageCreated = "Record created successfully!"
	MessageUpdated = "Record updated successfully!"
	MessageFailed  = "Error creating/updating record. Please try again."
)

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("submission already in progress")

	// ErrUnknownField is returned by SetField for names other than
	// name, email and password.
	ErrUnknownField = errors.New("unknown field")

	// ErrNotSupported is returned when an operation does not apply to the
	// form's collection, e.g. adding content to a single-image form.
	ErrNotSupported = errors.New("not supported by this form")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// Backend performs the create and update calls of a form.
type Backend interface {
	Create(ctx context.Context, payload crudclient.Payload) (types.Record, error)
	Update(ctx context.Context, id string, payload crudclient.Payload) (types.Record, error)
}

// Controller owns the draft of one screen. At most one submission runs at a
// time; the draft may still be edited while it is in flight.
type Controller struct {
	mu         sync.Mutex
	collection types.Collection
	backend    Backend
	list       *liststore.Store
	validate   *validator.Validate
	logTags    log.Fields

	draft   Draft
	editID  string
	busy    bool
	message string
}

// NewController returns a controller with an empty draft. Successful
// submissions are patched into list.
func NewController(collection types.Collection, backend Backend, list *liststore.Store) *Controller {
	return &Controller{
		collection: collection,
		backend:    backend,
		list:       list,
		validate:   validator.New(),
		logTags:    log.Fields{"module": "form", "component": "controller", "collection": collection.Name},
		draft:      emptyDraft(),
	}
}

// Collection returns the schema the form is built for.
func (c *Controller) Collection() types.Collection {
	return c.collection
}

// SetField sets one of the text fields: name, email or password.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case types.FieldName:
		c.draft.Name = value
	case types.FieldEmail:
		c.draft.Email = value
	case types.FieldPassword:
		c.draft.Password = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// SetImage sets the attachment of a single-image form. A nil file clears it.
func (c *Controller) SetImage(file *crudclient.Attachment) error {
	if c.collection.MultipleImages {
		return fmt.Errorf("single image: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Image = file
	return nil
}

// SetFileAt stores file in slot i. A nil file empties the slot.
func (c *Controller) SetFileAt(i int, file *crudclient.Attachment) error {
	if !c.collection.MultipleImages {
		return fmt.Errorf("file slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Files.Set(i, file)
}

// AddFileSlot appends an empty file slot and returns its index.
func (c *Controller) AddFileSlot() (int, error) {
	if !c.collection.MultipleImages {
		return 0, fmt.Errorf("file slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Files.Add(), nil
}

// RemoveFileSlot deletes file slot i; later slots are renumbered.
func (c *Controller) RemoveFileSlot(i int) error {
	if !c.collection.MultipleImages {
		return fmt.Errorf("file slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Files.Remove(i)
}

// SetContentAt stores text in content slot i.
func (c *Controller) SetContentAt(i int, text string) error {
	if !c.collection.Content {
		return fmt.Errorf("content slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Content.Set(i, text)
}

// AddContentSlot appends an empty content slot and returns its index.
func (c *Controller) AddContentSlot() (int, error) {
	if !c.collection.Content {
		return 0, fmt.Errorf("content slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Content.Add(), nil
}

// RemoveContentSlot deletes content slot i; later slots are renumbered.
func (c *Controller) RemoveContentSlot(i int) error {
	if !c.collection.Content {
		return fmt.Errorf("content slots: %w", ErrNotSupported)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Content.Remove(i)
}

// BeginEdit loads rec into the draft and makes it the edit target. The
// password is blanked and attachments start empty: existing images can
// only be replaced, not edited.
func (c *Controller) BeginEdit(rec types.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = emptyDraft()
	c.draft.Name = rec.Name
	c.draft.Email = rec.Email
	c.editID = rec.ID
}

// Reset returns the form to its initial state with no edit target.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = emptyDraft()
	c.editID = ""
	c.message = ""
}

// SetMessage replaces the outcome message. Screens report delete outcomes
// through it so that the latest action, whichever it was, is shown.
func (c *Controller) SetMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = msg
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Editing returns the id of the record being edited, if any.
func (c *Controller) Editing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editID, c.editID != ""
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Message returns the outcome message of the last action.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Submit validates the draft and dispatches an update when an edit target
// is set, a create otherwise. On success the draft is reset, the edit
// target cleared and the list patched. On failure the draft is kept for
// resubmission and a generic message is set.
func (c *Controller) Submit(ctx context.Context) (types.Record, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return types.Record{}, ErrBusy
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return types.Record{}, err
	}
	c.busy = true
	editID := c.editID
	payload := c.draft.payload(c.collection)
	c.mu.Unlock()

	var (
		rec types.Record
		err error
	)
	if editID != "" {
		rec, err = c.backend.Update(ctx, editID, payload)
	} else {
		rec, err = c.backend.Create(ctx, payload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	logger := log.WithFields(c.logTags)
	if err != nil {
		logger.WithError(err).Error("Error submitting form")
		c.message = MessageFailed
		return types.Record{}, err
	}

	if editID != "" {
		if !c.list.ReplaceByID(editID, rec) {
			logger.WithField("id", editID).Warn("Updated record is not in the list")
		}
		c.message = MessageUpdated
	} else {
		c.list.Append(rec)
		c.message = MessageCreated
	}
	logger.WithField("id", rec.ID).Debug("Form submitted")

	c.draft = emptyDraft()
	c.editID = ""
	return rec, nil
}

// Validate checks the draft the way Submit does, without submitting it.
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() error {
	var fields []string
	if err := c.validate.Struct(c.draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
	}
	if c.editID == "" && c.draft.Password == "" {
		fields = append(fields, types.FieldPassword)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

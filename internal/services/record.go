package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/jjudge-oj/imageforms/internal/storage"
	"github.com/jjudge-oj/imageforms/types"
	"golang.org/x/crypto/bcrypt"
)

// RecordRepository defines persistence operations for records.
type RecordRepository interface {
	List(ctx context.Context, collection string) ([]types.StoredRecord, error)
	Get(ctx context.Context, collection, id string) (types.StoredRecord, error)
	Create(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error)
	Update(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error)
	Delete(ctx context.Context, collection, id string) error
}

// EventPublisher sends record change events.
type EventPublisher interface {
	Publish(ctx context.Context, evt types.RecordEvent) error
}

// Upload is an uploaded image.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RecordInput holds the parsed fields of a create or update form.
type RecordInput struct {
	Name     string
	Email    string
	Password string
	Images   []Upload
	Content  []string
}

// RecordService encapsulates record use-cases.
type RecordService struct {
	repo      RecordRepository
	storage   *storage.Storage
	events    EventPublisher
	publicURL string
	logTags   log.Fields
}

// NewRecordService wires the service. events may be nil.
func NewRecordService(repo RecordRepository, store *storage.Storage, events EventPublisher, publicURL string) *RecordService {
	return &RecordService{
		repo:      repo,
		storage:   store,
		events:    events,
		publicURL: strings.TrimRight(publicURL, "/"),
		logTags:   log.Fields{"module": "services", "component": "records"},
	}
}

// URLFor returns the public URL of a stored image.
func (s *RecordService) URLFor(key string) string {
	return s.publicURL + "/files/" + key
}

func (s *RecordService) List(ctx context.Context, c types.Collection) ([]types.Record, error) {
	stored, err := s.repo.List(ctx, c.Path)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, 0, len(stored))
	for _, rec := range stored {
		out = append(out, c.View(rec, s.URLFor))
	}
	return out, nil
}

func (s *RecordService) Get(ctx context.Context, c types.Collection, id string) (types.Record, error) {
	rec, err := s.repo.Get(ctx, c.Path, id)
	if err != nil {
		return types.Record{}, err
	}
	return c.View(rec, s.URLFor), nil
}

// Create stores the images, hashes the password and persists the record.
func (s *RecordService) Create(ctx context.Context, c types.Collection, in RecordInput) (types.Record, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return types.Record{}, err
	}
	keys, err := s.putImages(ctx, c, in.Images)
	if err != nil {
		return types.Record{}, err
	}

	rec := types.StoredRecord{
		ID:           uuid.NewString(),
		Collection:   c.Path,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		ImageKeys:    keys,
	}
	if c.Content {
		rec.Content = in.Content
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.deleteImages(ctx, keys)
		return types.Record{}, err
	}

	s.publish(ctx, types.RecordCreated, c, created.ID)
	return c.View(created, s.URLFor), nil
}

// Update changes name and email. The password is changed only when a new
// one is given; images and content are replaced only when new ones are
// provided.
func (s *RecordService) Update(ctx context.Context, c types.Collection, id string, in RecordInput) (types.Record, error) {
	current, err := s.repo.Get(ctx, c.Path, id)
	if err != nil {
		return types.Record{}, err
	}

	next := current
	next.Name = in.Name
	next.Email = in.Email
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return types.Record{}, err
		}
		next.PasswordHash = hash
	}
	if c.Content && len(in.Content) > 0 {
		next.Content = in.Content
	}

	var replaced []string
	newImages := len(in.Images) > 0
	if newImages {
		keys, err := s.putImages(ctx, c, in.Images)
		if err != nil {
			return types.Record{}, err
		}
		replaced = current.ImageKeys
		next.ImageKeys = keys
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		if newImages {
			s.deleteImages(ctx, next.ImageKeys)
		}
		return types.Record{}, err
	}
	s.deleteImages(ctx, replaced)

	s.publish(ctx, types.RecordUpdated, c, updated.ID)
	return c.View(updated, s.URLFor), nil
}

// Delete removes the record and, best-effort, its images.
func (s *RecordService) Delete(ctx context.Context, c types.Collection, id string) error {
	current, err := s.repo.Get(ctx, c.Path, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.Path, id); err != nil {
		return err
	}
	s.deleteImages(ctx, current.ImageKeys)
	s.publish(ctx, types.RecordDeleted, c, id)
	return nil
}

// OpenImage opens a stored image for streaming.
func (s *RecordService) OpenImage(ctx context.Context, key string) (storage.Object, error) {
	return s.storage.Get(ctx, key)
}

// checkPassword reports whether password matches the stored hash of the
// record.
func (s *RecordService) checkPassword(ctx context.Context, c types.Collection, id, password string) (bool, error) {
	rec, err := s.repo.Get(ctx, c.Path, id)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) == nil, nil
}

func (s *RecordService) putImages(ctx context.Context, c types.Collection, uploads []Upload) ([]string, error) {
	keys := make([]string, 0, len(uploads))
	for _, up := range uploads {
		key := storage.ImageKey(c.Path, up.Filename)
		if err := s.storage.Put(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), up.ContentType); err != nil {
			s.deleteImages(ctx, keys)
			return nil, fmt.Errorf("store image %q: %w", up.Filename, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *RecordService) deleteImages(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.WithFields(s.logTags).WithError(err).WithField("key", key).Warn("Failed to delete image")
		}
	}
}

func (s *RecordService) publish(ctx context.Context, typ types.RecordEventType, c types.Collection, id string) {
	if s.events == nil {
		return
	}
	evt := types.RecordEvent{Type: typ, Collection: c.Path, RecordID: id, OccurredAt: time.Now().UTC()}
	if err := s.events.Publish(ctx, evt); err != nil {
		log.WithFields(s.logTags).WithError(err).WithField("record", id).Error("Failed to publish record event")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

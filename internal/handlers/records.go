package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jjudge-oj/imageforms/internal/services"
	"github.com/jjudge-oj/imageforms/internal/store"
	"github.com/jjudge-oj/imageforms/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 32 << 20
	maxPasswordBytes   = 72
)

// RecordHandler provides HTTP handlers for the records of one collection.
type RecordHandler struct {
	collection    types.Collection
	recordService *services.RecordService
	validate      *validator.Validate
	logTags       log.Fields
}

// NewRecordHandler constructs a handler for collection.
func NewRecordHandler(collection types.Collection, recordService *services.RecordService) *RecordHandler {
	return &RecordHandler{
		collection:    collection,
		recordService: recordService,
		validate:      validator.New(),
		logTags:       log.Fields{"module": "handlers", "component": "records", "collection": collection.Path},
	}
}

// RecordRouter registers the record routes of collection on r.
func RecordRouter(r chi.Router, collection types.Collection, recordService *services.RecordService) {
	handler := NewRecordHandler(collection, recordService)

	r.Get("/", handler.ListRecords)
	// Older clients list from /new.
	r.Get("/new", handler.ListRecords)
	r.Post("/", handler.CreateRecord)
	r.Route("/{recordID}", func(r chi.Router) {
		r.Get("/", handler.GetRecord)
		r.Put("/", handler.UpdateRecord)
		r.Delete("/", handler.DeleteRecord)
	})
}

func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordService.List(r.Context(), h.collection)
	if err != nil {
		h.logError(err, "failed to list records")
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recordService.Get(r.Context(), h.collection, chi.URLParam(r, "recordID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		h.logError(err, "failed to fetch record")
		writeError(w, http.StatusInternalServerError, "failed to fetch record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRecordForm(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.recordService.Create(r.Context(), h.collection, req)
	if err != nil {
		h.logError(err, "failed to create record")
		writeError(w, http.StatusInternalServerError, "failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, types.RecordResponse{User: created})
}

func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRecordForm(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.recordService.Update(r.Context(), h.collection, chi.URLParam(r, "recordID"), req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		h.logError(err, "failed to update record")
		writeError(w, http.StatusInternalServerError, "failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, types.RecordResponse{User: updated})
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.recordService.Delete(r.Context(), h.collection, chi.URLParam(r, "recordID")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		h.logError(err, "failed to delete record")
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) logError(err error, msg string) {
	log.WithFields(h.logTags).WithError(err).Error(msg)
}

func (h *RecordHandler) parseRecordForm(r *http.Request, creating bool) (services.RecordInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.RecordInput{}, errors.New("invalid multipart form")
	}

	name := strings.TrimSpace(r.FormValue(types.FieldName))
	if name == "" {
		return services.RecordInput{}, errors.New("name is required")
	}

	email := strings.TrimSpace(r.FormValue(types.FieldEmail))
	if err := h.validate.Var(email, "required,email"); err != nil {
		return services.RecordInput{}, errors.New("a valid email is required")
	}

	password := r.FormValue(types.FieldPassword)
	if creating && password == "" {
		return services.RecordInput{}, errors.New("password is required")
	}
	if len(password) > maxPasswordBytes {
		return services.RecordInput{}, fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}

	images, err := parseImages(r.MultipartForm, h.collection)
	if err != nil {
		return services.RecordInput{}, err
	}

	var content []string
	if h.collection.Content {
		for _, entry := range r.MultipartForm.Value[types.FieldContent] {
			if entry = strings.TrimSpace(entry); entry != "" {
				content = append(content, entry)
			}
		}
	}

	return services.RecordInput{
		Name:     name,
		Email:    email,
		Password: password,
		Images:   images,
		Content:  content,
	}, nil
}

func parseImages(form *multipart.Form, collection types.Collection) ([]services.Upload, error) {
	if form == nil {
		return nil, errors.New("missing form data")
	}

	files := form.File[collection.ImageField]
	if !collection.MultipleImages && len(files) > 1 {
		return nil, errors.New("only one image is allowed")
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		data, err := readFileLimited(file, maxImageBytes)
		_ = file.Close()
		if err != nil {
			return nil, err
		}

		mtype := mimetype.Detect(data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, fmt.Errorf("%s is not an image", fileHeader.Filename)
		}
		uploads = append(uploads, services.Upload{
			Filename:    fileHeader.Filename,
			ContentType: mtype.String(),
			Data:        data,
		})
	}
	return uploads, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

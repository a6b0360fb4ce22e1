package cv

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
	"cv-builder/resume/model"
	"cv-builder/resume/schema"
)

const (
	maxDocumentBody = 8 << 20
	// multipart framing on top of the photo itself
	maxPhotoBody = model.MaxPhotoBytes + 1<<20
)

// Handler wires CV routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type createBody struct {
	Title    string `json:"title" binding:"max=500"`
	Template string `json:"template"`
}

type attachBody struct {
	CVID         string `json:"cvId" binding:"required"`
	AssessmentID string `json:"assessmentId" binding:"required"`
}

// RegisterRoutes attaches CV endpoints to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cvs", h.list)
	rg.POST("/cvs", h.create)
	rg.POST("/cvs/save", h.save)
	rg.POST("/cvs/photo", h.uploadPhoto)
	rg.POST("/cvs/export/:format", h.exportBody)
	rg.POST("/cvs/cover-letter", h.coverLetter)
	rg.POST("/cvs/assessment-summary", h.attachAssessment)
	rg.GET("/cvs/:id", h.get)
	rg.DELETE("/cvs/:id", h.delete)
	rg.GET("/cvs/:id/export/:format", h.exportStored)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"cvs": items})
}

func (h *Handler) create(c *gin.Context) {
	var body createBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.ValidationFailed(c, "invalid cv request", respond.BindingErrors(err))
			return
		}
	}
	rec, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), body.Title, body.Template)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CVIDKey, rec.ID)
	respond.Success(c, http.StatusCreated, gin.H{"id": rec.ID, "cv": rec})
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), cvID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"cv": rec})
}

func (h *Handler) save(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	rec, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CVIDKey, rec.ID)
	respond.Success(c, http.StatusOK, gin.H{"id": rec.ID, "cv": rec})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), cvID(c)); err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"id": cvID(c)})
}

// cvID returns the :id path parameter and records it for the request log.
func cvID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.CVIDKey, id)
	return id
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBody)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		respond.ValidationFailed(c, "photo is required", []respond.FieldError{{Path: "photo", Message: "is required"}})
		return
	}
	if fileHeader.Size > model.MaxPhotoBytes {
		respond.ValidationFailed(c, "photo too large", []respond.FieldError{{Path: "photo", Message: "must be at most 2 MiB"}})
		return
	}
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		respond.ValidationFailed(c, "photo must be an image", []respond.FieldError{{Path: "photo", Message: "must be an image"}})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.ValidationFailed(c, "unable to read photo", []respond.FieldError{{Path: "photo", Message: "unreadable"}})
		return
	}
	defer file.Close()

	photo, err := h.Svc.UploadPhoto(c.Request.Context(), middleware.UserIDFromContext(c), fileHeader.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, gin.H{"photo": photo.Photo, "storageKey": photo.StorageKey})
}

func (h *Handler) exportBody(c *gin.Context) {
	format, err := ParseFormat(c.Param("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	raw, ok := readBody(c)
	if !ok {
		return
	}
	doc, err := Validate(raw)
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Svc.Export(c.Request.Context(), doc, format)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Binary(c, out.ContentType, out.Disposition(), out.Data)
}

func (h *Handler) exportStored(c *gin.Context) {
	format, err := ParseFormat(c.Param("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Svc.ExportStored(c.Request.Context(), middleware.UserIDFromContext(c), cvID(c), format)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Binary(c, out.ContentType, out.Disposition(), out.Data)
}

func (h *Handler) coverLetter(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	letter, err := h.Svc.CoverLetter(c.Request.Context(), middleware.UserIDFromContext(c), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	if strings.EqualFold(c.Query("format"), "html") {
		respond.Success(c, http.StatusOK, gin.H{"format": "html", "letter": letter.HTML()})
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"format": "text", "letter": letter.Text(), "paragraphs": letter.Paragraphs})
}

func (h *Handler) attachAssessment(c *gin.Context) {
	var body attachBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationFailed(c, "invalid request", respond.BindingErrors(err))
		return
	}
	rec, err := h.Svc.AttachAssessmentSummary(c.Request.Context(), middleware.UserIDFromContext(c), body.CVID, body.AssessmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CVIDKey, rec.ID)
	respond.Success(c, http.StatusOK, gin.H{"id": rec.ID, "cv": rec})
}

func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil)
			return nil, false
		}
		respond.ValidationFailed(c, "unable to read body", []respond.FieldError{{Path: "body", Message: "unreadable"}})
		return nil, false
	}
	return raw, true
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.ValidationFailed(c, "invalid cv", toFieldErrors(verr.Fields))
	case errors.Is(err, ErrInvalidInput):
		respond.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
	case errors.Is(err, ErrRender):
		respond.Error(c, http.StatusInternalServerError, "render_error", "failed to render document", nil)
	default:
		respond.Internal(c, "internal server error", err)
	}
}

func toFieldErrors(fields []schema.FieldError) []respond.FieldError {
	out := make([]respond.FieldError, len(fields))
	for i, f := range fields {
		out[i] = respond.FieldError{Path: f.Path, Message: f.Message}
	}
	return out
}

package cv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cv-builder/internal/shared/storage/object"
	"cv-builder/internal/shared/util"
	"cv-builder/resume/model"
)

// PhotoStore is the object store uploaded photos are written to.
type PhotoStore = object.Store

// UploadedPhoto is the result of UploadPhoto. Photo is a data URL that can
// be placed into personalInfo.photo.
type UploadedPhoto struct {
	Photo      string `json:"photo"`
	StorageKey string `json:"storageKey"`
}

// UploadPhoto checks that r holds an image of at most model.MaxPhotoBytes,
// stores it and returns it as a data URL. The CV itself is not modified.
func (s *Service) UploadPhoto(ctx context.Context, userID, fileName string, r io.Reader) (UploadedPhoto, error) {
	data, err := io.ReadAll(io.LimitReader(r, model.MaxPhotoBytes+1))
	if err != nil {
		return UploadedPhoto{}, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return UploadedPhoto{}, invalidField("photo", "is required")
	}
	if len(data) > model.MaxPhotoBytes {
		return UploadedPhoto{}, invalidField("photo", "must be at most 2 MiB")
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return UploadedPhoto{}, invalidField("photo", "must be an image")
	}
	if s.Photos == nil {
		return UploadedPhoto{}, fmt.Errorf("photo store not configured")
	}
	if clean, err := util.SanitizeFileName(fileName); err == nil {
		fileName = clean
	} else {
		fileName = "photo"
	}
	obj, err := s.Photos.Put(ctx, userID, fileName, mimeType, data)
	if err != nil {
		return UploadedPhoto{}, fmt.Errorf("store photo: %w", err)
	}
	subtype := strings.TrimPrefix(mimeType, "image/")
	return UploadedPhoto{Photo: model.PhotoDataURL(subtype, data), StorageKey: obj.Key}, nil
}

package web

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/imaging"
	"github.com/erazemk/resaledesk/internal/view"
)

// maxPhotosRequest caps the whole upload form.
const maxPhotosRequest = imaging.MaxUploadBytes

type photosPage struct {
	PageData
	Images   []client.ProcessedImage
	ZipURL   string
	Rejected []string
}

// PhotosPage handles GET /photos.
func (s *Server) PhotosPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "photos.html", &photosPage{
		PageData: s.page(w, r, "Photos", "photos", nil),
	})
}

// PhotosSubmit handles POST /photos. Each file is checked and downscaled
// locally, then the accepted ones are sent for background removal together.
func (s *Server) PhotosSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotosRequest)
	if err := r.ParseMultipartForm(maxPhotosRequest); err != nil {
		s.renderPhotos(w, r, http.StatusRequestEntityTooLarge, &view.Notice{
			Level:   view.NoticeError,
			Message: fmt.Sprintf("Upload is too large. The limit is %d MB.", maxPhotosRequest>>20),
		}, nil, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		s.renderPhotos(w, r, http.StatusBadRequest, &view.Notice{Level: view.NoticeError, Message: "Choose at least one photo."}, nil, nil)
		return
	}

	var (
		uploads  []client.Upload
		rejected []string
	)
	for _, fh := range files {
		photo, err := preparePhoto(fh)
		if err != nil {
			slog.Warn("photo rejected", "file", fh.Filename, "error", err)
			rejected = append(rejected, err.Error())
			continue
		}
		uploads = append(uploads, client.Upload{Filename: photo.Filename, Data: photo.Data})
	}
	if len(uploads) == 0 {
		s.renderPhotos(w, r, http.StatusBadRequest, &view.Notice{Level: view.NoticeError, Message: "None of the photos could be used."}, nil, rejected)
		return
	}

	b := s.backend(r)
	result, err := b.RemoveBackground(r.Context(), uploads)
	if err != nil {
		if s.needsLogin(w, r, err) {
			return
		}
		slog.Error("background removal failed", "error", err)
		s.renderPhotos(w, r, http.StatusBadGateway, &view.Notice{Level: view.NoticeError, Message: client.Describe(err)}, nil, rejected)
		return
	}

	for i := range result.Images {
		result.Images[i].URL = b.ResolveURL(result.Images[i].URL)
	}
	result.ZipURL = b.ResolveURL(result.ZipURL)

	msg := result.Message
	if msg == "" {
		msg = fmt.Sprintf("Processed %d photos.", len(result.Images))
	}
	slog.Info("backgrounds removed", "count", len(result.Images), "rejected", len(rejected))
	s.renderPhotos(w, r, http.StatusOK, &view.Notice{Level: view.NoticeSuccess, Message: msg}, result, rejected)
}

func (s *Server) renderPhotos(w http.ResponseWriter, r *http.Request, status int, notice *view.Notice, result *client.BackgroundResult, rejected []string) {
	data := &photosPage{
		PageData: s.page(w, r, "Photos", "photos", notice),
		Rejected: rejected,
	}
	if result != nil {
		data.Images = result.Images
		data.ZipURL = result.ZipURL
	}
	s.Templates.RenderStatus(w, status, "photos.html", data)
}

func preparePhoto(fh *multipart.FileHeader) (*imaging.Photo, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	photo, err := imaging.Prepare(fh.Filename, f)
	if err != nil {
		return nil, err
	}
	if photo.Resized {
		slog.Info("photo downscaled", "file", photo.Filename, "width", photo.Width, "height", photo.Height)
	}
	return photo, nil
}

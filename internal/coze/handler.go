package coze

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/saasfly/saasfly/internal/web"
)

// MaxUploadSize is the largest accepted image.
const MaxUploadSize = 5 << 20

var (
	allowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}
	sniffedTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

// API is what the handler needs from Client.
type API interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (*File, error)
	RunWorkflow(ctx context.Context, fileID string) (*Result, error)
}

// Handler exposes the upload and workflow endpoints.
type Handler struct {
	api API
}

// NewHandler creates the handler.
func NewHandler(api API) *Handler {
	return &Handler{api: api}
}

// Routes implements web.Handler.
func (h *Handler) Routes(r web.Router) {
	r.POST("/api/coze/upload", h.upload)
	r.POST("/api/coze/workflow", h.workflow)
}

type uploadResponse struct {
	Success bool       `json:"success"`
	Data    uploadData `json:"data"`
}

type uploadData struct {
	Code int   `json:"code"`
	Data *File `json:"data"`
}

func (h *Handler) upload(c web.Context) error {
	r := c.Request()
	// leave room for multipart framing around the file itself
	r.Body = http.MaxBytesReader(c.Response(), r.Body, MaxUploadSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.Error(http.StatusBadRequest, "File size too large. Maximum size is 5MB.")
		}
		return c.Error(http.StatusBadRequest, "No file provided")
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	contentType, ok := imageType(file, header)
	if !ok {
		return c.Error(http.StatusBadRequest, "Invalid file type. Only JPEG, JPG, PNG, and WEBP are allowed.")
	}
	if header.Size > MaxUploadSize {
		return c.Error(http.StatusBadRequest, "File size too large. Maximum size is 5MB.")
	}

	f, err := h.api.Upload(c, header.Filename, contentType, file)
	if err != nil {
		return web.ErrInternal("Failed to upload file to Coze", web.WithError(err))
	}
	return c.JSON(http.StatusOK, uploadResponse{Success: true, Data: uploadData{Code: 0, Data: f}})
}

// imageType checks both the declared type and the sniffed content and
// returns the sniffed type. It rewinds file.
func imageType(file multipart.File, header *multipart.FileHeader) (string, bool) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0]))
	if !slices.Contains(allowedTypes, declared) {
		return "", false
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", false
	}
	sniffed := http.DetectContentType(buf[:n])
	if !slices.Contains(sniffedTypes, sniffed) {
		return "", false
	}
	return sniffed, true
}

type workflowRequestBody struct {
	FileID string `json:"fileId"`
}

type workflowResponse struct {
	Success bool    `json:"success"`
	Data    *Result `json:"data"`
}

type workflowErrorResponse struct {
	Error    string `json:"error"`
	Code     int    `json:"code"`
	DebugURL string `json:"debug_url,omitempty"`
}

func (h *Handler) workflow(c web.Context) error {
	var in workflowRequestBody
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<16)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return c.Error(http.StatusBadRequest, "File ID is required")
	}
	if strings.TrimSpace(in.FileID) == "" {
		return c.Error(http.StatusBadRequest, "File ID is required")
	}

	res, err := h.api.RunWorkflow(c, in.FileID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Msg
			if msg == "" {
				msg = "Workflow execution failed"
			}
			return c.JSON(http.StatusBadRequest, workflowErrorResponse{Error: msg, Code: apiErr.Code, DebugURL: apiErr.DebugURL})
		}
		return web.ErrInternal("Failed to run workflow", web.WithError(err))
	}
	return c.JSON(http.StatusOK, workflowResponse{Success: true, Data: res})
}

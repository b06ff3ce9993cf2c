package coze_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasfly/saasfly/internal/coze"
	"github.com/saasfly/saasfly/internal/web"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeAPI struct {
	uploaded    []byte
	contentType string
	uploadErr   error
	result      *coze.Result
	workflowErr error
}

func (f *fakeAPI) Upload(_ context.Context, _, contentType string, r io.Reader) (*coze.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded, _ = io.ReadAll(r)
	f.contentType = contentType
	return &coze.File{ID: "file_1", Bytes: int64(len(f.uploaded))}, nil
}

func (f *fakeAPI) RunWorkflow(_ context.Context, _ string) (*coze.Result, error) {
	return f.result, f.workflowErr
}

func multipartBody(t *testing.T, field, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="img.bin"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	t.Parallel()

	big := append(append([]byte{}, pngHeader...), make([]byte, coze.MaxUploadSize)...)

	tests := []struct {
		name        string
		field       string
		contentType string
		content     []byte
		uploadErr   error
		code        int
		body        string
	}{
		{name: "png", field: "file", contentType: "image/png", content: pngHeader, code: 200,
			body: `{"success":true,"data":{"code":0,"data":{"id":"file_1","bytes":16,"file_name":"","created_at":0}}}`},
		{name: "jpg alias", field: "file", contentType: "image/jpg", content: []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), code: 200,
			body: `{"success":true,"data":{"code":0,"data":{"id":"file_1","bytes":10,"file_name":"","created_at":0}}}`},
		{name: "no file", field: "other", contentType: "image/png", content: pngHeader, code: 400, body: `{"error":"No file provided"}`},
		{name: "declared gif", field: "file", contentType: "image/gif", content: []byte("GIF89a"), code: 400,
			body: `{"error":"Invalid file type. Only JPEG, JPG, PNG, and WEBP are allowed."}`},
		{name: "disguised text", field: "file", contentType: "image/png", content: []byte("hello world"), code: 400,
			body: `{"error":"Invalid file type. Only JPEG, JPG, PNG, and WEBP are allowed."}`},
		{name: "too large", field: "file", contentType: "image/png", content: big, code: 400,
			body: `{"error":"File size too large. Maximum size is 5MB."}`},
		{name: "upstream failure", field: "file", contentType: "image/png", content: pngHeader, uploadErr: errors.New("x"), code: 500,
			body: `{"error":"Failed to upload file to Coze"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{uploadErr: tt.uploadErr}
			app := web.New(web.WithHandlers(coze.NewHandler(api)))

			body, ct := multipartBody(t, tt.field, tt.contentType, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/coze/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			if tt.code == 200 {
				assert.Equal(t, tt.content, api.uploaded, "file is forwarded from the first byte")
				assert.Equal(t, "image/", api.contentType[:6])
			}
		})
	}
}

func TestHandler_Workflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		api  *fakeAPI
		code int
		resp string
	}{
		{
			name: "ok", body: `{"fileId":"file_1"}`,
			api:  &fakeAPI{result: &coze.Result{Prompt: "a cat", Usage: &coze.Usage{TokenCount: 3}, DebugURL: "https://d"}},
			code: 200,
			resp: `{"success":true,"data":{"prompt":"a cat","usage":{"input_count":0,"output_count":0,"token_count":3},"debug_url":"https://d"}}`,
		},
		{name: "missing id", body: `{}`, api: &fakeAPI{}, code: 400, resp: `{"error":"File ID is required"}`},
		{name: "bad json", body: `{`, api: &fakeAPI{}, code: 400, resp: `{"error":"File ID is required"}`},
		{
			name: "api code", body: `{"fileId":"f"}`,
			api:  &fakeAPI{workflowErr: &coze.APIError{Code: 4000, Msg: "bad parameter", DebugURL: "https://d"}},
			code: 400, resp: `{"error":"bad parameter","code":4000,"debug_url":"https://d"}`,
		},
		{
			name: "api code without message", body: `{"fileId":"f"}`,
			api:  &fakeAPI{workflowErr: &coze.APIError{Code: 5000}},
			code: 400, resp: `{"error":"Workflow execution failed","code":5000}`,
		},
		{
			name: "transport failure", body: `{"fileId":"f"}`,
			api:  &fakeAPI{workflowErr: coze.ErrBadStatus},
			code: 500, resp: `{"error":"Failed to run workflow"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := web.New(web.WithHandlers(coze.NewHandler(tt.api)))

			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/coze/workflow", strings.NewReader(tt.body)))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.resp, rec.Body.String())
		})
	}
}

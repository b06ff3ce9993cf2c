// Package coze proxies image uploads and prompt-generation workflow runs to
// the Coze open API.
//
// Client talks to the upstream API; Handler exposes the two public endpoints
// used by the image-to-prompt page:
//
//	POST /api/coze/upload    multipart "file" -> uploaded file metadata
//	POST /api/coze/workflow  {"fileId": "..."} -> generated prompt
package coze

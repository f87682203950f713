package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/svcctx"
)

// ReplaceEndpoint handles POST /api/sessions/{id}/pages/{index}/image with a
// multipart file upload. The uploaded image overwrites whatever the page
// holds, including a render that lands afterward.
type ReplaceEndpoint struct{}

var _ api.Endpoint = (*ReplaceEndpoint)(nil)

func (e *ReplaceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/pages/{index}/image", e.handler
}

func (e *ReplaceEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Replace a page image
//	@Description	Upload an image that unconditionally becomes the page's artifact
//	@Tags			pages
//	@Accept			mpfd
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"Page index (0 = cover)"
//	@Param			file	formData	file	true	"Replacement image"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/image [post]
func (e *ReplaceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	const maxMemory = 32 << 20 // 32MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mediaTypeForName(header.Filename)
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	sess, err := engine.Replace(r.Context(), r.PathValue("id"), index, data, mediaType)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSession(sess))
}

func mediaTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func (e *ReplaceEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <session-id> <index> <image-file>",
		Short: "Replace a page image with a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[2], err)
			}
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/image"
			var resp Session
			if err := getClient().PostFile(cmd.Context(), path, "file", filepath.Base(args[2]), data, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

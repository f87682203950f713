package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/svcctx"
)

// UpdateTextRequest is the request body for updating page body text.
type UpdateTextRequest struct {
	Text string `json:"text"`
}

// UpdateTextEndpoint handles PATCH /api/sessions/{id}/pages/{index}/text.
type UpdateTextEndpoint struct{}

var _ api.Endpoint = (*UpdateTextEndpoint)(nil)

func (e *UpdateTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/sessions/{id}/pages/{index}/text", e.handler
}

func (e *UpdateTextEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Update page body text
//	@Description	Replace the caption text for one page. Empty clears the caption. Does not touch the page image.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			index	path		int					true	"Page index (0 = cover)"
//	@Param			request	body		UpdateTextRequest	true	"New body text"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/text [patch]
func (e *UpdateTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	id := r.PathValue("id")
	if err := engine.UpdateText(r.Context(), id, index, req.Text); err != nil {
		writeEngineError(w, err)
		return
	}

	sess, err := engine.Session(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSession(sess))
}

func (e *UpdateTextEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "set-text <session-id> <index> <text>",
		Short: "Update page body text",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/text"
			var resp Session
			if err := getClient().Patch(cmd.Context(), path, UpdateTextRequest{Text: args[2]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

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

// UpdatePromptRequest is the request body for updating a page prompt.
type UpdatePromptRequest struct {
	Prompt string `json:"prompt"`
}

// UpdatePromptEndpoint handles PATCH /api/sessions/{id}/pages/{index}/prompt.
type UpdatePromptEndpoint struct{}

var _ api.Endpoint = (*UpdatePromptEndpoint)(nil)

func (e *UpdatePromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/sessions/{id}/pages/{index}/prompt", e.handler
}

func (e *UpdatePromptEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Update a page prompt
//	@Description	Replace the stored prompt for one page. Does not trigger generation.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			index	path		int					true	"Page index (0 = cover)"
//	@Param			request	body		UpdatePromptRequest	true	"New prompt"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/prompt [patch]
func (e *UpdatePromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdatePromptRequest
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
	if err := engine.UpdatePrompt(r.Context(), id, index, req.Prompt); err != nil {
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

func (e *UpdatePromptEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "set-prompt <session-id> <index> <prompt>",
		Short: "Update a page prompt",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/prompt"
			var resp Session
			if err := getClient().Patch(cmd.Context(), path, UpdatePromptRequest{Prompt: args[2]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

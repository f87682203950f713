package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/svcctx"
	"github.com/jackzampolin/easel/internal/workflow"
)

// EditRequest is the request body for editing a page illustration.
type EditRequest struct {
	// Prompt, when set, replaces the stored prompt for this render only.
	Prompt string `json:"prompt,omitempty"`
	// WindowSize overrides how many prior pages feed the render as context.
	WindowSize int `json:"window_size,omitempty"`
}

// EditEndpoint handles POST /api/sessions/{id}/pages/{index}/edit.
type EditEndpoint struct{}

var _ api.Endpoint = (*EditEndpoint)(nil)

func (e *EditEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/pages/{index}/edit", e.handler
}

func (e *EditEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Edit a page illustration
//	@Description	Re-render a page anchored on its current image so the revision stays visually close
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session ID"
//	@Param			index	path		int			true	"Page index (0 = cover)"
//	@Param			request	body		EditRequest	false	"Edit options"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/edit [post]
func (e *EditEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	sess, err := engine.Edit(r.Context(), &workflow.EditInput{
		SessionID:      r.PathValue("id"),
		Index:          index,
		PromptOverride: req.Prompt,
		WindowSize:     req.WindowSize,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSession(sess))
}

func (e *EditEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var req EditRequest
	cmd := &cobra.Command{
		Use:   "edit <session-id> <index>",
		Short: "Edit a page illustration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/edit"
			var resp Session
			if err := getClient().Post(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "One-off prompt for this render")
	cmd.Flags().IntVar(&req.WindowSize, "window", 0, "Prior pages to feed as context (default from server)")
	return cmd
}

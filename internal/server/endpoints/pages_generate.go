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

// GenerateRequest is the request body for generating a page illustration.
type GenerateRequest struct {
	// Wait blocks the response until the render lands. The default returns
	// immediately and renders in the background.
	Wait bool `json:"wait,omitempty"`
	// Force regenerates a page that already has an image.
	Force bool `json:"force,omitempty"`
	// WindowSize overrides how many prior pages feed the render as context.
	WindowSize int `json:"window_size,omitempty"`
}

// GenerateEndpoint handles POST /api/sessions/{id}/pages/{index}/generate.
type GenerateEndpoint struct{}

var _ api.Endpoint = (*GenerateEndpoint)(nil)

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/pages/{index}/generate", e.handler
}

func (e *GenerateEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Generate a page illustration
//	@Description	Render the page image from its stored prompt plus prior pages as style context
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			index	path		int				true	"Page index (0 = cover)"
//	@Param			request	body		GenerateRequest	false	"Generation options"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/generate [post]
func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	sess, err := engine.Generate(r.Context(), &workflow.GenerateInput{
		SessionID:  r.PathValue("id"),
		Index:      index,
		Wait:       req.Wait,
		Force:      req.Force,
		WindowSize: req.WindowSize,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	status := http.StatusOK
	if !req.Wait {
		status = http.StatusAccepted
	}
	writeJSON(w, status, toSession(sess))
}

func (e *GenerateEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var req GenerateRequest
	cmd := &cobra.Command{
		Use:   "generate <session-id> <index>",
		Short: "Generate a page illustration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/generate"
			var resp Session
			if err := getClient().Post(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&req.Wait, "wait", false, "Block until the render lands")
	cmd.Flags().BoolVar(&req.Force, "force", false, "Regenerate an already populated page")
	cmd.Flags().IntVar(&req.WindowSize, "window", 0, "Prior pages to feed as context (default from server)")
	return cmd
}

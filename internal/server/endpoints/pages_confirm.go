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
)

// ConfirmRequest is the request body for confirming a page.
type ConfirmRequest struct {
	Confirmed *bool `json:"confirmed,omitempty"` // defaults to true
}

// ConfirmEndpoint handles POST /api/sessions/{id}/pages/{index}/confirm.
type ConfirmEndpoint struct{}

var _ api.Endpoint = (*ConfirmEndpoint)(nil)

func (e *ConfirmEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/pages/{index}/confirm", e.handler
}

func (e *ConfirmEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Confirm a page
//	@Description	Mark a page as reviewed. Idempotent; send confirmed=false to unconfirm.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			index	path		int				true	"Page index (0 = cover)"
//	@Param			request	body		ConfirmRequest	false	"Confirmation state"
//	@Success		200		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/pages/{index}/confirm [post]
func (e *ConfirmEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	confirmed := true
	if req.Confirmed != nil {
		confirmed = *req.Confirmed
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	id := r.PathValue("id")
	if err := engine.Confirm(r.Context(), id, index, confirmed); err != nil {
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

func (e *ConfirmEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var unconfirm bool
	cmd := &cobra.Command{
		Use:   "confirm <session-id> <index>",
		Short: "Mark a page as reviewed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page index %q", args[1])
			}
			confirmed := !unconfirm
			path := "/api/sessions/" + args[0] + "/pages/" + args[1] + "/confirm"
			var resp Session
			if err := getClient().Post(cmd.Context(), path, ConfirmRequest{Confirmed: &confirmed}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&unconfirm, "undo", false, "Clear the confirmation instead")
	return cmd
}

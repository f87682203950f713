package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/svcctx"
)

// FinalizeResponse is the response for a successful finalize.
type FinalizeResponse struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

// FinalizeEndpoint handles POST /api/sessions/{id}/finalize.
type FinalizeEndpoint struct{}

var _ api.Endpoint = (*FinalizeEndpoint)(nil)

func (e *FinalizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/finalize", e.handler
}

func (e *FinalizeEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Finalize a session
//	@Description	Assemble every page into a single PDF. Fails if any page lacks an image.
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	FinalizeResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/finalize [post]
func (e *FinalizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	docID, err := engine.Finalize(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FinalizeResponse{
		DocumentID: docID,
		URL:        "/api/documents/" + docID,
	})
}

func (e *FinalizeEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <session-id>",
		Short: "Assemble a session into a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp FinalizeResponse
			if err := getClient().Post(cmd.Context(), "/api/sessions/"+args[0]+"/finalize", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

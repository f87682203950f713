package endpoints

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/svcctx"
)

// DownloadEndpoint handles GET /api/documents/{id}. It serves finalized PDFs
// and is deliberately unauthenticated so returned links work in a browser.
type DownloadEndpoint struct{}

var _ api.Endpoint = (*DownloadEndpoint)(nil)

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}", e.handler
}

func (e *DownloadEndpoint) RequiresAuth() bool { return false }

// handler godoc
//
//	@Summary		Download a finalized PDF
//	@Description	Stream a previously finalized document
//	@Tags			documents
//	@Produce		application/pdf
//	@Param			id	path	string	true	"Document ID"
//	@Success		200	{file}	binary
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/documents/{id} [get]
func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	documents := svcctx.DocumentsFrom(r.Context())
	if documents == nil {
		writeError(w, http.StatusServiceUnavailable, "document store not initialized")
		return
	}

	data, err := documents.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
	w.Write(data)
}

func (e *DownloadEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "download <document-id>",
		Short: "Download a finalized PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := getClient().GetRaw(cmd.Context(), "/api/documents/"+args[0])
			if err != nil {
				return err
			}
			out := outputFile
			if out == "" {
				out = args[0] + ".pdf"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	return cmd
}

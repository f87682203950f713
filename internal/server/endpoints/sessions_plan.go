package endpoints

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/svcctx"
	"github.com/jackzampolin/easel/internal/workflow"
)

// PlanRequest is the request body for planning a new session.
type PlanRequest struct {
	Title     string `json:"title"`
	Theme     string `json:"theme"`
	Kind      string `json:"kind"`
	PageCount int    `json:"page_count"`
	Billing   string `json:"billing,omitempty"`
	Account   string `json:"account,omitempty"`

	Print *PrintSpec `json:"print,omitempty"`

	AgeRange        string   `json:"age_range,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
	StyleHints      string   `json:"style_hints,omitempty"`
	FocusCharacters []string `json:"focus_characters,omitempty"`
	Avoid           []string `json:"avoid,omitempty"`

	// ContextImages carry base64-encoded image data.
	ContextImages []ContextImage `json:"context_images,omitempty"`

	// Background enqueues a completion sweep so pages fill in after the
	// response returns.
	Background bool `json:"background,omitempty"`
}

// PrintSpec is the API view of a print configuration.
type PrintSpec struct {
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	DPI          int     `json:"dpi,omitempty"`
	Fit          string  `json:"fit,omitempty"`
}

// ContextImage is a base64-encoded reference image.
type ContextImage struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// PlanEndpoint handles POST /api/sessions.
type PlanEndpoint struct{}

var _ api.Endpoint = (*PlanEndpoint)(nil)

func (e *PlanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions", e.handler
}

func (e *PlanEndpoint) RequiresAuth() bool { return true }

// handler godoc
//
//	@Summary		Plan a new session
//	@Description	Generate per-page prompts for a new document and persist the session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PlanRequest	true	"Session parameters"
//	@Success		201		{object}	Session
//	@Failure		400		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/sessions [post]
func (e *PlanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	in := &workflow.PlanInput{
		Title:           req.Title,
		Theme:           req.Theme,
		Kind:            book.Kind(req.Kind),
		PageCount:       req.PageCount,
		Billing:         book.BillingMode(req.Billing),
		Account:         req.Account,
		AgeRange:        req.AgeRange,
		Difficulty:      req.Difficulty,
		StyleHints:      req.StyleHints,
		FocusCharacters: req.FocusCharacters,
		Avoid:           req.Avoid,
		Background:      req.Background,
	}

	if req.Print != nil {
		in.Print = &book.PrintSpec{
			WidthInches:  req.Print.WidthInches,
			HeightInches: req.Print.HeightInches,
			DPI:          req.Print.DPI,
			Fit:          book.FitMode(req.Print.Fit),
		}
	} else if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		in.Print = cm.Get().DefaultPrintSpec()
	}

	for i, ci := range req.ContextImages {
		data, err := base64.StdEncoding.DecodeString(ci.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("context image %d: invalid base64", i))
			return
		}
		in.ContextImages = append(in.ContextImages, book.ContextImage{
			Data:      data,
			MediaType: ci.MediaType,
		})
	}

	sess, err := engine.Plan(r.Context(), in)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSession(sess))
}

func (e *PlanEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var req PlanRequest
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a new session",
		Long: `Plan a new illustrated document session.

The planner produces a cover prompt plus one prompt per page. With
--background the server fills empty pages after the response returns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp Session
			if err := getClient().Post(cmd.Context(), "/api/sessions", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Document title")
	cmd.Flags().StringVar(&req.Theme, "theme", "", "Document theme")
	cmd.Flags().StringVar(&req.Kind, "kind", "coloring", "Document kind (coloring, storybook, poems)")
	cmd.Flags().IntVar(&req.PageCount, "pages", 8, "Number of interior pages")
	cmd.Flags().StringVar(&req.Billing, "billing", "", "Billing mode (per-call, precharged)")
	cmd.Flags().StringVar(&req.Account, "account", "", "Billing account")
	cmd.Flags().StringVar(&req.AgeRange, "age-range", "", "Target age range")
	cmd.Flags().StringVar(&req.Difficulty, "difficulty", "", "Line art difficulty")
	cmd.Flags().StringVar(&req.StyleHints, "style", "", "Style hints for the planner")
	cmd.Flags().StringSliceVar(&req.FocusCharacters, "characters", nil, "Recurring characters")
	cmd.Flags().StringSliceVar(&req.Avoid, "avoid", nil, "Content to avoid")
	cmd.Flags().BoolVar(&req.Background, "background", false, "Fill pages in the background")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("theme")
	return cmd
}

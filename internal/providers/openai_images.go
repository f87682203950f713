package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	openai "github.com/openai/openai-go/v3"
)

// Generate renders one image. When the request carries context images they
// are passed through the edits endpoint so the model treats them as visual
// references; otherwise a plain generation is issued. Exactly one image is
// required either way.
func (c *OpenAIClient) Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	size := sizeFor(req)

	var (
		b64 string
		err error
	)
	if len(req.Context) > 0 {
		b64, err = c.editWithReferences(ctx, req, size)
	} else {
		b64, err = c.generatePlain(ctx, req, size)
	}
	if err != nil {
		return nil, err
	}
	if b64 == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return &ImageResult{Data: data, MediaType: "image/png"}, nil
}

func (c *OpenAIClient) generatePlain(ctx context.Context, req *ImageRequest, size string) (string, error) {
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(c.imageModel),
		Size:   openai.ImageGenerateParamsSize(size),
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) != 1 {
		return "", fmt.Errorf("%w: got %d images, want 1", ErrNoImage, len(resp.Data))
	}
	return resp.Data[0].B64JSON, nil
}

func (c *OpenAIClient) editWithReferences(ctx context.Context, req *ImageRequest, size string) (string, error) {
	readers := make([]io.Reader, 0, len(req.Context))
	for i, img := range req.Context {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		readers = append(readers, openai.File(bytes.NewReader(img.Data), fmt.Sprintf("ref_%d%s", i, extFor(mediaType)), mediaType))
	}

	resp, err := c.client.Images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: readers},
		Prompt: req.Prompt,
		Model:  openai.ImageModel(c.imageModel),
		Size:   openai.ImageEditParamsSize(size),
	})
	if err != nil {
		return "", fmt.Errorf("image edit failed: %w", err)
	}
	if len(resp.Data) != 1 {
		return "", fmt.Errorf("%w: got %d images, want 1", ErrNoImage, len(resp.Data))
	}
	return resp.Data[0].B64JSON, nil
}

// sizeFor maps the print aspect ratio onto the model's supported sizes.
func sizeFor(req *ImageRequest) string {
	if req.Print == nil || req.Print.WidthInches <= 0 || req.Print.HeightInches <= 0 {
		return "1024x1024"
	}
	ratio := req.Print.WidthInches / req.Print.HeightInches
	switch {
	case ratio > 1.05:
		return "1536x1024"
	case ratio < 0.95:
		return "1024x1536"
	default:
		return "1024x1024"
	}
}

func extFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

var _ ImageGenerator = (*OpenAIClient)(nil)

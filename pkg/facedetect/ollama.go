package facedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ollama/ollama/api"
)

// facePrompt asks the vision model for a single face bounding box
const facePrompt = `You are a face locator.

Return JSON only:
{"face": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}, "confidence": 0.0}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the most prominent human face.
- confidence is your certainty in [0,1].
- If no face is visible, return {"face": null, "confidence": 0.0}.
- JSON only. No markdown, no code fences, no comments.`

// OllamaLocator locates faces with a vision model served by Ollama. Like
// every Locator it is best-effort: transport or parse failures report
// not-found instead of an error.
type OllamaLocator struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllamaLocator creates a locator talking to the given Ollama server
func NewOllamaLocator(serverURL, model string) (*OllamaLocator, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ollama URL", goerr.V("url", serverURL))
	}
	baseURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &OllamaLocator{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: 300 * time.Second,
	}, nil
}

type faceResponse struct {
	Face       *Box    `json:"face"`
	Confidence float64 `json:"confidence"`
}

// LocateFace sends the image to the vision model and parses the reply
func (l *OllamaLocator) LocateFace(ctx context.Context, img image.Image) (*Result, bool) {
	if img == nil {
		return nil, false
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: l.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: facePrompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err := l.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil || responseContent == "" {
		return nil, false
	}

	parsed, err := parseFaceResponse(responseContent)
	if err != nil || parsed.Face == nil || parsed.Confidence <= 0 {
		return nil, false
	}

	return &Result{
		Box: Box{
			X: clamp(parsed.Face.X, 0, 1),
			Y: clamp(parsed.Face.Y, 0, 1),
			W: clamp(parsed.Face.W, 0, 1),
			H: clamp(parsed.Face.H, 0, 1),
		},
		Confidence: clamp(parsed.Confidence, 0, 1),
	}, true
}

var reCodeFence = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// parseFaceResponse parses model output, tolerating code fences and
// surrounding prose around the JSON object.
func parseFaceResponse(raw string) (*faceResponse, error) {
	raw = strings.TrimSpace(raw)
	if m := reCodeFence.FindStringSubmatch(raw); len(m) == 2 {
		raw = strings.TrimSpace(m[1])
	}
	if start := strings.Index(raw, "{"); start > 0 {
		raw = raw[start:]
	}
	if end := strings.LastIndex(raw, "}"); end >= 0 && end < len(raw)-1 {
		raw = raw[:end+1]
	}

	var resp faceResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, goerr.Wrap(err, "non-JSON face response")
	}
	return &resp, nil
}

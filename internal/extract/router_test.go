package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/types"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func plainRegion(t *testing.T) types.SourceRegion {
	img := image.NewGray(image.Rect(0, 0, 120, 120))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return types.SourceRegion{ID: "r1", Name: "client_details", Image: encodePNG(t, img)}
}

func struckRegion(t *testing.T) types.SourceRegion {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	// 45-degree stroke through the center.
	steps := 240
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		x := int(math.Round(40 + f*120))
		y := int(math.Round(40 + f*120))
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if image.Pt(x+dx, y+dy).In(img.Bounds()) {
					img.SetGray(x+dx, y+dy, color.Gray{Y: 0})
				}
			}
		}
	}
	return types.SourceRegion{ID: "r2", Name: "fees", Image: encodePNG(t, img)}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestRoute(t *testing.T) {
	r := NewRouter(&providers.MockClient{}, nil, testConfig(), nil)

	t.Run("handwriting mode skips detection", func(t *testing.T) {
		path, _ := r.Route(types.ModeHandwritingOnly, plainRegion(t))
		if path != types.PathHandwriting {
			t.Errorf("path %q", path)
		}
	})

	t.Run("hybrid mode without strike", func(t *testing.T) {
		path, signal := r.Route(types.ModeHybrid, plainRegion(t))
		if path != types.PathHybrid {
			t.Errorf("path %q", path)
		}
		if signal.HasDiagonal {
			t.Error("plain region must not report a diagonal")
		}
	})

	t.Run("hybrid mode with strike routes to handwriting", func(t *testing.T) {
		path, signal := r.Route(types.ModeHybrid, struckRegion(t))
		if path != types.PathHandwriting {
			t.Errorf("path %q", path)
		}
		if !signal.HasDiagonal {
			t.Error("struck region must report a diagonal")
		}
	})
}

func TestExtractRegion(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &providers.MockClient{Responses: []string{"Total fee: 450"}}
		r := NewRouter(mock, nil, testConfig(), nil)

		res := r.ExtractRegion(context.Background(), "job-1", types.ModeHybrid, plainRegion(t))
		if res.Failed || res.NoText {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.Text != "Total fee: 450" {
			t.Errorf("text %q", res.Text)
		}
		if res.Path != types.PathHybrid {
			t.Errorf("path %q", res.Path)
		}

		reqs := mock.Requests()
		if len(reqs) != 1 || len(reqs[0].Images) != 1 {
			t.Fatalf("expected one call with one image")
		}
		if !strings.Contains(reqs[0].Prompt, "client_details") {
			t.Errorf("prompt should name the section: %q", reqs[0].Prompt)
		}
	})

	t.Run("sentinel means empty section", func(t *testing.T) {
		mock := &providers.MockClient{Responses: []string{"NO_TEXT_FOUND"}}
		r := NewRouter(mock, nil, testConfig(), nil)

		res := r.ExtractRegion(context.Background(), "job-1", types.ModeHandwritingOnly, plainRegion(t))
		if !res.NoText || res.Failed {
			t.Fatalf("expected NoText, got %+v", res)
		}
		if res.Text != "" {
			t.Errorf("text should be empty, got %q", res.Text)
		}
	})

	t.Run("whitespace answer is empty section", func(t *testing.T) {
		mock := &providers.MockClient{Responses: []string{"   \n"}}
		r := NewRouter(mock, nil, testConfig(), nil)

		res := r.ExtractRegion(context.Background(), "job-1", types.ModeHandwritingOnly, plainRegion(t))
		if !res.NoText {
			t.Fatalf("expected NoText, got %+v", res)
		}
	})

	t.Run("retry recovers from transient failure", func(t *testing.T) {
		var calls atomic.Int32
		mock := &providers.MockClient{
			RespondFunc: func(_ context.Context, req *providers.ExtractRequest) (*providers.ExtractResult, error) {
				if calls.Add(1) == 1 {
					return nil, fmt.Errorf("transient")
				}
				return &providers.ExtractResult{Success: true, Content: "Adviser: Jones"}, nil
			},
		}
		r := NewRouter(mock, nil, testConfig(), nil)

		res := r.ExtractRegion(context.Background(), "job-1", types.ModeHandwritingOnly, plainRegion(t))
		if res.Failed {
			t.Fatalf("expected recovery, got %+v", res)
		}
		if res.Text != "Adviser: Jones" {
			t.Errorf("text %q", res.Text)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", calls.Load())
		}
	})

	t.Run("exhausted retries record regional failure", func(t *testing.T) {
		mock := &providers.MockClient{ShouldFail: true}
		r := NewRouter(mock, nil, testConfig(), nil)

		res := r.ExtractRegion(context.Background(), "job-1", types.ModeHandwritingOnly, plainRegion(t))
		if !res.Failed {
			t.Fatalf("expected failure, got %+v", res)
		}
		if res.Err == "" {
			t.Error("failure should carry a message")
		}
		if mock.RequestCount() != 2 {
			t.Errorf("expected 2 attempts, got %d", mock.RequestCount())
		}
	})
}

func TestExtractRegionPromptOverride(t *testing.T) {
	overrides := mapOverrides{
		"job-9/extract.handwriting.user": "Read pencil notes in {{.SectionName}} only.",
	}
	resolver := prompts.NewResolver(overrides, nil)

	mock := &providers.MockClient{Responses: []string{"done"}}
	r := NewRouter(mock, resolver, testConfig(), nil)

	r.ExtractRegion(context.Background(), "job-9", types.ModeHandwritingOnly, plainRegion(t))

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one call")
	}
	if reqs[0].Prompt != "Read pencil notes in client_details only." {
		t.Errorf("override not applied: %q", reqs[0].Prompt)
	}
}

type mapOverrides map[string]string

func (m mapOverrides) GetPromptOverride(_ context.Context, jobID, key string) (string, error) {
	return m[jobID+"/"+key], nil
}

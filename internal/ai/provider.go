package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string, dimensions int) ([]float32, error)
}

// IEmbedder is a provider-agnostic embedding capability bound to a single
// model. Dimensions is the declared output length; the value actually
// produced is checked but only warned about, the store layer enforces it.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
	Dimensions() int
}

type embedder struct {
	provider   IEmbedProvider
	model      string
	dimensions int
}

func NewEmbedder(p IEmbedProvider, model string, dimensions int) IEmbedder {
	return &embedder{provider: p, model: model, dimensions: dimensions}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed input is empty")
	}
	values, err := e.provider.Embed(ctx, e.model, text, taskType, e.dimensions)
	if err != nil {
		return nil, err
	}
	if e.dimensions > 0 && len(values) != e.dimensions {
		logutil.GetLogger(ctx).Warn("unexpected embedding dimensions",
			zap.String("model", e.model),
			zap.Int("got", len(values)),
			zap.Int("expected", e.dimensions),
		)
	}
	return values, nil
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Dimensions() int {
	return e.dimensions
}

type ProviderFactory func(args interface{}) (IEmbedProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

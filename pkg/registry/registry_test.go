package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/protocol"
)

type stubStrategy struct{}

func (s *stubStrategy) Type() string { return "stub" }

func (s *stubStrategy) ValidateInputs(_ context.Context, _ *models.NodeExecutionContext) models.ValidationResult {
	return models.ValidResult()
}

func (s *stubStrategy) SetupExecutionContext(_ context.Context, _ *models.NodeExecutionContext) error {
	return nil
}

func (s *stubStrategy) Execute(_ context.Context, _ *models.NodeExecutionContext) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *stubStrategy) TransformOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) (map[string]any, error) {
	return output, nil
}

func (s *stubStrategy) ValidateOutput(_ context.Context, _ *models.NodeExecutionContext, _ map[string]any) models.ValidationResult {
	return models.ValidResult()
}

func (s *stubStrategy) CleanupResources(_ context.Context, _ *models.NodeExecutionContext) error {
	return nil
}

type stubFactory struct {
	id        string
	createErr error
}

func (f *stubFactory) ID() string          { return f.id }
func (f *stubFactory) Name() string        { return "Stub" }
func (f *stubFactory) Description() string { return "A stub node for tests" }

func (f *stubFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target": map[string]any{"type": "string"},
		},
		"required": []string{"target"},
	}
}

func (f *stubFactory) Create(_ context.Context, _ map[string]any) (protocol.NodeStrategy, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	return &stubStrategy{}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.Default())
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "HTTPRequest"})

	for _, nodeType := range []string{"httprequest", "HTTPRequest", "HttpRequest"} {
		factory, ok := reg.GetFactory(nodeType)
		require.True(t, ok, "lookup %q", nodeType)
		assert.Equal(t, "HTTPRequest", factory.ID())
		assert.True(t, reg.Supports(nodeType))
	}

	_, ok := reg.GetFactory("dbquery")
	assert.False(t, ok)
	assert.False(t, reg.Supports("dbquery"))
}

func TestRegistry_SupportedNodeTypesSorted(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "zeta"})
	reg.Register(&stubFactory{id: "alpha"})
	reg.Register(&stubFactory{id: "Mid"})

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.SupportedNodeTypes())
}

func TestRegistry_Create(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "stub"})

	strategy, err := reg.Create(context.Background(), "stub", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "stub", strategy.Type())
}

func TestRegistry_CreateUnknownType(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Create(context.Background(), "missing", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestRegistry_CreatePropagatesFactoryError(t *testing.T) {
	createErr := errors.New("bad configuration")
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "stub", createErr: createErr})

	_, err := reg.Create(context.Background(), "stub", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, createErr)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "stub"})

	t.Run("valid document", func(t *testing.T) {
		result, err := reg.ValidateConfig("stub", map[string]any{"target": "somewhere"})
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("missing required property", func(t *testing.T) {
		result, err := reg.ValidateConfig("stub", map[string]any{})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("unknown node type", func(t *testing.T) {
		_, err := reg.ValidateConfig("missing", map[string]any{})
		assert.ErrorIs(t, err, ErrUnknownNodeType)
	})
}

func TestRegisterDefaultStrategies(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterDefaultStrategies()

	assert.Equal(t, []string{"dbquery", "email", "httprequest"}, reg.SupportedNodeTypes())
}

package force

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, Options{})
	assert.ErrorIs(t, err, ErrNoWorkers)

	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()
	_, err = NewEngine(pool, Options{Dimensions: 4})
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	e, err := NewEngine(pool, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Dimensions())
	assert.Equal(t, 1, e.Workers())
}

func TestNewUsesHardwareParallelismByDefault(t *testing.T) {
	e, err := New(Options{Seed: 1})
	require.NoError(t, err)
	defer e.Shutdown()
	assert.GreaterOrEqual(t, e.Workers(), 1)

	_, err = New(Options{Workers: -1})
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestComputeExactByID(t *testing.T) {
	e := newTestEngine(t, 2, Options{MultithreadThreshold: 1})
	positions := PositionMap{
		"a": {0, 0, 0},
		"b": {2, 0, 0},
		"c": {0, 2, 0},
	}
	forces, err := e.ComputeExact(context.Background(), []string{"a", "b", "c", "b"}, positions)
	require.NoError(t, err)
	require.Len(t, forces, 3, "duplicate ids are counted once")

	assert.InDelta(t, -0.5, forces["a"][0], 1e-12)
	assert.InDelta(t, -0.5, forces["a"][1], 1e-12)
	assert.InDelta(t, 0, netForce([]Vec{forces["a"], forces["b"], forces["c"]}).Norm(), 1e-12)
}

func TestComputeSingleNode(t *testing.T) {
	e := newTestEngine(t, 2, Options{})
	positions := PositionMap{"solo": {4, 4, 0}}

	exact, err := e.ComputeExact(context.Background(), []string{"solo"}, positions)
	require.NoError(t, err)
	assert.Equal(t, map[string]Vec{"solo": {}}, exact)

	approx, err := e.ComputeApprox(context.Background(), []string{"solo"}, positions, DrawingBox{Length: 8}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]Vec{"solo": {}}, approx)
}

func TestComputeEmptySet(t *testing.T) {
	e := newTestEngine(t, 2, Options{})
	forces, err := e.ComputeExact(context.Background(), nil, PositionMap{})
	require.NoError(t, err)
	assert.Empty(t, forces)

	forces, err = e.ComputeApprox(context.Background(), nil, PositionMap{}, DrawingBox{Length: 1}, 2)
	require.NoError(t, err)
	assert.Empty(t, forces)
}

func TestComputeTwoDimensionalIgnoresZ(t *testing.T) {
	e := newTestEngine(t, 1, Options{Dimensions: 2})
	positions := PositionMap{"a": {0, 0, 5}, "b": {1, 0, -5}}
	forces, err := e.ComputeExact(context.Background(), []string{"a", "b"}, positions)
	require.NoError(t, err)
	assert.Equal(t, Vec{1, 0, 0}, forces["b"])
	assert.Equal(t, Vec{-1, 0, 0}, forces["a"])
}

func TestComputeThreeDimensional(t *testing.T) {
	e := newTestEngine(t, 1, Options{Dimensions: 3})
	positions := PositionMap{"a": {0, 0, 0}, "b": {0, 0, 4}}
	forces, err := e.ComputeApprox(context.Background(), []string{"a", "b"}, positions, DrawingBox{Length: 4}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, forces["b"][2], 1e-12)
	assert.InDelta(t, -0.25, forces["a"][2], 1e-12)
}

func TestComputeAfterShutdown(t *testing.T) {
	e := newTestEngine(t, 2, Options{})
	assert.False(t, e.Closed())
	e.Shutdown()
	e.Shutdown() // idempotent
	assert.True(t, e.Closed())

	positions := PositionMap{"a": {0, 0, 0}, "b": {1, 0, 0}}
	_, err := e.ComputeExact(context.Background(), []string{"a", "b"}, positions)
	assert.ErrorIs(t, err, ErrEngineShutdown)
	_, err = e.ComputeApprox(context.Background(), []string{"a", "b"}, positions, DrawingBox{Length: 1}, 2)
	assert.ErrorIs(t, err, ErrEngineShutdown)
}

func TestWorkerFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	e := newTestEngine(t, 2, Options{MultithreadThreshold: 1, Logger: log})
	e.beforeChunk = func(w int) error {
		if w == 0 {
			panic("lost worker")
		}
		return nil
	}

	_, err := e.ExactForces(context.Background(), randomPositions(8, 2, 10, 4))
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.Contains(out, "force worker failed"), out)
	assert.True(t, strings.Contains(out, "lost worker"), out)
}

func TestConcurrentPassesShareOnePool(t *testing.T) {
	e := newTestEngine(t, 4, Options{MultithreadThreshold: 1})
	pos := randomPositions(300, 2, 100, 77)
	want, err := e.ExactForces(context.Background(), pos)
	require.NoError(t, err)

	results := make(chan []Vec, 4)
	for i := 0; i < 4; i++ {
		go func() {
			got, err := e.ExactForces(context.Background(), pos)
			if err != nil {
				results <- nil
				return
			}
			results <- got
		}()
	}
	for i := 0; i < 4; i++ {
		got := <-results
		require.NotNil(t, got)
		requireClose(t, want, got, 1e-12)
	}
}

package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/model"
)

func openTestStore(t *testing.T) *Store {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testFitted() *model.Fitted {
	cfg := model.DefaultConfig(2)
	cfg.SampleLag = -1
	return &model.Fitted{
		Config:    cfg,
		VocabSize: 3,
		Phi: mat.NewDense(2, 3, []float64{
			0.5, 0.25, 0.25,
			0.1, 0.0, 0.9,
		}),
		LogLikelihood: -12.5,
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	f := testFitted()

	id, err := s.Save(ctx, f)
	require.NoError(t, err)
	assert.Len(t, id, 26)

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.Config, got.Config)
	assert.Equal(t, 3, got.VocabSize)
	assert.Equal(t, -12.5, got.LogLikelihood)
	assert.True(t, mat.Equal(f.Phi, got.Phi))
	assert.Nil(t, got.Theta)
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Save(ctx, testFitted())
	require.NoError(t, err)
	f := testFitted()
	f.LogLikelihood = math.NaN()
	second, err := s.Save(ctx, f)
	require.NoError(t, err)

	runs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.True(t, math.IsNaN(runs[0].LogLikelihood))
	assert.Equal(t, 2, runs[1].Topics)
	assert.Equal(t, 3, runs[1].VocabSize)

	require.NoError(t, s.Delete(ctx, first))
	_, err = s.Load(ctx, first)
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, first), ErrRunNotFound))

	runs, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRejectsMismatchedShape(t *testing.T) {
	s := openTestStore(t)
	f := testFitted()
	f.VocabSize = 4

	_, err := s.Save(context.Background(), f)
	assert.Error(t, err)

	_, err = s.Save(context.Background(), nil)
	assert.Error(t, err)
}

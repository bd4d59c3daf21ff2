package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

func TestCachedSpectrumStore(t *testing.T) {
	ctx := context.Background()
	raw := spectral.RawSpectrum{{Wavelength: 400, Value: 1}, {Wavelength: 500, Value: 2}}

	next := &MockSpectrumStore{}
	next.On("Load", mock.Anything, KindStimulus, "wLCD").Return(raw, nil).Twice()
	next.On("List", mock.Anything, KindStimulus).Return([]string{"wLCD"}, nil).Twice()
	next.On("Save", mock.Anything, KindStimulus, "wLCD", mock.Anything).Return(nil).Once()

	c := NewCachedSpectrumStore(next, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := c.Load(ctx, KindStimulus, "wLCD")
		require.NoError(t, err)
		assert.Equal(t, raw, got)

		names, err := c.List(ctx, KindStimulus)
		require.NoError(t, err)
		assert.Equal(t, []string{"wLCD"}, names)
	}
	next.AssertNumberOfCalls(t, "Load", 1)
	next.AssertNumberOfCalls(t, "List", 1)

	// Mutating a returned value does not poison the cache.
	got, _ := c.Load(ctx, KindStimulus, "wLCD")
	got[0].Value = 99
	again, _ := c.Load(ctx, KindStimulus, "wLCD")
	assert.Equal(t, 1.0, again[0].Value)

	s, _, err := spectral.DefaultGrid().Resample(raw)
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, KindStimulus, "wLCD", s))

	_, err = c.Load(ctx, KindStimulus, "wLCD")
	require.NoError(t, err)
	_, err = c.List(ctx, KindStimulus)
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "Load", 2)
	next.AssertNumberOfCalls(t, "List", 2)
	next.AssertExpectations(t)
}

func TestCachedSpectrumStore_SaveDuringReadDropsStaleResult(t *testing.T) {
	ctx := context.Background()
	stale := spectral.RawSpectrum{{Wavelength: 400, Value: 1}, {Wavelength: 500, Value: 2}}
	fresh := spectral.RawSpectrum{{Wavelength: 400, Value: 3}, {Wavelength: 500, Value: 4}}

	started := make(chan struct{})
	release := make(chan struct{})

	next := &MockSpectrumStore{}
	next.On("Load", mock.Anything, KindStimulus, "wLCD").Return(stale, nil).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Once()
	next.On("Save", mock.Anything, KindStimulus, "wLCD", mock.Anything).Return(nil).Once()
	next.On("Load", mock.Anything, KindStimulus, "wLCD").Return(fresh, nil).Once()
	next.On("List", mock.Anything, KindStimulus).Return([]string{"wLCD"}, nil).Once()

	c := NewCachedSpectrumStore(next, time.Minute)

	done := make(chan spectral.RawSpectrum, 1)
	go func() {
		got, err := c.Load(ctx, KindStimulus, "wLCD")
		assert.NoError(t, err)
		done <- got
	}()
	<-started

	s, _, err := spectral.DefaultGrid().Resample(fresh)
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, KindStimulus, "wLCD", s))

	close(release)
	assert.Equal(t, stale, <-done)

	// The overlapping read was not cached, so this one reaches the store.
	got, err := c.Load(ctx, KindStimulus, "wLCD")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	// Reads that start after the Save cache normally again.
	got, err = c.Load(ctx, KindStimulus, "wLCD")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	_, err = c.List(ctx, KindStimulus)
	require.NoError(t, err)
	_, err = c.List(ctx, KindStimulus)
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "Load", 2)
	next.AssertNumberOfCalls(t, "List", 1)
	next.AssertExpectations(t)
}

func TestCachedSpectrumStore_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &MockSpectrumStore{}
	next.On("Load", mock.Anything, KindPhotoreceptor, "missing").Return(nil, ErrSpectrumNotFound).Twice()

	c := NewCachedSpectrumStore(next, time.Minute)
	_, err := c.Load(ctx, KindPhotoreceptor, "missing")
	assert.ErrorIs(t, err, ErrSpectrumNotFound)
	_, err = c.Load(ctx, KindPhotoreceptor, "missing")
	assert.ErrorIs(t, err, ErrSpectrumNotFound)
	next.AssertExpectations(t)
}

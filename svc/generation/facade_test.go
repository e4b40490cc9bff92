package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/svc/generation"
)

func staticCapability(texts []string, err error) generation.Capability {
	return generation.CapabilityFunc(func(context.Context, generation.Prompt) ([]string, error) {
		return texts, err
	})
}

func TestFacade_Generate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	req := generation.ToneReply{Message: "Thanks for the drink!", Tone: "witty"}

	t.Run("normalizes variants", func(t *testing.T) {
		t.Parallel()
		var got generation.Prompt
		f := generation.NewFacade(generation.CapabilityFunc(func(_ context.Context, p generation.Prompt) ([]string, error) {
			got = p
			return []string{"  one ", "", "two", "   ", "three", "four"}, nil
		}))

		res, err := f.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, generation.Prompt{Mode: generation.ModeToneReply, Text: "Thanks for the drink!", Tone: "witty"}, got)
		assert.Equal(t, []generation.Reply{{ID: 1, Text: "one"}, {ID: 2, Text: "two"}, {ID: 3, Text: "three"}}, res.Replies)
		assert.Equal(t, "grateful", res.ToneLabel)
		assert.False(t, res.Fallback)
	})

	t.Run("malformed output falls back", func(t *testing.T) {
		t.Parallel()
		f := generation.NewFacade(staticCapability(nil, generation.ErrMalformedOutput))

		res, err := f.Generate(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, []generation.Reply{{ID: 1, Text: generation.FallbackReply}}, res.Replies)
	})

	t.Run("all-empty output falls back", func(t *testing.T) {
		t.Parallel()
		f := generation.NewFacade(staticCapability([]string{" ", ""}, nil))

		res, err := f.Generate(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		f := generation.NewFacade(generation.CapabilityFunc(func(ctx context.Context, _ generation.Prompt) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), generation.WithTimeout(20*time.Millisecond))

		_, err := f.Generate(ctx, req)
		assert.ErrorIs(t, err, generation.ErrUpstreamTimeout)
	})

	t.Run("upstream failure hides details", func(t *testing.T) {
		t.Parallel()
		f := generation.NewFacade(staticCapability(nil, generation.ErrRateLimited))

		_, err := f.Generate(ctx, req)
		assert.ErrorIs(t, err, generation.ErrUpstreamFailure)
		assert.ErrorIs(t, err, generation.ErrRateLimited)
	})

	t.Run("other errors", func(t *testing.T) {
		t.Parallel()
		f := generation.NewFacade(staticCapability(nil, errors.New("boom")))

		_, err := f.Generate(ctx, req)
		assert.ErrorIs(t, err, generation.ErrUpstreamFailure)
	})
}

func TestFacade_Tools(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var modes []generation.Mode
	f := generation.NewFacade(generation.CapabilityFunc(func(_ context.Context, p generation.Prompt) ([]string, error) {
		modes = append(modes, p.Mode)
		return []string{"a", "b"}, nil
	}))

	_, err := f.ConversationStarters(ctx, "Loves hiking and dogs")
	require.NoError(t, err)
	_, err = f.CoachMessage(ctx, "hey")
	require.NoError(t, err)
	res, err := f.DecodeMessage(ctx, "we should hang out sometime?")
	require.NoError(t, err)
	assert.Equal(t, "curious", res.ToneLabel)

	assert.Equal(t, []generation.Mode{generation.ModeStarters, generation.ModeCoach, generation.ModeDecoder}, modes)

	_, err = f.CoachMessage(ctx, "   ")
	var mf *generation.MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "draft", mf.Field)
}

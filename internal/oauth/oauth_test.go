package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stub struct{ name string }

func (s stub) Name() string                                       { return s.name }
func (s stub) AuthCodeURL(state string) string                    { return "https://x/?state=" + state }
func (s stub) Exchange(context.Context, string) (*Profile, error) { return &Profile{Provider: s.name}, nil }

func TestRegistry(t *testing.T) {
	r := Registry{"google": stub{"google"}}
	p, err := r.Get("google")
	require.NoError(t, err)
	require.Equal(t, "google", p.Name())

	_, err = r.Get("gitlab")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

func TestVerifierMapsClaims(t *testing.T) {
	v := &Verifier{client: stubVerifier{
		"good":     {UID: "fb-uid-1", Claims: map[string]interface{}{"email": "jane@example.com"}},
		"no-email": {UID: "fb-uid-2", Claims: map[string]interface{}{}},
	}}
	ctx := context.Background()

	actor, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "fb-uid-1", actor.ID)
	assert.Equal(t, "jane@example.com", actor.Email)

	actor, err = v.Verify(ctx, "no-email")
	require.NoError(t, err)
	assert.Empty(t, actor.Email)

	_, err = v.Verify(ctx, "forged")
	assert.Error(t, err)
}

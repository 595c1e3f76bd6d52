package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type translationInput struct {
	Language string `validate:"required,langtag"`
}

type deviceInput struct {
	Kind string `validate:"required,devicekind"`
	ID   string `validate:"required"`
}

func TestLangTag(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(translationInput{Language: "ja"}))
	require.NoError(t, v.Validate(translationInput{Language: "ko"}))
	require.Error(t, v.Validate(translationInput{Language: "en"}))
	require.Error(t, v.Validate(translationInput{}))
}

func TestDeviceKind(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(deviceInput{Kind: "videoinput", ID: "cam-1"}))
	require.Error(t, v.Validate(deviceInput{Kind: "webcam", ID: "cam-1"}))
	require.Error(t, v.Validate(deviceInput{Kind: "audioinput"}))
}

package utils_test

import (
	"testing"

	"github.com/jrsteele09/medassist-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestToStringSlice(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, utils.ToStringSlice([]any{"a", 1.0, nil, "b"}))
	require.Empty(t, utils.ToStringSlice(nil))
}

func TestValueAndPtr(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
}

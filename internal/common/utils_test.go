package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasAnySuffix(t *testing.T) {
	require.True(t, HasAnySuffix("https://i.redd.it/a.JPG", ".jpg", ".png"))
	require.True(t, HasAnySuffix("x.jpeg", ".jpg", ".jpeg"))
	require.False(t, HasAnySuffix("https://v.redd.it/abc", ".jpg", ".png"))
	require.False(t, HasAnySuffix("a.gif"))
}

func TestReplaceSuffixFold(t *testing.T) {
	require.Equal(t, "https://i.imgur.com/a.gif", ReplaceSuffixFold("https://i.imgur.com/a.gifv", ".gifv", ".gif"))
	require.Equal(t, "https://i.imgur.com/a.gif", ReplaceSuffixFold("https://i.imgur.com/a.GIFV", ".gifv", ".gif"))
	require.Equal(t, "a.png", ReplaceSuffixFold("a.png", ".gifv", ".gif"))
	require.Equal(t, "v", ReplaceSuffixFold("v", ".gifv", ".gif"))
}

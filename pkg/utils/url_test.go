package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURLStable(t *testing.T) {
	a := HashURL("https://example.com/search?page={}")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashURL("https://example.com/search?page={}"))
	assert.NotEqual(t, a, HashURL("https://example.com/search?page=1"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://www.tcgplayer.com/search/pokemon/product?page=2")
	require.NoError(t, err)

	abs, err := ToAbsoluteURL(base, "/img/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://www.tcgplayer.com/img/1.jpg", abs)

	abs, err = ToAbsoluteURL(base, "https://cdn.example.com/2.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/2.jpg", abs)
}

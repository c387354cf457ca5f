package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, "none", c.Name())

	_, ok = ByName("gzip")
	assert.False(t, ok)

	_, err := Lookup("gzip")
	assert.ErrorContains(t, err, "gzip")
}

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("the quick brown fox ", 1000))

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, _ := ByName(name)

			var buf bytes.Buffer
			w, err := c.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if name != "none" {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := c.NewReader(&buf)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFormats(t *testing.T) {
	assert.Equal(t, "trap at 0x00ff", From("trap at 0x%04x", 0xFF))
	assert.Equal(t, "plain", From("plain"))
}

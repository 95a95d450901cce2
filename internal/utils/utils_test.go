package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Kind  uint8  `codec:"k"`
	Value int64  `codec:"v"`
	Label string `codec:"l,omitempty"`
}

func TestMsgPack(t *testing.T) {
	in := []record{{Kind: 1, Value: -3}, {Kind: 2, Value: 40, Label: "cons"}}
	buf, err := EncodeMsgPack(in)
	require.NoError(t, err)

	var out []record
	require.NoError(t, DecodeMsgPack(buf.Bytes(), &out))
	assert.Equal(t, in, out)

	assert.Error(t, DecodeMsgPack([]byte{0xc1}, &out))
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, PathExists(dir))
	assert.False(t, PathExists(filepath.Join(dir, "missing")))
}

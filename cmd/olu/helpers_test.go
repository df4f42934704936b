package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSequenceNumber(t *testing.T) {
	seq, err := parseSequenceNumber("6093423")
	require.NoError(t, err)
	assert.Equal(t, 6093423, seq)

	for _, bad := range []string{"", "-1", "12a"} {
		_, err := parseSequenceNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "way.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<way id="1"><nd ref="2"/></way>`), 0600))

	text, err := readInput(path)
	require.NoError(t, err)
	assert.Contains(t, text, `<nd ref="2"/>`)

	_, err = readInput(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

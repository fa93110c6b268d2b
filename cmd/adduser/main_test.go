package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPasswordLine(t *testing.T) {
	pw, err := readPasswordLine(strings.NewReader("s3cret\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	pw, err = readPasswordLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)

	_, err = readPasswordLine(strings.NewReader("\n"))
	assert.Error(t, err)
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: adduser [--admin] EMAIL")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"--admin", "not-an-email"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "is not an email address")
}

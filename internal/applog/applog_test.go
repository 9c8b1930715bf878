package applog

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetVerbosityGatesLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbosity(0)
	Debug("should not appear")
	assert.Empty(t, buf.String())

	SetVerbosity(3)
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestTaggedPrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbosity(2)

	log := Tagged("echo test")
	log.Info("hello")
	assert.True(t, strings.Contains(buf.String(), "[echo test]"))
	assert.True(t, strings.Contains(buf.String(), "hello"))
}

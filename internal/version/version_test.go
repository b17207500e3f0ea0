package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_ContainsApplicationName(t *testing.T) {
	s := String()
	assert.True(t, strings.HasPrefix(s, ApplicationName), "got %q", s)
	assert.Contains(t, s, Version)
}

func TestShort_NotEmpty(t *testing.T) {
	assert.NotEmpty(t, Short())
}

func TestUserAgent_Format(t *testing.T) {
	assert.Equal(t, ApplicationName+"/"+Version, UserAgent())
}

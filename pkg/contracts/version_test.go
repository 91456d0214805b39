package contracts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevision_PrefersLinkerValue(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = "abc123"
	assert.Equal(t, "abc123", Revision())

	GitCommit = ""
	assert.NotEmpty(t, Revision())
}

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString()
	assert.True(t, strings.HasPrefix(s, "pricecube v"+Version+" (commit "), s)
}

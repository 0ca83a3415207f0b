package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	pattern := regexp.MustCompile(`^proofs/[0-9a-f-]{36}_[0-9]+\.png$`)

	key := ObjectKey("proofs", "png")
	assert.True(t, pattern.MatchString(key), key)

	other := ObjectKey("proofs", "png")
	assert.NotEqual(t, key, other)

	ticket := ObjectKey("tickets", "jpg")
	assert.Regexp(t, `^tickets/`, ticket)
	assert.Regexp(t, `\.jpg$`, ticket)
}

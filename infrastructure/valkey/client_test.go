package valkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	c := &Client{keyPrefix: normalizePrefix("azposts")}

	assert.Equal(t, "azposts", c.Key())
	assert.Equal(t, "azposts:events:posts", c.Key("events", "posts"))
}

func TestClientKeyWithoutPrefix(t *testing.T) {
	c := &Client{keyPrefix: normalizePrefix("")}

	assert.Equal(t, "", c.Key())
	assert.Equal(t, "events", c.Key("events"))
}

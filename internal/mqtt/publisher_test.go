package mqtt

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sparkfault/hdrd/internal/config"
)

func TestPublishWithoutConnectionIsSafe(t *testing.T) {
	t.Parallel()

	p := New(config.Default().MQTT, log.New(os.Stderr, "test ", 0))

	// Never connected: publishes must be silent no-ops, not panics.
	p.Publish("nowplaying", map[string]string{"title": "x"})
	p.Disconnect()

	assert.NotNil(t, p)
}

package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, Init("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	require.NoError(t, Init(""))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	assert.Error(t, Init("loud"))
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nick-ui911/Nova-AI/internal/testutil"
)

func TestExtractDeviceInfo(t *testing.T) {
	t.Run("parses desktop Chrome", func(t *testing.T) {
		info := ExtractDeviceInfo(testutil.UserAgents.Chrome)
		assert.Contains(t, info, "Chrome")
		assert.Contains(t, info, "Desktop")
	})

	t.Run("parses mobile Safari", func(t *testing.T) {
		info := ExtractDeviceInfo(testutil.UserAgents.MobileSafari)
		assert.Contains(t, info, "Mobile")
	})

	t.Run("empty user agent yields unknown device", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", ExtractDeviceInfo(""))
	})

	t.Run("overlong garbage user agent is truncated", func(t *testing.T) {
		long := strings.Repeat("x", 150)
		info := ExtractDeviceInfo(long)
		assert.LessOrEqual(t, len(info), 103)
		assert.True(t, strings.HasSuffix(info, "..."))
	})

	t.Run("overlong parsed device string is truncated", func(t *testing.T) {
		// A realistic prefix followed by padding that survives parsing.
		long := "Mozilla/5.0 " + strings.Repeat("y", 200)
		info := ExtractDeviceInfo(long)
		assert.LessOrEqual(t, len(info), 103)
	})
}

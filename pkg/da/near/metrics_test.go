package near

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("PrometheusMetrics", func(t *testing.T) {
		em := PrometheusMetrics("test_prometheus", "network", "testnet")

		assert.NotNil(t, em.PrimaryFailures)
		assert.NotNil(t, em.ArchiveFallbacks)
		assert.NotNil(t, em.ArchiveFailures)
		assert.NotNil(t, em.SubmittedBlobs)
		assert.NotNil(t, em.NotFound)

		assert.Len(t, em.OperationDuration, len(Operations()))
		for _, op := range Operations() {
			assert.NotNil(t, em.OperationDuration[op])
		}
	})

	t.Run("NopMetrics", func(t *testing.T) {
		em := NopMetrics()

		assert.Len(t, em.OperationDuration, len(Operations()))

		// no-op metrics don't panic when used
		em.PrimaryFailures.Add(1)
		em.SubmittedBlobs.Add(2)
		em.observeDuration(OperationSubmit, 0.1)
		em.observeDuration("unknown", 0.1)
	})
}

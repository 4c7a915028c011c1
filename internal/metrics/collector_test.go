package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var collectorNamespaceSeq uint64

// Each collector registers on the default registry, so every test needs
// a namespace of its own.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), func() int { return 3 }, func() int { return 2 }, nil)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.toolExecutionsTotal)
	assert.NotNil(t, collector.cacheHits)
	assert.NotNil(t, collector.jobOutcomes)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil, nil, nil)

	collector.RecordHTTPRequest("POST", "/api/chat", 200, 100*time.Millisecond)
	collector.RecordHTTPRequest("POST", "/api/chat", 500, 50*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Equal(t, 2, count, "2xx and 5xx land in distinct series")
}

func TestCollector_RecordToolExecution(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil, nil, nil)

	collector.RecordToolExecution("web_search", "ok", 200*time.Millisecond)
	collector.RecordToolExecution("web_search", "cached", time.Millisecond)

	count := testutil.CollectAndCount(collector.toolExecutionsTotal)
	assert.Equal(t, 2, count)
}

func TestCollector_CacheCounters(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil, nil, nil)

	collector.RecordCacheHit("web_search")
	collector.RecordCacheMiss("web_search")
	collector.RecordCacheMiss("search_patents")

	assert.Equal(t, 1, testutil.CollectAndCount(collector.cacheHits))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.cacheMisses))
}

func TestCollector_GaugesScrapeLazily(t *testing.T) {
	n := 5
	collector := NewCollector(nextTestNamespace(), func() int { return n }, nil, nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(collector.cacheEntries))
	n = 7
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.cacheEntries))
}

func TestCollector_RecordJob(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil, nil, nil)

	collector.RecordJob("surechembl", "complete", 3)
	collector.RecordJob("surechembl", "timeout", 10)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.jobOutcomes))
}

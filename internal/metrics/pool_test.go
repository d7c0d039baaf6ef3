package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Varun5711/bookshelf/internal/database"
)

func TestRegisterPoolStats(t *testing.T) {
	registry := prometheus.NewRegistry()
	RegisterPoolStats(registry, func() []database.PoolStat {
		return []database.PoolStat{
			{Name: "primary", Total: 5, Idle: 3, Acquired: 2},
			{Name: "replica-0", Total: 1, Idle: 1},
		}
	})

	expected := `
# HELP bookshelf_db_pool_acquired_conns Connections currently in use
# TYPE bookshelf_db_pool_acquired_conns gauge
bookshelf_db_pool_acquired_conns{pool="primary"} 2
bookshelf_db_pool_acquired_conns{pool="replica-0"} 0
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "bookshelf_db_pool_acquired_conns"); err != nil {
		t.Error(err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	samples := 0
	for _, f := range families {
		samples += len(f.GetMetric())
	}
	if samples != 6 {
		t.Errorf("expected 6 samples, got %d", samples)
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveTaxonomy(t *testing.T) {
	created := TaxonomyLookups.WithLabelValues("tag", "created")
	existing := TaxonomyLookups.WithLabelValues("tag", "existing")
	beforeCreated := testutil.ToFloat64(created)
	beforeExisting := testutil.ToFloat64(existing)

	ObserveTaxonomy("tag", true)
	ObserveTaxonomy("tag", false)
	ObserveTaxonomy("tag", false)

	require.Equal(t, beforeCreated+1, testutil.ToFloat64(created))
	require.Equal(t, beforeExisting+2, testutil.ToFloat64(existing))
}

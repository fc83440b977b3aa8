package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSuccess(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordSuccess("download")
	m.RecordSuccess("download")
	m.RecordSuccess("compress")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "compress")))
}

func TestRecordError(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordError("download", "transport")
	m.RecordError("download", "transport")
	m.RecordError("upload", "storage")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("error", "download")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("transport", "download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("storage", "upload")))
}

func TestOperationGauge(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.StartOperation("download")
	m.StartOperation("download")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inProgress.WithLabelValues("download")))

	m.EndOperation("download")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inProgress.WithLabelValues("download")))
}

func TestMetricNamesCarryServicePrefix(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("backupmpps", reg)

	m.RecordSuccess("download")
	m.RecordDuration("download", 0.25)
	m.RecordFileSize("pdf", 2048)

	families, err := reg.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "backupmpps_processed_total")
	assert.Contains(t, names, "backupmpps_duration_seconds")
	assert.Contains(t, names, "backupmpps_file_size_bytes")
}

package substrate

import (
	"github.com/VictoriaMetrics/metrics"
	"io"
)

var (
	documentsCreated  = metrics.GetOrCreateCounter("dobj_documents_created_total")
	blipsCreated      = metrics.GetOrCreateCounter("dobj_blips_created_total")
	documentMutations = metrics.GetOrCreateCounter("dobj_document_mutations_total")
	textMutations     = metrics.GetOrCreateCounter("dobj_text_mutations_total")
)

// WriteMetrics writes the substrate counters in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}

// Package retrieval holds the domain model shared by the sparse, dense,
// fusion, and extraction components, plus the top-level service that wires
// them together.
package retrieval

// Document identifies a single paper in the fixed corpus. The ID is the
// filename used as the external identifier throughout the index, matching
// the documents table's filename column.
type Document struct {
	ID     string
	Source string // object-storage key the document was ingested from
}

// Term identifies a single vocabulary entry in the sparse encoder's output
// space. ID corresponds to a token id in the masked-LM's vocabulary.
type Term struct {
	ID   int
	Text string
}

// PostingEntry is a single row of the inverted index: how much weight a
// term contributes to a document's sparse score.
type PostingEntry struct {
	TermID     int
	DocumentID string
	Weight     float64
}

// SparseVector is the non-zero (term, weight) pairs produced by the sparse
// encoder for one piece of text. Only non-zero entries are kept, matching
// the encoder's log(1+relu(x))-then-mask-then-max reduction.
type SparseVector map[int]float64

// DenseVector is a fixed-dimension embedding produced by the dense encoder.
type DenseVector []float32

// ScoredDoc is a document together with a score from a single retrieval
// path (sparse, dense, or fused). The meaning of Score depends on which
// component produced it — callers should not compare across paths directly.
type ScoredDoc struct {
	DocumentID string
	Score      float64
}

// ExtractionResult is one reported benchmark row an LLM extracted from a
// document's cleaned markdown. A single document can yield many of these;
// Task and Metric are the only mandatory fields, matching a paper that
// reports a metric without, say, a named architecture or dataset split.
type ExtractionResult struct {
	Task                 string   `json:"task"`
	ModelName            string   `json:"model_name,omitempty"`
	ModelArchitecture    string   `json:"model_architecture,omitempty"`
	ParameterCount       *int64   `json:"parameter_count,omitempty"`
	Metric               string   `json:"metric"`
	MetricHigherIsBetter *bool    `json:"metric_higher_is_better,omitempty"`
	Value                *float64 `json:"value,omitempty"`
	ValueError           *float64 `json:"value_error,omitempty"`
	Dataset              string   `json:"dataset,omitempty"`
	DatasetVersion       string   `json:"dataset_version,omitempty"`
	DatasetSplit         string   `json:"dataset_split,omitempty"`
	InferenceTime        *float64 `json:"inference_time,omitempty"`
	InferenceTimeUnit    string   `json:"inference_time_unit,omitempty"`
	InferenceDeviceClass string   `json:"inference_device_class,omitempty"`
}

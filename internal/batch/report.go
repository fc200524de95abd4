package batch

import (
	"encoding/json"
	"io"

	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

type reportEntry struct {
	Path     string              `json:"path"`
	Metadata *videometa.Metadata `json:"metadata,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type report struct {
	Total   int           `json:"total"`
	Valid   int           `json:"valid"`
	Invalid int           `json:"invalid"`
	Failed  int           `json:"failed"`
	Files   []reportEntry `json:"files"`
}

func encodeReport(w io.Writer, summary Summary) error {
	rep := report{
		Total:   summary.Total,
		Valid:   summary.Valid,
		Invalid: summary.Invalid,
		Failed:  summary.Failed,
	}
	for _, res := range summary.Results {
		entry := reportEntry{Path: res.Path, Metadata: res.Metadata}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		rep.Files = append(rep.Files, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

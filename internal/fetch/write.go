package fetch

import (
	"path/filepath"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// WritePartitions writes every fetched dataset as one file per period under
// <root>/<dataset>/period=<period>/ and returns the paths written
func WritePartitions(root string, report *Report, log *logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.Nop()
	}

	var written []string
	for _, ds := range report.Datasets {
		t := report.Tables[ds]
		periods, _ := t.Strings(contracts.ColPeriod)

		for _, period := range Periods(t) {
			part := t.Filter(func(i int) bool { return periods[i] == period })
			path := filepath.Join(store.PartitionDir(root, ds, period), store.PartitionFile)

			out, err := store.WriteTable(path, part, log)
			if err != nil {
				return written, err
			}
			written = append(written, out)
		}

		log.WithFields(map[string]interface{}{
			"dataset": ds,
			"rows":    t.Len(),
			"dir":     filepath.Join(root, ds),
		}).Info("Saved dataset")
	}
	return written, nil
}

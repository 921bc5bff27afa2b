package report

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/model"
)

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, records []model.ResultRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	for _, r := range records {
		if err := cw.Write(flatRow(r)); err != nil {
			return eris.Wrap(err, "report: write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush CSV")
	}
	return nil
}

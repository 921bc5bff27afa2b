package firmdata

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/fetcher"
	"github.com/sells-group/credit-stress/internal/model"
)

// field is one FirmProfile input and the column names accepted for it.
type field struct {
	name    string
	aliases []string
	set     func(*model.FirmProfile, float64)
}

var idAliases = []string{"firm", "identifier", "id"}

var numericFields = []field{
	{"equity_value", []string{"equity_value"}, func(f *model.FirmProfile, v float64) { f.EquityValue = v }},
	{"equity_vol", []string{"equity_vol"}, func(f *model.FirmProfile, v float64) { f.EquityVol = v }},
	{"debt_face", []string{"debt_face"}, func(f *model.FirmProfile, v float64) { f.DebtFace = v }},
	{"risk_free", []string{"risk_free", "risk_free_rate"}, func(f *model.FirmProfile, v float64) { f.RiskFreeRate = v }},
	{"horizon_years", []string{"horizon_years", "horizon"}, func(f *model.FirmProfile, v float64) { f.HorizonYears = v }},
}

// record is one decoded row keyed by lower-cased column name.
type record struct {
	row    int
	values map[string]string
}

func (r record) lookup(aliases []string) (string, bool) {
	for _, a := range aliases {
		if v, ok := r.values[a]; ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func (r record) profile() (model.FirmProfile, error) {
	var f model.FirmProfile

	id, _ := r.lookup(idAliases)
	if id == "" {
		return f, eris.Wrapf(model.ErrInvalidInput, "firmdata: row %d: firm identifier is empty", r.row)
	}
	f.ID = id

	for _, fd := range numericFields {
		raw, ok := r.lookup(fd.aliases)
		if !ok || raw == "" {
			return f, eris.Wrapf(model.ErrInvalidInput, "firmdata: row %d (%s): %s is missing", r.row, id, fd.name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, eris.Wrapf(model.ErrInvalidInput, "firmdata: row %d (%s): %s %q is not a number", r.row, id, fd.name, raw)
		}
		fd.set(&f, v)
	}
	return f, nil
}

// tableRecords maps table rows onto records after checking that every
// input has a column. Row numbers count the header as row 1.
func tableRecords(t *fetcher.Table) ([]record, error) {
	cols := map[string]int{}
	var missing []string

	resolve := func(name string, aliases []string) {
		i := t.Column(aliases...)
		if i < 0 {
			missing = append(missing, name)
			return
		}
		cols[name] = i
	}
	resolve("firm", idAliases)
	for _, fd := range numericFields {
		resolve(fd.name, fd.aliases)
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(model.ErrInvalidInput, "firmdata: missing columns: %s", strings.Join(missing, ", "))
	}

	recs := make([]record, 0, len(t.Rows))
	for i, row := range t.Rows {
		values := make(map[string]string, len(cols))
		for name, c := range cols {
			if c < len(row) {
				values[name] = row[c]
			}
		}
		recs = append(recs, record{row: i + 2, values: values})
	}
	return recs, nil
}

// canonical rewrites alias keys to the canonical field names.
func canonical(row int, raw map[string]string) record {
	lower := make(map[string]string, len(raw))
	for k, v := range raw {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	values := make(map[string]string, len(numericFields)+1)
	r := record{row: row, values: lower}
	if v, ok := r.lookup(idAliases); ok {
		values["firm"] = v
	}
	for _, fd := range numericFields {
		if v, ok := r.lookup(fd.aliases); ok {
			values[fd.name] = v
		}
	}
	return record{row: row, values: values}
}

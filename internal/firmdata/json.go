package firmdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/model"
)

// decodeJSON reads an array of firm objects. Element i is row i+1.
// Numbers are kept as their literal text so they parse exactly like CSV cells.
func decodeJSON(ctx context.Context, r io.Reader) ([]record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "firmdata: json: read opening token")
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, eris.Errorf("firmdata: json: expected an array of firms, got %v", tok)
	}

	var recs []record
	for row := 1; dec.More(); row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "firmdata: json")
		}

		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, eris.Wrapf(model.ErrInvalidInput, "firmdata: json: row %d: %v", row, err)
		}
		recs = append(recs, jsonRecord(row, obj))
	}

	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(err, "firmdata: json: read closing token")
	}
	return recs, nil
}

func jsonRecord(row int, obj map[string]any) record {
	raw := make(map[string]string, len(obj))
	for k, v := range obj {
		switch x := v.(type) {
		case string:
			raw[k] = x
		case json.Number:
			raw[k] = x.String()
		case bool:
			raw[k] = strconv.FormatBool(x)
		case nil:
		default:
			// Objects and arrays; never a valid field value.
			raw[k] = "<nested>"
		}
	}
	return canonical(row, raw)
}

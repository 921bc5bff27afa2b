package firmdata

import (
	"context"
	"encoding/xml"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

const xmlFirmElement = "firm"

// xmlFirm captures every attribute and child element of a <firm> element.
type xmlFirm struct {
	Attrs  []xml.Attr `xml:",any,attr"`
	Fields []struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	} `xml:",any"`
}

func (x xmlFirm) record(row int) record {
	raw := make(map[string]string, len(x.Attrs)+len(x.Fields))
	for _, a := range x.Attrs {
		raw[a.Name.Local] = a.Value
	}
	for _, f := range x.Fields {
		raw[f.XMLName.Local] = f.Value
	}
	return canonical(row, raw)
}

// decodeXML collects every <firm> element at any depth, numbering them in
// document order. Declared non-UTF-8 charsets are transcoded.
func decodeXML(ctx context.Context, r io.Reader) ([]record, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var recs []record
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "firmdata: xml")
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "firmdata: xml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != xmlFirmElement {
			continue
		}

		row := len(recs) + 1
		var el xmlFirm
		if err := dec.DecodeElement(&el, &se); err != nil {
			return nil, eris.Wrapf(err, "firmdata: xml: firm %d", row)
		}
		recs = append(recs, el.record(row))
	}
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

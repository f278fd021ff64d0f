package mlt

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const xmlDeclaration = `<?xml version="1.0" standalone="no"?>` + "\n"

// Marshal encodes the document with the declaration and indentation Shotcut
// itself produces.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "mlt"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "LC_NUMERIC"}, Value: "C"},
			{Name: xml.Name{Local: "version"}, Value: d.Version},
			{Name: xml.Name{Local: "title"}, Value: d.Title},
			{Name: xml.Name{Local: "producer"}, Value: d.Producer},
		},
	}

	if err := enc.EncodeToken(root); err != nil {
		return nil, fmt.Errorf("encode mlt root: %w", err)
	}
	if err := enc.Encode(d.Profile); err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	for _, el := range d.Body {
		if err := enc.Encode(el); err != nil {
			return nil, fmt.Errorf("encode element: %w", err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, fmt.Errorf("close mlt root: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

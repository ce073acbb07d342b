package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

const productElement = "product"

// Decode reads a feed document and returns its products in document order.
// Products are decoded one element at a time so the whole body is never held
// as a tree.
func Decode(r io.Reader) ([]Product, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		products []Product
		sawRoot  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != productElement {
			continue
		}

		var raw xmlProduct
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, &DecodeError{
				Offset: dec.InputOffset(),
				Err:    fmt.Errorf("product #%d: %w", len(products)+1, err),
			}
		}
		products = append(products, raw.toProduct())
	}

	if !sawRoot {
		return nil, &DecodeError{Offset: dec.InputOffset(), Err: errors.New("document has no root element")}
	}

	return products, nil
}

func (x *xmlProduct) toProduct() Product {
	p := Product{
		SupplierID:  strings.TrimSpace(x.ID),
		Name:        text(x.Name),
		Quantity:    strings.TrimSpace(x.Qty),
		EAN:         strings.TrimSpace(x.EAN),
		NetPrice:    strings.TrimSpace(x.NetPrice),
		VATRate:     strings.TrimSpace(x.VAT),
		Weight:      strings.TrimSpace(x.Weight),
		Unit:        text(x.Unit),
		Brand:       text(x.Brand),
		Description: norm.NFC.String(x.Description),
	}

	if len(x.Attributes) > 0 {
		p.Attributes = make([]string, 0, len(x.Attributes))
		for _, a := range x.Attributes {
			p.Attributes = append(p.Attributes, text(a))
		}
	}
	if len(x.Photos) > 0 {
		p.Photos = make([]Photo, 0, len(x.Photos))
		for _, ph := range x.Photos {
			p.Photos = append(p.Photos, Photo{
				ID:  strings.TrimSpace(ph.ID),
				URL: strings.TrimSpace(ph.URL),
			})
		}
	}
	return p
}

// text trims and NFC-normalizes a single-line feed value.
func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

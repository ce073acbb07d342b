package feed

// Photo is a reference to one product image in the supplier feed.
type Photo struct {
	ID  string
	URL string
}

// Product is one catalog entry as published by the supplier.
//
// Numeric fields keep the supplier's textual form; they are parsed per product
// during the upsert so one malformed value only affects its own record.
type Product struct {
	SupplierID  string
	Name        string
	Quantity    string
	EAN         string
	NetPrice    string
	VATRate     string
	Weight      string
	Unit        string
	Brand       string
	Description string
	Attributes  []string
	Photos      []Photo
}

// Identity returns the reconciliation key: the EAN when present, otherwise
// the supplier identifier. An empty result means the product cannot be keyed.
func (p *Product) Identity() string {
	if p.EAN != "" {
		return p.EAN
	}
	return p.SupplierID
}

// xmlProduct mirrors a <product> element of the feed document.
type xmlProduct struct {
	ID          string     `xml:"id"`
	Name        string     `xml:"name"`
	Qty         string     `xml:"qty"`
	EAN         string     `xml:"ean"`
	NetPrice    string     `xml:"price_net_after_discount"`
	VAT         string     `xml:"vat"`
	Weight      string     `xml:"weight"`
	Unit        string     `xml:"unit"`
	Brand       string     `xml:"brand"`
	Description string     `xml:"desc"`
	Attributes  []string   `xml:"attributes>attribute"`
	Photos      []xmlPhoto `xml:"photos>photo"`
}

type xmlPhoto struct {
	ID  string `xml:"id,attr"`
	URL string `xml:",chardata"`
}

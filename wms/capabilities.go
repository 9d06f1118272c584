package wms

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Capabilities is the part of a WMS 1.1.1 WMT_MS_Capabilities document the
// layer looks at
type Capabilities struct {
	XMLName    xml.Name   `xml:"WMT_MS_Capabilities"`
	Version    string     `xml:"version,attr"`
	Service    Service    `xml:"Service"`
	Capability Capability `xml:"Capability"`
}

// Service 服务元数据
type Service struct {
	Name               string             `xml:"Name"`
	Title              string             `xml:"Title"`
	Abstract           string             `xml:"Abstract"`
	OnlineResource     OnlineResource     `xml:"OnlineResource"`
	ContactInformation ContactInformation `xml:"ContactInformation"`
	Fees               string             `xml:"Fees"`
	AccessConstraints  string             `xml:"AccessConstraints"`
}

type OnlineResource struct {
	Href string `xml:"http://www.w3.org/1999/xlink href,attr"`
}

type ContactInformation struct {
	ContactAddress               ContactAddress `xml:"ContactAddress"`
	ContactElectronicMailAddress string         `xml:"ContactElectronicMailAddress"`
}

type ContactAddress struct {
	AddressType     string `xml:"AddressType"`
	Address         string `xml:"Address"`
	City            string `xml:"City"`
	StateOrProvince string `xml:"StateOrProvince"`
	PostCode        string `xml:"PostCode"`
	Country         string `xml:"Country"`
}

type Capability struct {
	Layer Layer `xml:"Layer"`
}

// Layer 能力文档中的图层, 可嵌套
type Layer struct {
	Name     string   `xml:"Name"`
	Title    string   `xml:"Title"`
	Abstract string   `xml:"Abstract"`
	SRS      []string `xml:"SRS"`
	Layers   []Layer  `xml:"Layer"`
}

// Walk calls fn for the layer and all its descendants, depth first
func (l *Layer) Walk(fn func(*Layer)) {
	fn(l)
	for i := range l.Layers {
		l.Layers[i].Walk(fn)
	}
}

// LayerNames lists every named layer in the document
func (c *Capabilities) LayerNames() []string {
	var names []string
	c.Capability.Layer.Walk(func(l *Layer) {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	})
	return names
}

// HasLayer reports whether a layer called name is advertised
func (c *Capabilities) HasLayer(name string) bool {
	found := false
	c.Capability.Layer.Walk(func(l *Layer) {
		if l.Name == name {
			found = true
		}
	})
	return found
}

// SupportsSRS reports whether srsName is advertised by any layer.
// WMS 1.1.1 allows several codes in one SRS element separated by spaces.
func (c *Capabilities) SupportsSRS(srsName string) bool {
	found := false
	c.Capability.Layer.Walk(func(l *Layer) {
		for _, s := range l.SRS {
			for _, code := range strings.Fields(s) {
				if strings.EqualFold(code, srsName) {
					found = true
				}
			}
		}
	})
	return found
}

// Parser turns a GetCapabilities response into Capabilities
type Parser interface {
	Parse(data []byte) (*Capabilities, error)
}

// XMLParser decodes WMS 1.1.1 capabilities documents
type XMLParser struct{}

func (XMLParser) Parse(data []byte) (*Capabilities, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// entities declared in the external 1.1.1 DTD are not resolved
	dec.Strict = false
	var caps Capabilities
	if err := dec.Decode(&caps); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	return &caps, nil
}

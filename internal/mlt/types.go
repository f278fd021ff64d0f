package mlt

import "encoding/xml"

// The XML vocabulary below mirrors what Shotcut writes for its own projects.
// Property elements carry their value as character data, everything else is
// attributes.

// Profile declares the timeline's frame geometry and rate
type Profile struct {
	XMLName          xml.Name `xml:"profile"`
	Description      string   `xml:"description,attr"`
	Width            int      `xml:"width,attr"`
	Height           int      `xml:"height,attr"`
	Progressive      int      `xml:"progressive,attr"`
	SampleAspectNum  int      `xml:"sample_aspect_num,attr"`
	SampleAspectDen  int      `xml:"sample_aspect_den,attr"`
	DisplayAspectNum int      `xml:"display_aspect_num,attr"`
	DisplayAspectDen int      `xml:"display_aspect_den,attr"`
	FrameRateNum     int      `xml:"frame_rate_num,attr"`
	FrameRateDen     int      `xml:"frame_rate_den,attr"`
	Colorspace       string   `xml:"colorspace,attr"`
}

// Property is a single name/value pair inside a producer-like element
type Property struct {
	XMLName xml.Name `xml:"property"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:",chardata"`
}

// Chain is an avformat source declaration
type Chain struct {
	XMLName    xml.Name   `xml:"chain"`
	ID         string     `xml:"id,attr"`
	Out        string     `xml:"out,attr"`
	Properties []Property `xml:"property"`
}

// Entry references a producer for a span of its content
type Entry struct {
	XMLName  xml.Name `xml:"entry"`
	Producer string   `xml:"producer,attr"`
	In       string   `xml:"in,attr"`
	Out      string   `xml:"out,attr"`
}

// Playlist is an ordered sequence of entries
type Playlist struct {
	XMLName    xml.Name   `xml:"playlist"`
	ID         string     `xml:"id,attr"`
	Title      string     `xml:"title,attr,omitempty"`
	Properties []Property `xml:"property"`
	Entries    []Entry    `xml:"entry"`
}

// Producer is a generic source; used here for the black filler
type Producer struct {
	XMLName    xml.Name   `xml:"producer"`
	ID         string     `xml:"id,attr"`
	In         string     `xml:"in,attr"`
	Out        string     `xml:"out,attr"`
	Properties []Property `xml:"property"`
}

// Track places a playlist on the timeline
type Track struct {
	XMLName  xml.Name `xml:"track"`
	Producer string   `xml:"producer,attr"`
}

// Transition composites two tracks
type Transition struct {
	XMLName    xml.Name   `xml:"transition"`
	ID         string     `xml:"id,attr"`
	Properties []Property `xml:"property"`
}

// Tractor is the timeline: tracks plus the transitions joining them
type Tractor struct {
	XMLName    xml.Name     `xml:"tractor"`
	ID         string       `xml:"id,attr"`
	Title      string       `xml:"title,attr"`
	In         string       `xml:"in,attr"`
	Out        string       `xml:"out,attr"`
	Properties []Property   `xml:"property"`
	Tracks     []Track      `xml:"track"`
	Transition []Transition `xml:"transition"`
}

// Document is the assembled project file. Shotcut expects the root's
// children in declaration order, which does not fit a single struct, so the
// body is kept as an ordered element list and encoded sequentially.
type Document struct {
	Version  string
	Title    string
	Producer string
	Profile  Profile
	Body     []any
}

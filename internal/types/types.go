// Package types defines every cross-package data structure used by the loctree CLI.
package types

import "encoding/xml"

const (
	ModeTree  = "tree"
	ModeFiles = "files"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// ValidatedPath is an absolute input directory that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
}

// Summary aggregates the files rendered in one report.
type Summary struct {
	Files       int    `json:"files" xml:"files"`
	Lines       int    `json:"lines" xml:"lines"`
	Size        string `json:"size" xml:"size"`
	SizeBytes   int64  `json:"-" xml:"-"`
	BinaryFiles int    `json:"binaryFiles,omitempty" xml:"binaryFiles,omitempty"`
	Flagged     int    `json:"flagged" xml:"flagged"`
	Tokens      int    `json:"tokens,omitempty" xml:"tokens,omitempty"`
	Model       string `json:"model,omitempty" xml:"model,omitempty"`
}

// Report is the rendered listing of one root directory.
type Report struct {
	XMLName xml.Name `json:"-" xml:"report"`
	Root    string   `json:"root" xml:"root,attr"`
	Name    string   `json:"name" xml:"name,attr"`
	Mode    string   `json:"mode" xml:"mode,attr"`
	Lines   []string `json:"lines" xml:"lines>line"`
	Summary *Summary `json:"summary,omitempty" xml:"summary,omitempty"`
}

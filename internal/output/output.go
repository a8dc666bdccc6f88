// Package output renders reports as raw text, JSON, or XML.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/tyemirov/loctree/internal/tree"
	"github.com/tyemirov/loctree/internal/types"
	"github.com/tyemirov/loctree/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader = xml.Header

	headerFormat       = "%s %s\n"
	summaryFormat      = "Summary: %s %s, %s %s, %s, %s flagged%s"
	tokenSuffixFormat  = ", %s tokens"
	modelSuffixFormat  = " (model: %s)"
	errorUnknownFormat = "unsupported format %q"
)

// Render writes reports to writer in the requested format.
func Render(writer io.Writer, format string, reports []types.Report, includeSummary bool) error {
	switch format {
	case types.FormatRaw, "":
		RenderRaw(writer, reports, includeSummary)
		return nil
	case types.FormatJSON:
		encoded, renderError := RenderJSON(reports, includeSummary)
		if renderError != nil {
			return renderError
		}
		_, writeError := fmt.Fprintln(writer, encoded)
		return writeError
	case types.FormatXML:
		encoded, renderError := RenderXML(reports, includeSummary)
		if renderError != nil {
			return renderError
		}
		_, writeError := fmt.Fprintln(writer, encoded)
		return writeError
	default:
		return fmt.Errorf(errorUnknownFormat, format)
	}
}

// RenderString returns what Render would write.
func RenderString(format string, reports []types.Report, includeSummary bool) (string, error) {
	var buffer bytes.Buffer
	if renderError := Render(&buffer, format, reports, includeSummary); renderError != nil {
		return "", renderError
	}
	return buffer.String(), nil
}

// RenderRaw writes each report as a folder header followed by its tree lines.
// Reports are separated by a blank line.
func RenderRaw(writer io.Writer, reports []types.Report, includeSummary bool) {
	for index, report := range reports {
		if index > 0 {
			fmt.Fprintln(writer)
		}
		fmt.Fprintf(writer, headerFormat, tree.FolderIcon, report.Name)
		for _, line := range report.Lines {
			fmt.Fprintln(writer, line)
		}
		if includeSummary && report.Summary != nil {
			fmt.Fprintln(writer, FormatSummaryLine(report.Summary))
		}
	}
}

// RenderJSON marshals reports as an indented JSON array.
func RenderJSON(reports []types.Report, includeSummary bool) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(prepare(reports, includeSummary), indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}

// RenderXML marshals reports inside a <reports> element.
func RenderXML(reports []types.Report, includeSummary bool) (string, error) {
	wrapper := struct {
		XMLName xml.Name       `xml:"reports"`
		Reports []types.Report `xml:"report"`
	}{Reports: prepare(reports, includeSummary)}
	encoded, xmlMarshalError := xml.MarshalIndent(wrapper, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded), nil
}

// FormatSummaryLine formats a Summary into the raw summary line.
func FormatSummaryLine(summary *types.Summary) string {
	if summary == nil {
		summary = &types.Summary{}
	}
	size := summary.Size
	if size == "" {
		size = utils.FormatFileSize(summary.SizeBytes)
	}
	extra := ""
	if summary.Tokens > 0 {
		extra = fmt.Sprintf(tokenSuffixFormat, utils.FormatCount(summary.Tokens))
		if summary.Model != "" {
			extra += fmt.Sprintf(modelSuffixFormat, summary.Model)
		}
	}
	return fmt.Sprintf(summaryFormat,
		utils.FormatCount(summary.Files), plural(summary.Files, "file"),
		utils.FormatCount(summary.Lines), plural(summary.Lines, "line"),
		size, utils.FormatCount(summary.Flagged), extra)
}

func plural(count int, noun string) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

// prepare copies reports, dropping summaries when they were not requested and
// replacing nil line slices so JSON shows an empty array.
func prepare(reports []types.Report, includeSummary bool) []types.Report {
	prepared := make([]types.Report, 0, len(reports))
	for _, report := range reports {
		if !includeSummary {
			report.Summary = nil
		}
		if report.Lines == nil {
			report.Lines = []string{}
		}
		prepared = append(prepared, report)
	}
	return prepared
}

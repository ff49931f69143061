package rules

import (
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
)

// CitationFile is the Citation File Format descriptor name.
const CitationFile = "CITATION.cff"

// citationProbeProps are scanned for CITATION.cff sources when the citation
// property itself does not mention the file.
var citationProbeProps = []string{
	record.PropAuthors,
	record.PropTitle,
	record.PropDescription,
	record.PropVersion,
	record.PropLicense,
}

// CitationReference (P007) reports a CITATION.cff that lacks the reference
// publication codemeta.json cites.
type CitationReference struct {
	Base
	CodemetaHasReference    bool   `json:"codemeta_has_reference"`
	CitationCFFHasReference bool   `json:"citation_cff_has_reference"`
	CitationCFFExists       bool   `json:"citation_cff_exists"`
	CodemetaReference       string `json:"codemeta_reference,omitempty"`
	CitationCFFReference    string `json:"citation_cff_reference,omitempty"`
}

func isLinkLike(s string) bool {
	return strings.Contains(s, "doi.org") || strings.Contains(s, "http")
}

// CitationDiverges reports whether a CITATION.cff citation fails to carry
// the reference cited by codemeta.json. An empty cff citation always
// diverges. When codemeta cites a link, the cff citation must also be a
// link, and one of the two must contain the other.
func CitationDiverges(codemeta, cff string) bool {
	if cff == "" {
		return true
	}
	if cff == codemeta || !isLinkLike(codemeta) {
		return false
	}
	if !isLinkLike(cff) {
		return true
	}
	return !strings.Contains(cff, codemeta) && !strings.Contains(codemeta, cff)
}

// DetectCitationReference compares the citation from codemeta.json with
// the one from CITATION.cff. For each file the last string entry wins;
// values of any other shape are ignored. The rule
// only fires when codemeta.json cites something and a CITATION.cff was
// seen anywhere in the record.
func DetectCitationReference(rec record.Record, b Base) CitationReference {
	res := CitationReference{Base: b}

	var codemetaRef, cffRef string
	for _, e := range rec.Entries(record.PropCitation) {
		switch {
		case e.IsCodemetaParsed():
			if v, ok := e.StringValue(); ok {
				codemetaRef = v
				res.CodemetaHasReference = true
			}
		case strings.Contains(e.Source, CitationFile):
			res.CitationCFFExists = true
			if v, ok := e.StringValue(); ok {
				cffRef = v
			}
		}
	}
	if !res.CitationCFFExists {
		res.CitationCFFExists = citationFileSeen(rec)
	}

	res.CitationCFFHasReference = cffRef != ""
	res.CodemetaReference = codemetaRef
	res.CitationCFFReference = cffRef

	if codemetaRef == "" || !res.CitationCFFExists {
		return res
	}
	res.Triggered = CitationDiverges(codemetaRef, cffRef)
	return res
}

func citationFileSeen(rec record.Record) bool {
	for _, prop := range citationProbeProps {
		for _, e := range rec.Entries(prop) {
			if strings.Contains(e.Source, CitationFile) {
				return true
			}
		}
	}
	return false
}

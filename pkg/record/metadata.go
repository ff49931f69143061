package record

import (
	"path"
	"strings"
)

// MetadataFiles is the set of recognized project metadata files, in
// canonical spelling.
var MetadataFiles = []string{
	"codemeta.json",
	"DESCRIPTION",
	"composer.json",
	"package.json",
	"pom.xml",
	"pyproject.toml",
	"requirements.txt",
	"setup.py",
}

// CodemetaFile is the canonical codemeta descriptor name.
const CodemetaFile = "codemeta.json"

// FallbackSourceName is returned by ResolveMetadataFilename when a source
// cannot be attributed to a file.
const FallbackSourceName = "metadata files"

// configExtensions mark a path segment as a typed configuration file.
var configExtensions = []string{".json", ".xml", ".yml", ".toml", ".txt"}

// HasMetadataFile reports whether source contains one of the canonical
// metadata file names, compared case-sensitively.
func HasMetadataFile(source string) bool {
	for _, name := range MetadataFiles {
		if strings.Contains(source, name) {
			return true
		}
	}
	return false
}

// HasMetadataFileFold reports whether the lowercased source contains the
// lowercased name of a metadata file. This is looser than HasMetadataFile:
// "description" also matches, for example, "repo/docs/description.md".
func HasMetadataFileFold(source string) bool {
	lower := strings.ToLower(source)
	for _, name := range MetadataFiles {
		if strings.Contains(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// IsMetadataTechnique reports whether technique is itself spelled like a
// metadata file name. Some extractors record the parsed file there.
func IsMetadataTechnique(technique string) bool {
	for _, name := range MetadataFiles {
		if technique == name {
			return true
		}
	}
	return false
}

// IsCodeParser reports whether the entry was produced by parsing a file.
func (e Entry) IsCodeParser() bool {
	return e.Technique == TechniqueCodeParser
}

// IsCodemeta reports whether the entry is attributed to codemeta.json:
// either the source names the file exactly, or a code_parser entry has
// "codemeta" anywhere in its source, ignoring case.
func (e Entry) IsCodemeta() bool {
	if strings.Contains(e.Source, CodemetaFile) {
		return true
	}
	return e.IsCodeParser() && strings.Contains(strings.ToLower(e.Source), "codemeta")
}

// IsCodemetaParsed reports whether the entry is a code_parser entry whose
// source contains codemeta.json.
func (e Entry) IsCodemetaParsed() bool {
	return e.IsCodeParser() && strings.Contains(e.Source, CodemetaFile)
}

// ResolveMetadataFilename maps a raw source string to the metadata file it
// refers to. A canonical metadata file name contained in the source wins.
// Otherwise the last path segment is returned when it is itself a
// canonical name or looks like a typed configuration file. Anything else
// resolves to FallbackSourceName.
func ResolveMetadataFilename(source string) string {
	if source == "" {
		return FallbackSourceName
	}
	for _, name := range MetadataFiles {
		if strings.Contains(source, name) {
			return name
		}
	}
	if !strings.ContainsAny(source, `/\`) {
		return FallbackSourceName
	}

	segment := lastSegment(source)
	for _, name := range MetadataFiles {
		if segment == name {
			return segment
		}
	}
	lower := strings.ToLower(segment)
	for _, ext := range configExtensions {
		if strings.Contains(lower, ext) {
			return segment
		}
	}
	return FallbackSourceName
}

// Basename returns the last path segment of source, accepting both slash
// styles. Empty input, or input ending in a separator, yields
// FallbackSourceName.
func Basename(source string) string {
	if source == "" {
		return FallbackSourceName
	}
	seg := lastSegment(source)
	if seg == "" {
		return FallbackSourceName
	}
	return seg
}

func lastSegment(source string) string {
	s := strings.ReplaceAll(source, `\`, "/")
	if strings.HasSuffix(s, "/") {
		return ""
	}
	return path.Base(s)
}

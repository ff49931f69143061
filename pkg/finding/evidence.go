package finding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// maxListed bounds how many offending items an evidence text names.
const maxListed = 3

// Evidence renders the human-readable evidence of a result. Every text
// starts with "<CODE> detected: ". When the result lacks the fields its
// template needs, a generic text naming the analyzed file is used.
func Evidence(res rules.Result) string {
	prefix := string(res.Code()) + " detected: "
	if text := evidenceText(res); text != "" {
		return prefix + text
	}
	file := res.File()
	if file == "" {
		file = "unknown file"
	}
	return prefix + "Issue detected in " + file
}

func evidenceText(res rules.Result) string {
	switch r := res.(type) {
	case rules.VersionMismatch:
		return fmt.Sprintf("%s version '%s' does not match release version '%s'",
			metadataSource(r.MetadataSourceFile, r.MetadataSource),
			orUnknown(r.MetadataVersion, "unknown"), orUnknown(r.ReleaseVersion, "unknown"))
	case rules.LicensePlaceholders:
		if len(r.Placeholders) > 0 {
			return "License file contains unreplaced template placeholders: " + listed(r.Placeholders)
		}
		return "License file contains template placeholders that were not replaced"
	case rules.MultipleAuthors:
		return fmt.Sprintf("%s Multiple authors found in single field: '%s'",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.AuthorValue, "unknown"))
	case rules.ReadmeHomepage:
		return "codemeta.json README property points to homepage/wiki instead of README file: " +
			orUnknown(r.ReadmeURL, "unknown URL")
	case rules.ReferenceArchive:
		return "codemeta.json Reference publication points to software archive instead of paper: " +
			orUnknown(r.ReferenceURL, "unknown URL")
	case rules.LocalFileLicense:
		return fmt.Sprintf("%s License points to local file instead of license name: '%s'",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.LicenseValue, "unknown"))
	case rules.CitationReference:
		return "CITATION.cff file exists but does not contain referencePublication while codemeta.json references it"
	case rules.InvalidRequirementURL:
		urls := make([]string, 0, len(r.InvalidURLs))
		for _, st := range r.InvalidURLs {
			if st.URL != "" {
				urls = append(urls, st.URL)
			}
		}
		if len(urls) == 0 {
			return "Software requirements contain invalid URLs"
		}
		return fmt.Sprintf("%s Software requirements contain invalid URLs: %s",
			metadataSource(r.MetadataSourceFile, r.Source), listed(urls))
	case rules.RepositoryHomepage:
		return fmt.Sprintf("%s codeRepository points to homepage instead of repository: %s",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.RepositoryURL, "unknown URL"))
	case rules.CopyrightOnlyLicense:
		return "LICENSE file only contains copyright information without actual license terms"
	case rules.IssueTrackerUnreachable:
		return "codemeta.json IssueTracker URL violates expected format: " + orUnknown(r.IssueURL, "unknown URL")
	case rules.OutdatedDownloadURL:
		text := "codemeta.json downloadURL is outdated or invalid: " + orUnknown(r.DownloadURL, "unknown URL")
		if r.DownloadVersion != "" && r.LatestReleaseVersion != "" {
			text += fmt.Sprintf(" (version %s, latest release %s)", r.DownloadVersion, r.LatestReleaseVersion)
		}
		return text
	case rules.UnversionedLicense:
		return fmt.Sprintf("%s License does not specify version: '%s'",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.LicenseValue, "unknown"))
	case rules.BareDOI:
		return fmt.Sprintf("Identifier uses bare DOI instead of full URL: '%s'", orUnknown(r.IdentifierValue, "unknown"))
	case rules.CIUnreachable:
		status := "unknown"
		if r.StatusCode != 0 {
			status = strconv.Itoa(r.StatusCode)
		}
		return fmt.Sprintf("codemeta.json Continuous integration URL returns %s: %s", status, orUnknown(r.CIURL, "unknown URL"))
	case rules.DifferentRepository:
		return "codeRepository points to different repository: " + orUnknown(r.GitHubAPIURL, "unknown URL")
	case rules.CodemetaVersionMismatch:
		text := fmt.Sprintf("codemeta.json version '%s' does not match package version", orUnknown(r.CodemetaVersion, "unknown"))
		if len(r.MismatchedVersions) > 0 {
			parts := make([]string, len(r.MismatchedVersions))
			for i, v := range r.MismatchedVersions {
				parts[i] = fmt.Sprintf("'%s' in %s", v.Version, record.Basename(v.Source))
			}
			text += ": " + listed(parts)
		}
		return text
	case rules.RawSWHID:
		return fmt.Sprintf("codemeta Identifier uses raw SWHID without resolvable URL: '%s'", orUnknown(r.IdentifierValue, "unknown"))
	case rules.AuthorCount:
		if len(r.Inconsistencies) == 0 {
			return ""
		}
		first := r.Inconsistencies[0]
		return fmt.Sprintf("author count differs between sources: %s lists %d, %s lists %d",
			first.SourceWithFewer, first.FewerCount, first.SourceWithMore, first.MoreCount)

	case rules.UnversionedRequirements:
		if len(r.UnversionedRequirements) == 0 {
			return "Software requirements found without version specifications"
		}
		return fmt.Sprintf("%s contains software requirements without versions: %s",
			metadataSource(r.MetadataSourceFile, r.MetadataSource), listed(r.UnversionedRequirements))
	case rules.OutdatedDateModified:
		if r.CodemetaDateParsed == "" && r.GitHubAPIDateParsed == "" {
			return "dateModified in codemeta.json is outdated compared to actual repository last update"
		}
		return fmt.Sprintf("codemeta.json dateModified '%s' is outdated compared to repository date '%s'",
			orUnknown(r.CodemetaDateParsed, "unknown"), orUnknown(r.GitHubAPIDateParsed, "unknown"))
	case rules.DualLicense:
		return fmt.Sprintf("%s suggests multiple licenses but codemeta.json lists %d",
			metadataSource("", r.DualLicenseSource), r.CodemetaLicenseCount)
	case rules.LanguageNoVersion:
		switch {
		case len(r.LanguagesWithoutVersion) > 0:
			return "codemeta.json Programming languages without versions: " + strings.Join(r.LanguagesWithoutVersion, ", ")
		case len(r.RequirementsWithoutVersion) > 0:
			return "codemeta.json Software requirements without versions: " + strings.Join(r.RequirementsWithoutVersion, ", ")
		}
		return "codemeta.json Programming languages in metadata do not have version specifications"
	case rules.MultipleRequirements:
		return fmt.Sprintf("%s Multiple requirements written as single string: '%s'",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.RequirementString, "unknown"))
	case rules.IdentifierName:
		return fmt.Sprintf("codemeta.json Identifier is a name instead of valid unique identifier: '%s'",
			orUnknown(r.CodemetaIdentifier.Text(), "unknown"))
	case rules.EmptyIdentifier:
		return "codemeta.json identifier field is empty or missing"
	case rules.GivenNameList:
		return fmt.Sprintf("%s GivenName is a list instead of string: %s",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.AuthorValue, "unknown"))
	case rules.DevelopmentStatusURL:
		return "codemeta.json developmentStatus is a URL instead of status string: " + orUnknown(r.DevelopmentStatus, "unknown")
	case rules.GitShorthand:
		return fmt.Sprintf("%s codeRepository uses Git shorthand instead of full URL: '%s'",
			metadataSource(r.MetadataSourceFile, r.Source), orUnknown(r.RepositoryURL, "unknown URL"))
	}
	return ""
}

// metadataSource names the metadata file behind a finding: the resolved
// file when the rule recorded one, else the last segment of the raw source.
func metadataSource(file, source string) string {
	if file != "" {
		return file
	}
	return record.Basename(source)
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// listed joins up to maxListed items, marking truncation with "...".
func listed(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:maxListed], ", ") + "..."
}

package rules

// entry is the static catalog text of one rule.
type entry struct {
	category    Category
	description string
	suggestion  string
}

var catalog = map[Code]entry{
	"P001": {CategoryMetadataFile,
		"The metadata file (codemeta or other) has a version which does not correspond to the version used in the latest release",
		"Ensure the version in your metadata matches the latest official release. Keeping these synchronized avoids confusion for users and improves reproducibility."},
	"P002": {CategoryLicense,
		"LICENSE file contains template placeholders like <program>, <year>, <name of author> that were not replaced",
		"Update the copyright section with accurate names, organizations, and the current year. Personalizing this section ensures clarity and legal accuracy."},
	"P003": {CategoryMetadataFile,
		"The metadata file (codemeta or other) has multiple authors in a single field instead of a list",
		"You should separate multiple authors into a structured list. This allows tools and citation systems to correctly identify and credit each contributor."},
	"P004": {CategoryCodemeta,
		"In codemeta.json the README property points to the homepage or wiki instead of the README file",
		"Update the README property so it points directly to your actual README file instead of your homepage. This helps ensure users and automated tools can access your project documentation easily."},
	"P005": {CategoryCodemeta,
		"codemeta.json referencePublication refers to a software archive instead of a paper",
		"Ensure that the referencePublication field points to the scholarly paper describing the software, not to a software archive or repository entry."},
	"P006": {CategoryMetadataFile,
		"The metadata file (codemeta or other) has a License pointing to a local file instead of stating the name",
		"You need to replace local file paths with recognized SPDX license identifiers, such as MIT or GPL-3.0-only in URL form. This ensures your license can be correctly detected by automated tools."},
	"P007": {CategoryCodemeta,
		"CITATION.cff does not have referencePublication even though it is referenced in codemeta.json",
		"Add a referencePublication field with the related DOI or citation entry to your CITATION.cff. This will help link your work to its scholarly references."},
	"P008": {CategoryMetadataFile,
		"The metadata file (codemeta or other) softwareRequirement points to an invalid page",
		"Verify and update any dependency links to ensure they lead to valid and accessible pages."},
	"P009": {CategoryMetadataFile,
		"The metadata file (codemeta or other) codeRepository points to the project homepage",
		"You need to update the codeRepository field to point directly to your repository's source code instead of a homepage. Accurate links improve traceability and user access."},
	"P010": {CategoryLicense,
		"LICENSE file only contains copyright information without actual license terms",
		"You need to include the complete text of a recognized license such as MIT, Apache 2.0, or GPL. A full license clarifies rights and usage conditions for others."},
	"P011": {CategoryCodemeta,
		"codemeta.json IssueTracker violates the expected URL format",
		"You need to correct the issue tracker URL so it follows a valid format, such as https://github.com/user/repo/issues. Proper links help users engage with your development process."},
	"P012": {CategoryCodemeta,
		"codemeta.json downloadURL is outdated",
		"You need to update the downloadURL field to point to your latest release or current distribution source. Outdated links can mislead users or cause failed installations."},
	"P013": {CategoryMetadataFile,
		"The metadata file (codemeta or other) License does not have the specific version",
		"You should declare the specific version of the license using a recognized SPDX identifier. For example, use 'GPL-3.0-only' or 'GPL-2.0-or-later' instead of simply 'GPL'."},
	"P014": {CategoryCodemeta,
		"codemeta.json uses bare DOIs in the identifier field instead of full https://doi.org/ URL",
		"You should include the full DOI URL form in your metadata (e.g., https://doi.org/XX.XXXX/zenodo.XXXX)."},
	"P015": {CategoryCodemeta,
		"In codemeta.json the contIntegration link returns 404",
		"You need to update the outdated URLs to point to the current CI platform, or remove the property if no active CI is in place. A good practice would be to periodically test all external links, especially those related to CI or build status."},
	"P016": {CategoryMetadataFile,
		"The metadata file (codemeta or other) codeRepository does not point to the same repository",
		"Make sure that the codeRepository URL in your metadata exactly matches the repository hosting your source code."},
	"P017": {CategoryCodemeta,
		"codemeta.json version does not match the package's",
		"You need to synchronize all version references across metadata and build configuration files."},
	"P018": {CategoryCodemeta,
		"codemeta.json Identifier uses raw SWHIDs without their resolvable URL",
		"Always use the full resolvable SWHID URL (e.g., https://archive.softwareheritage.org/swh:1:dir:abcd.../). This ensures that both humans and machines can access the archived software snapshot directly."},
	"P019": {CategoryMetadataFile,
		"Inconsistent author counts found across metadata files",
		"Make sure every metadata file lists the same authors. Keeping author lists in sync ensures that all contributors are credited consistently."},

	"W001": {CategoryMetadataFile,
		"The metadata file (codemeta or other) Software requirements don't have version specifications",
		"Add version numbers to your dependencies. This provides stability for users and allows reproducibility across different environments."},
	"W002": {CategoryCodemeta,
		"codemeta.json dateModified is outdated compared to the actual repository last update date",
		"Update dateModified in codemeta.json whenever you publish changes. Regenerating it as part of your release process keeps it aligned with the repository."},
	"W003": {CategoryLicense,
		"Repository has multiple licenses but in codemeta.json only has one listed",
		"Make sure you are using the correct licenses. This avoids confusion about terms of use and ensures full transparency."},
	"W004": {CategoryCodemeta,
		"Programming languages in codemeta.json do not have versions",
		"Include version numbers for each programming language used. Defining these helps ensure reproducibility and compatibility across systems."},
	"W005": {CategoryMetadataFile,
		"The metadata file (codemeta or other) softwareRequirements have more than one req, but it's written as one string",
		"Rewrite your dependencies as a proper list, with each item separated and preferably with their versions. This makes them easier to parse for metadata systems."},
	"W006": {CategoryCodemeta,
		"codemeta.json Identifier is a name instead of a valid unique identifier, but an identifier exists",
		"You should replace plain name in your identifier field with persistent identifiers, such as DOIs or SWHIDs, to improve discoverability and interoperability."},
	"W007": {CategoryCodemeta,
		"codemeta.json Identifier is empty",
		"Add a persistent identifier, such as a DOI, to the identifier field of codemeta.json, or remove the empty property."},
	"W008": {CategoryMetadataFile,
		"The metadata file givenName is a list instead of a string",
		"Ensure givenName is a single string per person. This ensures that every author is properly credited and can be extracted automatically."},
	"W009": {CategoryCodemeta,
		"codemeta.json developmentStatus is a URL instead of a string",
		"You need to replace URLs in the developmentStatus field with descriptive text values, such as 'active', 'beta', or 'stable'. This maintains schema compliance and clarity."},
	"W010": {CategoryMetadataFile,
		"The metadata file (codemeta or other) codeRepository uses Git remote-style shorthand instead of full URL",
		"You should replace the remote-style syntax with a full web-accessible URL (e.g., https://github.com/user/repo)."},
}

// Describe returns the catalog description of a rule, or "" for an
// unknown code.
func Describe(c Code) string { return catalog[c].description }

// Suggest returns the remediation text of a rule, or "" for an unknown
// code.
func Suggest(c Code) string { return catalog[c].suggestion }

// CategoryOf returns the indicator category of a rule. Unknown codes fall
// back to CategoryMetadataFile.
func CategoryOf(c Code) Category {
	if e, ok := catalog[c]; ok {
		return e.category
	}
	return CategoryMetadataFile
}

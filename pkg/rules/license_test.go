package rules

import (
	"reflect"
	"strconv"
	"testing"
)

const mitLicense = `MIT License

Copyright (c) 2021 Jane Doe

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.`

func TestLicenseTemplatePlaceholders(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Copyright <YEAR> <name of author>", []string{"<year>", "<name of author>"}},
		{"Copyright (c) [year] [fullname]", []string{"[year]", "[fullname]"}},
		{mitLicense, nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := LicenseTemplatePlaceholders(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("LicenseTemplatePlaceholders(%.30q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectLicensePlaceholders(t *testing.T) {
	rec := mustParse(t, `{"license": [
		{"source": "repo/LICENSE", "technique": "file_exploration", "result": {"value": "<program> Copyright <year>"}},
		{"source": "repo/LICENSE.md", "technique": "file_exploration", "result": {"value": "Copyright <year> <owner>"}}
	]}`)
	got := DetectLicensePlaceholders(rec, testBase("P002"))
	if !got.Fired() {
		t.Fatal("expected P002 to fire")
	}
	if got.LicenseSource != "repo/LICENSE.md" {
		t.Errorf("LicenseSource = %q", got.LicenseSource)
	}
	if want := []string{"<year>", "<owner>"}; !reflect.DeepEqual(got.Placeholders, want) {
		t.Errorf("Placeholders = %v, want %v", got.Placeholders, want)
	}
}

func TestIsLocalFileLicense(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"./LICENSE", true},
		{"../LICENSE", true},
		{"LICENSE", true},
		{"licence.txt", true},
		{"docs/license", true},
		{"COPYING.md", true},
		{"see notes.rst", true},
		{"MIT", false},
		{"GPL-3.0-only", false},
		{"https://opensource.org/licenses/MIT", false},
		{"http://example.org/LICENSE.txt", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsLocalFileLicense(tt.v); got != tt.want {
			t.Errorf("IsLocalFileLicense(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestDetectLocalFileLicense(t *testing.T) {
	rec := mustParse(t, `{"license": [
		{"source": "repo/README.md", "technique": "header_analysis", "result": {"value": "LICENSE"}},
		{"source": "repo/DESCRIPTION", "technique": "code_parser", "result": {"value": "MIT"}},
		{"source": "repo/DESCRIPTION", "technique": "code_parser", "result": {"value": "file LICENSE.md"}}
	]}`)
	got := DetectLocalFileLicense(rec, testBase("P006"))
	if !got.Fired() || got.LicenseValue != "file LICENSE.md" {
		t.Fatalf("got fired=%v value=%q", got.Fired(), got.LicenseValue)
	}
	if got.MetadataSourceFile != "DESCRIPTION" {
		t.Errorf("MetadataSourceFile = %q, want DESCRIPTION", got.MetadataSourceFile)
	}
}

func TestIsCopyrightOnlyLicense(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"year and holder fields", "YEAR: 2017\nCOPYRIGHT HOLDER: Adam H. Sparks", true},
		{"full license text", mitLicense, false},
		{"bare notice", "Copyright (c) 2020 Jane Doe", true},
		{"notice with rights line", "Copyright 2019 ACME Corp.\nAll rights reserved.", true},
		{"no copyright", "This is some text\nwith no notice", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCopyrightOnlyLicense(tt.text); got != tt.want {
				t.Errorf("IsCopyrightOnlyLicense() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectCopyrightOnlyLicense(t *testing.T) {
	tests := []struct {
		name  string
		value string
		fired bool
	}{
		{"copyright only", "YEAR: 2017\nCOPYRIGHT HOLDER: Adam H. Sparks", true},
		{"mit", mitLicense, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := mustParse(t, `{"license": [
				{"source": "repo/License.txt", "technique": "file_exploration", "result": {"value": `+strconv.Quote(tt.value)+`}}
			]}`)
			got := DetectCopyrightOnlyLicense(rec, testBase("P010"))
			if got.Fired() != tt.fired {
				t.Errorf("Fired() = %v, want %v", got.Fired(), tt.fired)
			}
			if got.LicenseSource != "repo/License.txt" {
				t.Errorf("LicenseSource = %q", got.LicenseSource)
			}
		})
	}
}

func TestUnversionedLicenseFamily(t *testing.T) {
	tests := []struct {
		v    string
		want string
	}{
		{"GPL", "GPL"},
		{"LGPL", "GPL"},
		{"GPL-3.0-only", ""},
		{"gpl v2", ""},
		{"Apache License", "Apache"},
		{"Apache-2.0", ""},
		{"Apache License, Version 2.0", ""},
		{"BSD", "BSD"},
		{"BSD-3-Clause", ""},
		{"0BSD", ""},
		{"CC-BY", "CC"},
		{"CC-BY-SA-4.0", ""},
		{"CC0-1.0", ""},
		{"CC0", ""},
		{"GPLv3", ""},
		{"Apache", "Apache"},
		{"GPL (>= 2)", "GPL"},
		{"MIT", ""},
	}
	for _, tt := range tests {
		if got := UnversionedLicenseFamily(tt.v); got != tt.want {
			t.Errorf("UnversionedLicenseFamily(%q) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestDetectUnversionedLicense(t *testing.T) {
	rec := mustParse(t, `{"license": [
		{"source": "repo/CODEMETA.json", "technique": "code_parser", "result": {"value": "GPL"}},
		{"source": "repo/pyproject.toml", "technique": "code_parser", "result": {"value": "Apache"}}
	]}`)
	got := DetectUnversionedLicense(rec, testBase("P013"))
	if !got.Fired() {
		t.Fatal("expected P013 to fire")
	}
	if got.LicenseValue != "Apache" || got.Family != "Apache" || got.MetadataSourceFile != "pyproject.toml" {
		t.Errorf("got %+v", got)
	}
}

func TestDetectDualLicense(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		fired bool
		count int
	}{
		{
			name: "single codemeta license",
			json: `{"license": [
				{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "MIT"}},
				{"source": "repo/LICENSE", "technique": "file_exploration", "result": {"value": "This project is dual licensed under MIT and Apache-2.0."}}
			]}`,
			fired: true, count: 1,
		},
		{
			name: "both licenses listed",
			json: `{"license": [
				{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "MIT"}},
				{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "Apache-2.0"}},
				{"source": "repo/LICENSE", "technique": "file_exploration", "result": {"value": "You may choose either license."}}
			]}`,
			count: 2,
		},
		{
			name: "no indicator",
			json: `{"license": [
				{"source": "repo/LICENSE", "technique": "file_exploration", "result": {"value": "Copyright 2020"}}
			]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDualLicense(mustParse(t, tt.json), testBase("W003"))
			if got.Fired() != tt.fired || got.CodemetaLicenseCount != tt.count {
				t.Errorf("fired=%v count=%d, want %v %d", got.Fired(), got.CodemetaLicenseCount, tt.fired, tt.count)
			}
		})
	}
}

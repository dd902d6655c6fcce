// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidExcerpt indicates an Excerpt failed validation.
	ErrInvalidExcerpt = errors.New("invalid excerpt")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidReportSpec indicates a ReportSpec failed validation.
	ErrInvalidReportSpec = errors.New("invalid report spec")

	// ErrNoSections indicates a ReportSpec declares no sections.
	ErrNoSections = errors.New("report spec must declare at least one section")

	// ErrEmptySectionTitle indicates a SectionSpec has an empty title.
	ErrEmptySectionTitle = errors.New("section title cannot be empty")

	// ErrInvalidInsightCount indicates a SectionSpec mandates a non-positive insight count.
	ErrInvalidInsightCount = errors.New("insight count must be greater than 0")

	// ErrInvalidQuoteCount indicates a SectionSpec mandates a negative quote count.
	ErrInvalidQuoteCount = errors.New("quotes per insight cannot be negative")

	// ErrDuplicateSectionTitle indicates two sections share a title.
	ErrDuplicateSectionTitle = errors.New("section titles must be unique")
)

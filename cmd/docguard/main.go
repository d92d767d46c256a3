// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Docguard redacts personal data from Word, text and PDF documents and
// stamps a confidentiality banner into their headers.
//
// Usage:
//
//	docguard redact contract.docx          # write a redacted copy under ./redacted
//	docguard redact --in-place notes.txt   # redact the file itself
//	docguard extract contract.docx         # count what would be redacted
//	docguard serve                         # HTTP upload endpoint and status stream
//	docguard watch ./inbox                 # redact documents as they arrive
package main

import (
	"os"

	"docguard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

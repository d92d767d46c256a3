// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"docguard/internal/host"
)

const (
	contentTypesPart = "[Content_Types].xml"
	rootRelsPart     = "_rels/.rels"
	defaultMainPart  = "word/document.xml"

	nsMain          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsRelationships + "/officeDocument"
	relTypeHeader         = nsRelationships + "/header"
	relTypeSettings       = nsRelationships + "/settings"

	contentTypeHeader   = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	contentTypeSettings = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"

	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationshipList struct {
	Items []relationship `xml:"Relationship"`
}

func parseRelationships(data []byte) ([]relationship, error) {
	var list relationshipList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid relationships: %w", err)
	}
	return list.Items, nil
}

// relsPartFor returns the relationships part of a package part
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget resolves a relationship target against its source part
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

func findRelationship(rels []relationship, id string) (relationship, bool) {
	for _, r := range rels {
		if r.ID == id {
			return r, true
		}
	}
	return relationship{}, false
}

func findRelationshipByType(rels []relationship, relType string) (relationship, bool) {
	for _, r := range rels {
		if r.Type == relType {
			return r, true
		}
	}
	return relationship{}, false
}

// nextRelationshipID returns the first unused "rIdN"
func nextRelationshipID(rels []relationship) int {
	next := 1
	for _, r := range rels {
		if n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "rId")); err == nil && strings.HasPrefix(r.ID, "rId") && n >= next {
			next = n + 1
		}
	}
	return next
}

func relationshipXML(r relationship) string {
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`, escape(r.ID), escape(r.Type), escape(r.Target))
}

func overrideXML(partName, contentType string) string {
	return fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, escape(partName), escape(contentType))
}

// closingTag returns the offset of the last occurrence of a closing tag
func closingTag(data []byte, name string) (int, error) {
	i := bytes.LastIndex(data, []byte("</"+name+">"))
	if i < 0 {
		return 0, fmt.Errorf("missing </%s>", name)
	}
	return i, nil
}

// paragraphXML renders a single-run paragraph
func paragraphXML(text string, format host.ParagraphFormat) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if format.Alignment == host.AlignCentered {
		b.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	b.WriteString("<w:r>")
	if format.Bold {
		b.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escape(text))
	b.WriteString("</w:t></w:r></w:p>")
	return b.String()
}

func headerPartXML(paragraphs string) []byte {
	return []byte(xmlDeclaration + `<w:hdr xmlns:w="` + nsMain + `" xmlns:r="` + nsRelationships + `">` +
		paragraphs + `</w:hdr>`)
}

func settingsPartXML() []byte {
	return []byte(xmlDeclaration + `<w:settings xmlns:w="` + nsMain + `"><w:trackRevisions/></w:settings>`)
}

// settingsBeforeTracking lists the settings children the schema orders
// ahead of w:trackRevisions.
var settingsBeforeTracking = map[string]bool{
	"writeProtection": true, "view": true, "zoom": true, "removePersonalInformation": true,
	"removeDateAndTime": true, "doNotDisplayPageBoundaries": true, "displayBackgroundShape": true,
	"printPostScriptOverText": true, "printFractionalCharacterWidth": true, "printFormsData": true,
	"embedTrueTypeFonts": true, "embedSystemFonts": true, "saveSubsetFonts": true,
	"saveFormsData": true, "mirrorMargins": true, "alignBordersAndEdges": true,
	"bordersDoNotSurroundHeader": true, "bordersDoNotSurroundFooter": true, "gutterAtTop": true,
	"hideSpellingErrors": true, "hideGrammaticalErrors": true, "activeWritingStyle": true,
	"proofState": true, "formsDesign": true, "attachedTemplate": true, "linkStyles": true,
	"stylePaneFormatFilter": true, "stylePaneSortMethod": true, "documentType": true,
	"mailMerge": true, "revisionView": true,
}

// settingsInfo locates w:trackRevisions in a settings part
type settingsInfo struct {
	tracking bool
	found    bool
	element  byteRange
	insertAt int
}

func parseSettings(data []byte) (settingsInfo, error) {
	var info settingsInfo
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	child := ""
	for {
		before := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, fmt.Errorf("XML parsing error: %w", err)
		}
		after := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				info.insertAt = after
			case 2:
				child = t.Name.Local
				if t.Name.Space == "w" && child == "trackRevisions" {
					info.found = true
					info.element.start = before
					switch attr(t, "w", "val") {
					case "false", "0", "off":
					default:
						info.tracking = true
					}
				}
			}
		case xml.EndElement:
			if depth == 2 {
				if child == "trackRevisions" && info.found && info.element.end == 0 {
					info.element.end = after
				}
				if settingsBeforeTracking[child] {
					info.insertAt = after
				}
			}
			depth--
		}
	}
	return info, nil
}

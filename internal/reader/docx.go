package reader

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

var errNoDocumentPart = errors.New("missing " + documentPart)

// xmlNode is a generic element used to walk WordprocessingML in document order.
type xmlNode struct {
	XMLName xml.Name
	Chars   string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

// documentXML represents the structure of word/document.xml.
// Only body-level paragraphs are collected; tables and content controls are skipped.
type documentXML struct {
	Body struct {
		Paragraphs []xmlNode `xml:"p"`
	} `xml:"body"`
}

// readWordFile extracts paragraph text from an OOXML Word document.
func readWordFile(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = zr.Close()
	}()

	for _, file := range zr.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		return parseDocumentXML(content)
	}
	return "", errNoDocumentPart
}

// parseDocumentXML joins the text of each body paragraph with newlines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}

	paragraphs := make([]string, len(doc.Body.Paragraphs))
	for i, para := range doc.Body.Paragraphs {
		var b strings.Builder
		writeRunText(&b, para)
		paragraphs[i] = b.String()
	}
	return strings.Join(paragraphs, "\n"), nil
}

func writeRunText(b *strings.Builder, n xmlNode) {
	for _, child := range n.Nodes {
		switch child.XMLName.Local {
		case "t":
			b.WriteString(child.Chars)
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		case "pPr", "rPr", "del", "delText", "instrText", "drawing", "pict", "AlternateContent", "object":
			// formatting, deleted revisions and embedded objects carry no paragraph text
		default:
			writeRunText(b, child)
		}
	}
}

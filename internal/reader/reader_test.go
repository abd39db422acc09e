package reader

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	pages  []string
	failAt map[int]bool
	closed bool
}

func (f *fakePDF) NumPage() int { return len(f.pages) }

func (f *fakePDF) Text(i int) (string, error) {
	if f.failAt[i] {
		return "", errors.New("bad page")
	}
	return f.pages[i], nil
}

func (f *fakePDF) Close() error {
	f.closed = true
	return nil
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)
	if documentXML != "" {
		w, err = zw.Create(documentPart)
		require.NoError(t, err)
		_, err = w.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

const sampleDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:rPr><w:b/></w:rPr><w:t>Leave policy</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t xml:space="preserve">Employees get </w:t></w:r>
      <w:r><w:t>25 days</w:t></w:r>
      <w:del><w:r><w:delText>20 days</w:delText></w:r></w:del>
      <w:r><w:tab/><w:t>per year.</w:t></w:r>
    </w:p>
    <w:p/>
    <w:p>
      <w:hyperlink><w:r><w:t>See HR</w:t></w:r></w:hyperlink>
      <w:r><w:br/><w:t>for details</w:t></w:r>
    </w:p>
    <w:sectPr/>
  </w:body>
</w:document>`

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.pdf", FormatPDF},
		{"A.PDF", FormatPDF},
		{"dir/b.docx", FormatWord},
		{"c.DOC", FormatWord},
		{"notes.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.path))
			assert.Equal(t, tt.want != FormatUnknown, Supported(tt.path))
		})
	}
}

func TestExtractPages(t *testing.T) {
	doc := &fakePDF{
		pages:  []string{"first", "second", "third"},
		failAt: map[int]bool{1: true},
	}

	text, failed := extractPages(doc)

	assert.Equal(t, "first\n\nthird", text)
	assert.Equal(t, []int{1}, failed)
}

func TestRead_PDF(t *testing.T) {
	doc := &fakePDF{pages: []string{"page one", "page two"}}
	r := &Reader{openPDF: func(string) (pageDocument, error) { return doc, nil }}

	text, err := r.Read(context.Background(), "report.pdf")

	require.NoError(t, err)
	assert.Equal(t, "page one\npage two", text)
	assert.True(t, doc.closed, "document should be closed after reading")
}

func TestRead_PDFOpenError(t *testing.T) {
	r := &Reader{openPDF: func(string) (pageDocument, error) { return nil, errors.New("not a pdf") }}

	_, err := r.Read(context.Background(), "broken.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.pdf")
}

func TestRead_Word(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.docx")
	writeDocx(t, path, sampleDocument)

	text, err := New().Read(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Leave policy\nEmployees get 25 days\tper year.\n\nSee HR\nfor details", text)
}

func TestRead_WordMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	writeDocx(t, path, "")

	_, err := New().Read(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, errNoDocumentPart)
}

func TestRead_LegacyDocNotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.doc")
	require.NoError(t, os.WriteFile(path, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, 0o644))

	_, err := New().Read(context.Background(), path)

	assert.ErrorIs(t, err, zip.ErrFormat)
}

func TestRead_Unsupported(t *testing.T) {
	_, err := New().Read(context.Background(), "notes.txt")

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

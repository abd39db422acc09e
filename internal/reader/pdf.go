package reader

import (
	"strings"

	"github.com/gen2brain/go-fitz"
)

// pageDocument is the subset of *fitz.Document used for text extraction.
type pageDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

func openFitz(path string) (pageDocument, error) {
	return fitz.New(path)
}

// extractPages joins the text of every page with newlines. A page whose text
// cannot be extracted contributes an empty string; its number is returned in failed.
func extractPages(doc pageDocument) (text string, failed []int) {
	pages := make([]string, doc.NumPage())
	for i := range pages {
		pageText, err := doc.Text(i)
		if err != nil {
			failed = append(failed, i)
			continue
		}
		pages[i] = pageText
	}
	return strings.Join(pages, "\n"), failed
}

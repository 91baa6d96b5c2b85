package scanner

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/cesargomez89/showmover/internal/constants"
)

// readShowTitle returns the title from the show's tvshow.nfo, if any.
func (s *Scanner) readShowTitle(showPath string) (string, bool) {
	f, err := os.Open(filepath.Join(showPath, constants.ShowNFOName))
	if err != nil {
		return "", false
	}
	defer f.Close()

	title, err := parseNFOTitle(f)
	if err != nil {
		s.Logger.Warn("Failed to parse tvshow.nfo", "path", showPath, "error", err)
		return "", false
	}
	return title, title != ""
}

// parseNFOTitle returns the first non-blank text inside a <title> element,
// matched case-insensitively. It returns "" when there is none.
func parseNFOTitle(r io.Reader) (string, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charsetReader

	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if strings.EqualFold(t.Name.Local, "title") {
				depth++
			}
		case xml.EndElement:
			if depth > 0 && strings.EqualFold(t.Name.Local, "title") {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					return text, nil
				}
			}
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

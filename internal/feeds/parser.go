package feeds

import (
	"bufio"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const maxLineBytes = 1 << 20

// Parser extracts blocklisted URLs from a feed body.
type Parser interface {
	Parse(r io.Reader) ([]string, error)
}

// PlainListParser parses one URL per line. Blank lines and "#" comments are
// skipped. Entries are kept verbatim since lookups are exact-string.
type PlainListParser struct{}

func (p *PlainListParser) Parse(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

// PhishTankParser collects the text of every phish_detail_url element of the
// PhishTank online-valid XML export.
type PhishTankParser struct{}

func (p *PhishTankParser) Parse(r io.Reader) ([]string, error) {
	var urls []string
	decoder := xml.NewDecoder(r)
	inDetail := false
	var text strings.Builder
	sawRoot := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			if el.Name.Local == "phish_detail_url" {
				inDetail = true
				text.Reset()
			}
		case xml.CharData:
			if inDetail {
				text.Write(el)
			}
		case xml.EndElement:
			if el.Name.Local == "phish_detail_url" && inDetail {
				inDetail = false
				if value := strings.TrimSpace(text.String()); value != "" {
					urls = append(urls, value)
				}
			}
		}
	}
	if !sawRoot {
		return nil, errors.New("phishtank: empty document")
	}
	return urls, nil
}

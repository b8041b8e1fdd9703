package testutil

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// AssertWellFormedXML fails the test if data is not well-formed XML.
func AssertWellFormedXML(t *testing.T, data []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("malformed XML: %v", err)
		}
	}
}

// CountElements counts start elements named local whose class attribute
// contains class. An empty class matches every element of that name.
func CountElements(t *testing.T, data []byte, local, class string) int {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(data))
	n := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return n
		}
		if err != nil {
			t.Fatalf("malformed XML: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		if class == "" {
			n++
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "class" && hasClass(a.Value, class) {
				n++
				break
			}
		}
	}
}

func hasClass(list, class string) bool {
	for _, c := range strings.Fields(list) {
		if c == class {
			return true
		}
	}
	return false
}

// WriteForest writes specs as a JSON dataset under dir and returns its path.
func WriteForest(t *testing.T, dir string, specs []model.TreeSpec) string {
	t.Helper()
	data, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	path := filepath.Join(dir, "trees.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write forest: %v", err)
	}
	return path
}

// CountNodes returns the total node count of a forest.
func CountNodes(specs []model.TreeSpec) int {
	n := 0
	for _, s := range specs {
		n += s.Data.Count()
	}
	return n
}

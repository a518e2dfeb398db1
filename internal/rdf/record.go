// Package rdf parses Project Gutenberg RDF catalog records.
//
// One record file describes one work. Parse returns a Record view over the
// raw XML; missing fields degrade to zero values rather than failing the
// parse, matching the loose structure of the upstream catalog.
package rdf

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bibliotech/internal/entities"
)

const publicationDateLayout = "2006-01-02"

type rdfDocument struct {
	XMLName xml.Name `xml:"RDF"`
	Ebook   rdfEbook `xml:"ebook"`
}

type rdfEbook struct {
	About     string           `xml:"about,attr"`
	Title     string           `xml:"title"`
	Creators  []rdfCreator     `xml:"creator"`
	Publisher string           `xml:"publisher"`
	Issued    string           `xml:"issued"`
	Language  []rdfDescription `xml:"language"`
	Subjects  []rdfDescription `xml:"subject"`
	Rights    []string         `xml:"rights"`
}

type rdfCreator struct {
	Name string `xml:"agent>name"`
}

type rdfDescription struct {
	Value string `xml:"Description>value"`
}

// Record is a parsed view over one raw RDF document. It is ephemeral and
// exists only to produce a Book via ToBook.
type Record struct {
	ebook rdfEbook
}

// Parse decodes one raw RDF record document.
func Parse(data []byte) (*Record, error) {
	var doc rdfDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return &Record{ebook: doc.Ebook}, nil
}

// ID returns the identifier segment of the record's "ebooks/N" reference.
func (r *Record) ID() string {
	parts := strings.Split(r.ebook.About, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (r *Record) Title() string {
	return r.ebook.Title
}

// Authors returns the agent names of the record's creators, in document
// order. An agent without a name yields "Unknown".
func (r *Record) Authors() []string {
	authors := make([]string, 0, len(r.ebook.Creators))
	for _, creator := range r.ebook.Creators {
		name := creator.Name
		if name == "" {
			name = "Unknown"
		}
		authors = append(authors, name)
	}
	return authors
}

func (r *Record) Publisher() string {
	return r.ebook.Publisher
}

// PublicationDate returns the issued date, or nil when absent or not a
// date. The upstream catalog writes "None" for unknown dates.
func (r *Record) PublicationDate() *time.Time {
	issued, err := time.Parse(publicationDateLayout, strings.TrimSpace(r.ebook.Issued))
	if err != nil {
		return nil
	}
	return &issued
}

func (r *Record) Language() string {
	if len(r.ebook.Language) == 0 {
		return ""
	}
	return r.ebook.Language[0].Value
}

func (r *Record) Subjects() []string {
	subjects := make([]string, 0, len(r.ebook.Subjects))
	for _, subject := range r.ebook.Subjects {
		if subject.Value != "" {
			subjects = append(subjects, subject.Value)
		}
	}
	return subjects
}

func (r *Record) LicenseRights() []string {
	return r.ebook.Rights
}

// ToBook maps the record to a Book entity. The only way this fails is a
// missing or non-numeric record identifier, since the identifier is the
// upsert key.
func (r *Record) ToBook() (entities.Book, error) {
	id, err := strconv.ParseUint(r.ID(), 10, 64)
	if err != nil {
		return entities.Book{}, fmt.Errorf("record has no usable identifier (about=%q): %w", r.ebook.About, err)
	}

	publisher := r.Publisher()
	if publisher == "" {
		publisher = entities.DefaultPublisher
	}

	return entities.Book{
		ID:              id,
		Title:           r.Title(),
		Authors:         r.Authors(),
		Publisher:       publisher,
		PublicationDate: r.PublicationDate(),
		Language:        r.Language(),
		Subjects:        r.Subjects(),
		LicenseRights:   r.LicenseRights(),
	}, nil
}

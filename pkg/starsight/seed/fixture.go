// Package seed loads a YAML site fixture and writes it through a
// starsight.Service: assets, snippets, the page tree and navigations.
//
// Entries reference each other by their fixture key.
package seed

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is the content of a seed file.
type Fixture struct {
	Images      []ImageFixture      `yaml:"images"`
	Documents   []DocumentFixture   `yaml:"documents"`
	Topics      []TopicFixture      `yaml:"topics"`
	Authors     []AuthorFixture     `yaml:"authors"`
	Pages       []PageFixture       `yaml:"pages"`
	Navigations []NavigationFixture `yaml:"navigations"`
}

// ImageFixture is an image uploaded from File. Width and Height are read
// from the file when left at zero.
type ImageFixture struct {
	Key    string   `yaml:"key"`
	Title  string   `yaml:"title"`
	File   string   `yaml:"file"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Tags   []string `yaml:"tags"`
}

type DocumentFixture struct {
	Key   string   `yaml:"key"`
	Title string   `yaml:"title"`
	File  string   `yaml:"file"`
	Tags  []string `yaml:"tags"`
}

type TopicFixture struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type AuthorFixture struct {
	Key          string `yaml:"key"`
	Username     string `yaml:"username"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Email        string `yaml:"email"`
	Image        string `yaml:"image"`
	AddEmailLink bool   `yaml:"add_email_link"`
	Website      string `yaml:"website"`
}

// PageFixture is one page of the tree. Parents must appear before their
// children. Only the fields of the page's kind are read.
type PageFixture struct {
	Key               string `yaml:"key"`
	Kind              string `yaml:"kind"`
	Parent            string `yaml:"parent"`
	Title             string `yaml:"title"`
	Slug              string `yaml:"slug"`
	SeoTitle          string `yaml:"seo_title"`
	SearchDescription string `yaml:"search_description"`
	ShowInMenus       bool   `yaml:"show_in_menus"`
	Restricted        bool   `yaml:"restricted"`
	// Publish makes the page live; PublishAt defaults to the seeding time
	Publish   bool       `yaml:"publish"`
	PublishAt *time.Time `yaml:"publish_at"`

	// home.HomePage
	HeroImage    string `yaml:"hero_image"`
	HeroImageAlt string `yaml:"hero_image_alt"`

	// articles.ArticleDetailPage
	PreviewText   string         `yaml:"preview_text"`
	Topic         string         `yaml:"topic"`
	Image         string         `yaml:"image"`
	Alt           string         `yaml:"alt"`
	Caption       string         `yaml:"caption"`
	Tags          []string       `yaml:"tags"`
	Authors       []string       `yaml:"authors"`
	PublishedDate *time.Time     `yaml:"published_date"`
	Content       []BlockFixture `yaml:"content"`
}

// BlockFixture is one content block. Value depends on Type:
// a rich text string, a detailed image mapping or a references mapping.
type BlockFixture struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

type detailedImageValue struct {
	Title   string `yaml:"title"`
	Image   string `yaml:"image"`
	Alt     string `yaml:"alt"`
	Caption string `yaml:"caption"`
}

type referencesValue struct {
	References []struct {
		Reference string `yaml:"reference"`
		URL       string `yaml:"url"`
	} `yaml:"references"`
}

type NavigationFixture struct {
	Key   string        `yaml:"key"`
	Title string        `yaml:"title"`
	Links []LinkFixture `yaml:"links"`
}

// LinkFixture targets either a fixture page or an external URL.
type LinkFixture struct {
	Title         string `yaml:"title"`
	Page          string `yaml:"page"`
	URL           string `yaml:"url"`
	OpenInNewPage bool   `yaml:"open_in_new_page"`
}

// Decode reads a fixture, rejecting unknown fields.
func Decode(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

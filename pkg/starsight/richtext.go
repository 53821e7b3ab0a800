package starsight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RichTextFeature names an editor feature. Each feature unlocks a set of
// elements in stored rich text.
type RichTextFeature string

const (
	FeatureBold   RichTextFeature = "bold"
	FeatureItalic RichTextFeature = "italic"
)

// SimpleRichTextFeatures is the feature set of every stored rich text value:
// article preview text and rich text blocks alike.
var SimpleRichTextFeatures = []RichTextFeature{FeatureBold, FeatureItalic}

var featureElements = map[RichTextFeature][]atom.Atom{
	FeatureBold:   {atom.B, atom.Strong},
	FeatureItalic: {atom.I, atom.Em},
}

// ErrRichTextFeature is returned by ValidateRichText for disallowed markup.
var ErrRichTextFeature = errors.New("rich text feature not allowed")

// ValidateRichText checks that src only uses elements unlocked by features.
// Paragraphs and line breaks are always allowed.
func ValidateRichText(src string, features []RichTextFeature) error {
	allowed := map[atom.Atom]bool{atom.P: true, atom.Br: true}
	for _, f := range features {
		for _, a := range featureElements[f] {
			allowed[a] = true
		}
	}

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if !allowed[tok.DataAtom] {
				return fmt.Errorf("%w: <%s>", ErrRichTextFeature, tok.Data)
			}
		}
	}
}

// RenderRichText expands the internal references of stored rich text into
// plain HTML: page and document links get their public URL, image embeds
// become <img> tags. Everything else is copied through unchanged.
func (s *Serializer) RenderRichText(ctx context.Context, src string) (string, error) {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.A && attr(tok, "linktype") == "page":
				url, err := s.pageLink(ctx, attr(tok, "id"))
				if err != nil {
					return "", err
				}
				writeAnchor(&b, url)
			case tok.DataAtom == atom.A && attr(tok, "linktype") == "document":
				url, err := s.documentLink(ctx, attr(tok, "id"))
				if err != nil {
					return "", err
				}
				writeAnchor(&b, url)
			case tok.DataAtom == atom.Embed && attr(tok, "embedtype") == "image":
				if err := s.writeImageEmbed(ctx, &b, tok); err != nil {
					return "", err
				}
			default:
				b.Write(raw)
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func (s *Serializer) pageLink(ctx context.Context, rawID string) (string, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", nil
	}
	url, err := s.PageURL(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return url, err
}

func (s *Serializer) documentLink(ctx context.Context, rawID string) (string, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", nil
	}
	doc, err := s.svc.GetDocument(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.svc.FileURL(ctx, doc.File)
}

func (s *Serializer) writeImageEmbed(ctx context.Context, b *strings.Builder, tok html.Token) error {
	alt := attr(tok, "alt")
	id, err := strconv.ParseInt(attr(tok, "id"), 10, 64)
	if err != nil {
		writeImg(b, alt, "", "")
		return nil
	}
	img, err := s.svc.GetImage(ctx, id)
	if errors.Is(err, ErrNotFound) {
		writeImg(b, alt, "", "")
		return nil
	}
	if err != nil {
		return err
	}
	url, err := s.svc.FileURL(ctx, img.File)
	if err != nil {
		return err
	}
	writeImg(b, alt, url, attr(tok, "format"))
	return nil
}

// writeAnchor writes an opening <a>; an empty url yields a link without href.
func writeAnchor(b *strings.Builder, url string) {
	if url == "" {
		b.WriteString("<a>")
		return
	}
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(url))
	b.WriteString(`">`)
}

func writeImg(b *strings.Builder, alt, src, format string) {
	b.WriteString(`<img alt="`)
	b.WriteString(html.EscapeString(alt))
	b.WriteString(`"`)
	if src != "" {
		b.WriteString(` src="`)
		b.WriteString(html.EscapeString(src))
		b.WriteString(`"`)
	}
	class := "richtext-image"
	if format != "" {
		class += " " + format
	}
	b.WriteString(` class="`)
	b.WriteString(html.EscapeString(class))
	b.WriteString(`">`)
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

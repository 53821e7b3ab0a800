package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// Result maps fixture keys to the ids they were stored under.
type Result struct {
	Images      map[string]int64
	Documents   map[string]int64
	Topics      map[string]int64
	Authors     map[string]int64
	Pages       map[string]int64
	Navigations map[string]int64
}

func newResult() *Result {
	return &Result{
		Images:      map[string]int64{},
		Documents:   map[string]int64{},
		Topics:      map[string]int64{},
		Authors:     map[string]int64{},
		Pages:       map[string]int64{},
		Navigations: map[string]int64{},
	}
}

// Seeder writes fixtures through a service.
type Seeder struct {
	service starsight.Service
	files   fs.FS
	logger  *slog.Logger
}

// New creates a seeder reading asset files from files.
func New(service starsight.Service, files fs.FS, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{service: service, files: files, logger: logger}
}

// Apply stores every entry of the fixture, in dependency order, and stops at
// the first failure.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Result, error) {
	res := newResult()

	for _, img := range f.Images {
		id, err := s.image(ctx, img)
		if err != nil {
			return res, fmt.Errorf("image %q: %w", img.Key, err)
		}
		res.Images[img.Key] = id
	}
	for _, doc := range f.Documents {
		data, err := fs.ReadFile(s.files, doc.File)
		if err != nil {
			return res, fmt.Errorf("document %q: %w", doc.Key, err)
		}
		stored, err := s.service.CreateDocument(ctx, starsight.CreateDocumentRequest{
			Title:    doc.Title,
			FileName: path.Base(doc.File),
			Tags:     doc.Tags,
		}, bytes.NewReader(data))
		if err != nil {
			return res, fmt.Errorf("document %q: %w", doc.Key, err)
		}
		res.Documents[doc.Key] = stored.ID
	}
	for _, t := range f.Topics {
		stored, err := s.service.SaveTopic(ctx, starsight.SaveTopicRequest{Name: t.Name})
		if err != nil {
			return res, fmt.Errorf("topic %q: %w", t.Key, err)
		}
		res.Topics[t.Key] = stored.ID
	}
	for _, a := range f.Authors {
		req := starsight.SaveAuthorRequest{
			Username:     a.Username,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Email:        a.Email,
			AddEmailLink: a.AddEmailLink,
			Website:      a.Website,
		}
		if a.Image != "" {
			id, err := lookup(res.Images, "image", a.Image)
			if err != nil {
				return res, fmt.Errorf("author %q: %w", a.Key, err)
			}
			req.ImageID = &id
		}
		stored, err := s.service.SaveAuthor(ctx, req)
		if err != nil {
			return res, fmt.Errorf("author %q: %w", a.Key, err)
		}
		res.Authors[a.Key] = stored.ID
	}
	for _, p := range f.Pages {
		if err := s.page(ctx, res, p); err != nil {
			return res, fmt.Errorf("page %q: %w", p.Key, err)
		}
	}
	for _, n := range f.Navigations {
		req := starsight.SaveNavigationRequest{Title: n.Title}
		for _, l := range n.Links {
			link := starsight.LinkRequest{Title: l.Title, URL: l.URL, OpenInNewPage: l.OpenInNewPage}
			if l.Page != "" {
				id, err := lookup(res.Pages, "page", l.Page)
				if err != nil {
					return res, fmt.Errorf("navigation %q: %w", n.Key, err)
				}
				link.PageID = &id
			}
			req.Links = append(req.Links, link)
		}
		stored, err := s.service.SaveNavigation(ctx, req)
		if err != nil {
			return res, fmt.Errorf("navigation %q: %w", n.Key, err)
		}
		res.Navigations[n.Key] = stored.ID
	}

	s.logger.InfoContext(ctx, "fixture applied",
		"images", len(res.Images),
		"documents", len(res.Documents),
		"topics", len(res.Topics),
		"authors", len(res.Authors),
		"pages", len(res.Pages),
		"navigations", len(res.Navigations),
	)
	return res, nil
}

func (s *Seeder) image(ctx context.Context, img ImageFixture) (int64, error) {
	data, err := fs.ReadFile(s.files, img.File)
	if err != nil {
		return 0, err
	}
	width, height := img.Width, img.Height
	if width == 0 && height == 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			width, height = cfg.Width, cfg.Height
		} else {
			s.logger.WarnContext(ctx, "could not read image dimensions", "file", img.File, "error", err)
		}
	}
	stored, err := s.service.CreateImage(ctx, starsight.CreateImageRequest{
		Title:    img.Title,
		FileName: path.Base(img.File),
		Width:    width,
		Height:   height,
		Tags:     img.Tags,
	}, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	return stored.ID, nil
}

func (s *Seeder) page(ctx context.Context, res *Result, p PageFixture) error {
	kind, err := starsight.ParsePageKind(p.Kind)
	if err != nil {
		return err
	}

	req := starsight.CreatePageRequest{
		Kind:              kind,
		Title:             p.Title,
		Slug:              p.Slug,
		SeoTitle:          p.SeoTitle,
		SearchDescription: p.SearchDescription,
		ShowInMenus:       p.ShowInMenus,
		Restricted:        p.Restricted,
	}
	if p.Parent != "" {
		parent, err := lookup(res.Pages, "page", p.Parent)
		if err != nil {
			return err
		}
		req.ParentID = &parent
	}

	switch kind {
	case starsight.KindHomePage:
		hero, err := lookup(res.Images, "image", p.HeroImage)
		if err != nil {
			return err
		}
		req.Home = &starsight.HomeFields{HeroImageID: &hero, HeroImageAlt: p.HeroImageAlt}
	case starsight.KindArticleDetailPage:
		fields, err := articleFields(res, p)
		if err != nil {
			return err
		}
		req.Article = fields
	}

	page, err := s.service.CreatePage(ctx, req)
	if err != nil {
		return err
	}
	res.Pages[p.Key] = page.ID

	if p.Publish {
		publish := starsight.PublishPageRequest{PageID: page.ID}
		if p.PublishAt != nil {
			publish.At = *p.PublishAt
		}
		if _, err := s.service.PublishPage(ctx, publish); err != nil {
			return err
		}
	}
	return nil
}

func articleFields(res *Result, p PageFixture) (*starsight.ArticleFields, error) {
	topic, err := lookup(res.Topics, "topic", p.Topic)
	if err != nil {
		return nil, err
	}
	img, err := lookup(res.Images, "image", p.Image)
	if err != nil {
		return nil, err
	}
	fields := &starsight.ArticleFields{
		PreviewText:   p.PreviewText,
		TopicID:       &topic,
		ImageID:       &img,
		Alt:           p.Alt,
		Caption:       p.Caption,
		Tags:          p.Tags,
		PublishedDate: p.PublishedDate,
	}
	for _, key := range p.Authors {
		id, err := lookup(res.Authors, "author", key)
		if err != nil {
			return nil, err
		}
		fields.AuthorIDs = append(fields.AuthorIDs, id)
	}
	for i, b := range p.Content {
		block, err := contentBlock(res, b)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", i, err)
		}
		fields.Content = append(fields.Content, block)
	}
	return fields, nil
}

func contentBlock(res *Result, b BlockFixture) (starsight.Block, error) {
	switch starsight.BlockKind(b.Type) {
	case starsight.BlockRichText:
		var src string
		if err := b.Value.Decode(&src); err != nil {
			return starsight.Block{}, err
		}
		return starsight.NewBlock(starsight.RichTextBlock{Source: src}), nil

	case starsight.BlockDetailedImage:
		var v detailedImageValue
		if err := b.Value.Decode(&v); err != nil {
			return starsight.Block{}, err
		}
		id, err := lookup(res.Images, "image", v.Image)
		if err != nil {
			return starsight.Block{}, err
		}
		return starsight.NewBlock(starsight.DetailedImageBlock{
			Title:    v.Title,
			ImageID:  id,
			ImageAlt: v.Alt,
			Caption:  v.Caption,
		}), nil

	case starsight.BlockReferences:
		var v referencesValue
		if err := b.Value.Decode(&v); err != nil {
			return starsight.Block{}, err
		}
		refs := starsight.ReferencesBlock{References: []starsight.Reference{}}
		for _, r := range v.References {
			refs.References = append(refs.References, starsight.Reference{Reference: r.Reference, URL: r.URL})
		}
		return starsight.NewBlock(refs), nil
	}
	return starsight.Block{}, fmt.Errorf("%w: %s", starsight.ErrUnknownBlockType, b.Type)
}

func lookup(ids map[string]int64, kind, key string) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("%s reference is required", kind)
	}
	id, ok := ids[strings.TrimSpace(key)]
	if !ok {
		return 0, fmt.Errorf("unknown %s %q", kind, key)
	}
	return id, nil
}

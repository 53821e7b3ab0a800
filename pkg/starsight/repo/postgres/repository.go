package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Repository implements starsight.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ starsight.Repository = (*Repository)(nil)

// singletonKindIndex backs the count check in CreatePage for concurrent
// writers. See migration 000002.
const singletonKindIndex = "pages_singleton_kind_key"

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == singletonKindIndex {
				return fmt.Errorf("%s: %w", operation, starsight.ErrMaxCountReached)
			}
			return fmt.Errorf("%s: %w (%s)", operation, starsight.ErrDuplicateSlug, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: referenced record not found (%s)", operation, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("%s: required field %s is missing", operation, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required", operation)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// inTx runs fn inside a transaction on r.db.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Ping(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "SELECT 1")
	return err
}

// Page operations

const pageColumns = `
	p.id, p.kind, p.parent_id, p.path, p.position, p.title, p.slug, p.seo_title,
	p.search_description, p.show_in_menus, p.live, p.restricted,
	p.first_published_at, p.last_published_at, p.body, p.created_at, p.updated_at,
	ARRAY(SELECT c.id FROM pages c WHERE c.parent_id = p.id ORDER BY c.position, c.id) AS child_ids`

func scanPage(row pgx.Row) (*starsight.Page, error) {
	var (
		p    starsight.Page
		kind string
		body []byte
	)
	err := row.Scan(
		&p.ID, &kind, &p.ParentID, &p.Path, &p.Position, &p.Title, &p.Slug, &p.SeoTitle,
		&p.SearchDescription, &p.ShowInMenus, &p.Live, &p.Restricted,
		&p.FirstPublishedAt, &p.LastPublishedAt, &body, &p.CreatedAt, &p.UpdatedAt,
		&p.ChildIDs)
	if err != nil {
		return nil, err
	}
	p.Kind = starsight.PageKind(kind)
	if err := decodeBody(&p, body); err != nil {
		return nil, fmt.Errorf("page %d body: %w", p.ID, err)
	}
	return &p, nil
}

func decodeBody(p *starsight.Page, body []byte) error {
	switch p.Kind {
	case starsight.KindHomePage:
		p.Home = &starsight.HomeBody{}
		if len(body) > 0 {
			return json.Unmarshal(body, p.Home)
		}
	case starsight.KindArticleDetailPage:
		p.Article = &starsight.ArticleBody{}
		if len(body) > 0 {
			return json.Unmarshal(body, p.Article)
		}
	}
	return nil
}

func encodeBody(p *starsight.Page) ([]byte, error) {
	switch {
	case p.Home != nil:
		return json.Marshal(p.Home)
	case p.Article != nil:
		return json.Marshal(p.Article)
	}
	return nil, nil
}

func (r *Repository) CreatePage(ctx context.Context, page *starsight.Page) error {
	body, err := encodeBody(page)
	if err != nil {
		return fmt.Errorf("encode page body: %w", err)
	}

	err = r.inTx(ctx, func(tx pgx.Tx) error {
		parentPath := "/"
		if page.ParentID != nil {
			err := tx.QueryRow(ctx, `SELECT path FROM pages WHERE id = $1 FOR UPDATE`, *page.ParentID).Scan(&parentPath)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("parent %d: %w", *page.ParentID, starsight.ErrPageNotFound)
			}
			if err != nil {
				return r.handlePostgresError("lock parent page", err)
			}
		}
		if err := checkSiblingSlug(ctx, tx, page.ParentID, page.Slug, 0); err != nil {
			return err
		}
		if limit := page.Kind.MaxCount(); limit > 0 {
			var count int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM pages WHERE kind = $1`, string(page.Kind)).Scan(&count); err != nil {
				return r.handlePostgresError("count pages", err)
			}
			if count >= limit {
				return fmt.Errorf("%w: %s", starsight.ErrMaxCountReached, page.Kind)
			}
		}

		var position int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM pages WHERE parent_id IS NOT DISTINCT FROM $1`, page.ParentID,
		).Scan(&position); err != nil {
			return r.handlePostgresError("count siblings", err)
		}

		query := `
			INSERT INTO pages (
				kind, parent_id, position, title, slug, seo_title, search_description,
				show_in_menus, live, restricted, first_published_at, last_published_at,
				body, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id`
		if err := tx.QueryRow(ctx, query,
			string(page.Kind), page.ParentID, position, page.Title, page.Slug, page.SeoTitle,
			page.SearchDescription, page.ShowInMenus, page.Live, page.Restricted,
			page.FirstPublishedAt, page.LastPublishedAt, body, page.CreatedAt, page.UpdatedAt,
		).Scan(&page.ID); err != nil {
			return r.handlePostgresError("create page", err)
		}

		page.Path = starsight.PathFor(parentPath, page.ID)
		page.Position = position
		if _, err := tx.Exec(ctx, `UPDATE pages SET path = $2 WHERE id = $1`, page.ID, page.Path); err != nil {
			return r.handlePostgresError("set page path", err)
		}
		return nil
	})
	return err
}

func checkSiblingSlug(ctx context.Context, tx pgx.Tx, parentID *int64, slug string, except int64) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pages
			WHERE parent_id IS NOT DISTINCT FROM $1 AND slug = $2 AND id <> $3
		)`, parentID, slug, except).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", starsight.ErrDuplicateSlug, slug)
	}
	return nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *starsight.Page) error {
	body, err := encodeBody(page)
	if err != nil {
		return fmt.Errorf("encode page body: %w", err)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		var parentID *int64
		err := tx.QueryRow(ctx, `SELECT parent_id FROM pages WHERE id = $1 FOR UPDATE`, page.ID).Scan(&parentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("page %d: %w", page.ID, starsight.ErrPageNotFound)
		}
		if err != nil {
			return r.handlePostgresError("lock page", err)
		}
		if err := checkSiblingSlug(ctx, tx, parentID, page.Slug, page.ID); err != nil {
			return err
		}

		query := `
			UPDATE pages SET
				title = $2, slug = $3, seo_title = $4, search_description = $5,
				show_in_menus = $6, live = $7, restricted = $8, first_published_at = $9,
				last_published_at = $10, body = $11, updated_at = $12
			WHERE id = $1`
		_, err = tx.Exec(ctx, query,
			page.ID, page.Title, page.Slug, page.SeoTitle, page.SearchDescription,
			page.ShowInMenus, page.Live, page.Restricted, page.FirstPublishedAt,
			page.LastPublishedAt, body, page.UpdatedAt)
		if err != nil {
			return r.handlePostgresError("update page", err)
		}
		return nil
	})
}

func (r *Repository) GetPage(ctx context.Context, id int64) (*starsight.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.id = $1`
	page, err := scanPage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("page %d: %w", id, starsight.ErrPageNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get page", err)
	}
	return page, nil
}

// queryBuilder collects WHERE clauses with positional arguments. Clauses
// take their placeholders from arg, so jsonb operators such as ?& are left
// alone.
type queryBuilder struct {
	where []string
	args  []any
}

// arg binds v and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) add(clause string) {
	b.where = append(b.where, clause)
}

func (b *queryBuilder) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *queryBuilder) page(limit, offset int) string {
	var s string
	if limit > 0 {
		b.args = append(b.args, limit)
		s += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
	if offset > 0 {
		b.args = append(b.args, offset)
		s += fmt.Sprintf(" OFFSET $%d", len(b.args))
	}
	return s
}

var pageOrderColumns = map[string]string{
	"":                   "p.id",
	"id":                 "p.id",
	"title":              "p.title",
	"first_published_at": "p.first_published_at",
}

func pageOrderSQL(orderBy string) (string, error) {
	dir := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
	}
	col, ok := pageOrderColumns[strings.TrimPrefix(orderBy, "-")]
	if !ok {
		return "", fmt.Errorf("%w: order %q", starsight.ErrInvalidFilter, orderBy)
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, p.id ASC", col, dir), nil
}

func pageWhere(filter starsight.PageFilter) *queryBuilder {
	b := &queryBuilder{}
	if len(filter.IDs) > 0 {
		b.add("p.id = ANY(" + b.arg(filter.IDs) + ")")
	}
	if filter.Kind != "" {
		b.add("p.kind = " + b.arg(string(filter.Kind)))
	}
	if filter.Slug != "" {
		b.add("p.slug = " + b.arg(filter.Slug))
	}
	if filter.ChildOf != nil {
		b.add("p.parent_id = " + b.arg(*filter.ChildOf))
	}
	if filter.LiveOnly {
		b.add("p.live")
	}
	if filter.PublicOnly {
		b.add("NOT EXISTS (SELECT 1 FROM pages r WHERE r.restricted AND p.path LIKE r.path || '%')")
	}
	if len(filter.Tags) > 0 {
		b.add("COALESCE(p.body->'tags', '[]'::jsonb) ?& " + b.arg(filter.Tags))
	}
	return b
}

func (r *Repository) ListPages(ctx context.Context, filter starsight.PageFilter) ([]*starsight.Page, int, error) {
	b := pageWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM pages p`+b.whereSQL(), b.args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count pages", err)
	}

	order, err := pageOrderSQL(filter.OrderBy)
	if err != nil {
		return nil, 0, err
	}
	where := b.whereSQL()
	query := `SELECT ` + pageColumns + ` FROM pages p` + where + order + b.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, r.handlePostgresError("list pages", err)
	}
	defer rows.Close()

	var pages []*starsight.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.handlePostgresError("list pages", err)
	}
	return pages, total, nil
}

// Topic operations

func (r *Repository) SaveTopic(ctx context.Context, topic *starsight.Topic) error {
	if topic.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO topics (name, slug) VALUES ($1, $2) RETURNING id`,
			topic.Name, topic.Slug,
		).Scan(&topic.ID)
		if err != nil {
			return r.handlePostgresError("create topic", err)
		}
		return nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE topics SET name = $2, slug = $3 WHERE id = $1`, topic.ID, topic.Name, topic.Slug)
	if err != nil {
		return r.handlePostgresError("update topic", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %d: %w", topic.ID, starsight.ErrTopicNotFound)
	}
	return nil
}

func (r *Repository) GetTopic(ctx context.Context, id int64) (*starsight.Topic, error) {
	var t starsight.Topic
	err := r.db.QueryRow(ctx, `SELECT id, name, slug FROM topics WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("topic %d: %w", id, starsight.ErrTopicNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get topic", err)
	}
	return &t, nil
}

func (r *Repository) ListTopics(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Topic, int, error) {
	var b queryBuilder
	if filter.Slug != "" {
		b.add("slug = " + b.arg(filter.Slug))
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM topics`+b.whereSQL(), b.args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count topics", err)
	}
	query := `SELECT id, name, slug FROM topics` + b.whereSQL() + ` ORDER BY name, id` + b.page(filter.Limit, filter.Offset)
	topics, err := collect(ctx, r.db, query, b.args, func(row pgx.Rows) (*starsight.Topic, error) {
		var t starsight.Topic
		return &t, row.Scan(&t.ID, &t.Name, &t.Slug)
	})
	if err != nil {
		return nil, 0, r.handlePostgresError("list topics", err)
	}
	return topics, total, nil
}

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db DBTX, query string, args []any, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Author operations

const authorColumns = `id, username, first_name, last_name, email, image_id, add_email_link, website`

func scanAuthor(row pgx.Row) (*starsight.Author, error) {
	var a starsight.Author
	err := row.Scan(&a.ID, &a.Username, &a.FirstName, &a.LastName, &a.Email, &a.ImageID, &a.AddEmailLink, &a.Website)
	return &a, err
}

func (r *Repository) SaveAuthor(ctx context.Context, author *starsight.Author) error {
	if author.ID == 0 {
		err := r.db.QueryRow(ctx, `
			INSERT INTO authors (username, first_name, last_name, email, image_id, add_email_link, website)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			author.Username, author.FirstName, author.LastName, author.Email,
			author.ImageID, author.AddEmailLink, author.Website,
		).Scan(&author.ID)
		if err != nil {
			return r.handlePostgresError("create author", err)
		}
		return nil
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE authors SET username = $2, first_name = $3, last_name = $4, email = $5,
			image_id = $6, add_email_link = $7, website = $8
		WHERE id = $1`,
		author.ID, author.Username, author.FirstName, author.LastName, author.Email,
		author.ImageID, author.AddEmailLink, author.Website)
	if err != nil {
		return r.handlePostgresError("update author", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("author %d: %w", author.ID, starsight.ErrAuthorNotFound)
	}
	return nil
}

func (r *Repository) GetAuthor(ctx context.Context, id int64) (*starsight.Author, error) {
	a, err := scanAuthor(r.db.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("author %d: %w", id, starsight.ErrAuthorNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get author", err)
	}
	return a, nil
}

func (r *Repository) ListAuthors(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Author, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM authors`).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count authors", err)
	}
	var b queryBuilder
	query := `SELECT ` + authorColumns + ` FROM authors ORDER BY id` + b.page(filter.Limit, filter.Offset)
	authors, err := collect(ctx, r.db, query, b.args, func(row pgx.Rows) (*starsight.Author, error) {
		return scanAuthor(row)
	})
	if err != nil {
		return nil, 0, r.handlePostgresError("list authors", err)
	}
	return authors, total, nil
}

// Navigation operations

func (r *Repository) SaveNavigation(ctx context.Context, nav *starsight.Navigation) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if nav.ID == 0 {
			err := tx.QueryRow(ctx,
				`INSERT INTO navigations (title, slug) VALUES ($1, $2) RETURNING id`, nav.Title, nav.Slug,
			).Scan(&nav.ID)
			if err != nil {
				return r.handlePostgresError("create navigation", err)
			}
		} else {
			tag, err := tx.Exec(ctx, `UPDATE navigations SET title = $2, slug = $3 WHERE id = $1`, nav.ID, nav.Title, nav.Slug)
			if err != nil {
				return r.handlePostgresError("update navigation", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("navigation %d: %w", nav.ID, starsight.ErrNavigationNotFound)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM navigation_links WHERE navigation_id = $1`, nav.ID); err != nil {
				return r.handlePostgresError("replace navigation links", err)
			}
		}

		for i := range nav.Links {
			l := &nav.Links[i]
			err := tx.QueryRow(ctx, `
				INSERT INTO navigation_links (navigation_id, title, page_id, url, open_in_new_page, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				nav.ID, l.Title, l.PageID, l.URL, l.OpenInNewPage, l.SortOrder,
			).Scan(&l.ID)
			if err != nil {
				return r.handlePostgresError("create navigation link", err)
			}
		}
		return nil
	})
}

func (r *Repository) loadLinks(ctx context.Context, navs []*starsight.Navigation) error {
	if len(navs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(navs))
	byID := make(map[int64]*starsight.Navigation, len(navs))
	for _, n := range navs {
		ids = append(ids, n.ID)
		byID[n.ID] = n
		n.Links = []starsight.Link{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT navigation_id, id, title, page_id, url, open_in_new_page, sort_order
		FROM navigation_links WHERE navigation_id = ANY($1)
		ORDER BY sort_order, id`, ids)
	if err != nil {
		return r.handlePostgresError("list navigation links", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			navID int64
			l     starsight.Link
		)
		if err := rows.Scan(&navID, &l.ID, &l.Title, &l.PageID, &l.URL, &l.OpenInNewPage, &l.SortOrder); err != nil {
			return err
		}
		byID[navID].Links = append(byID[navID].Links, l)
	}
	return rows.Err()
}

func (r *Repository) GetNavigation(ctx context.Context, id int64) (*starsight.Navigation, error) {
	var n starsight.Navigation
	err := r.db.QueryRow(ctx, `SELECT id, title, slug FROM navigations WHERE id = $1`, id).Scan(&n.ID, &n.Title, &n.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("navigation %d: %w", id, starsight.ErrNavigationNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get navigation", err)
	}
	if err := r.loadLinks(ctx, []*starsight.Navigation{&n}); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) ListNavigations(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Navigation, int, error) {
	var b queryBuilder
	if filter.Slug != "" {
		b.add("slug = " + b.arg(filter.Slug))
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM navigations`+b.whereSQL(), b.args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count navigations", err)
	}
	query := `SELECT id, title, slug FROM navigations` + b.whereSQL() + ` ORDER BY id` + b.page(filter.Limit, filter.Offset)
	navs, err := collect(ctx, r.db, query, b.args, func(row pgx.Rows) (*starsight.Navigation, error) {
		var n starsight.Navigation
		return &n, row.Scan(&n.ID, &n.Title, &n.Slug)
	})
	if err != nil {
		return nil, 0, r.handlePostgresError("list navigations", err)
	}
	if err := r.loadLinks(ctx, navs); err != nil {
		return nil, 0, err
	}
	return navs, total, nil
}

// Asset operations

func (r *Repository) CreateImage(ctx context.Context, image *starsight.Image) error {
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO images (title, file, width, height, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		image.Title, image.File, image.Width, image.Height, tagsOrEmpty(image.Tags), image.CreatedAt,
	).Scan(&image.ID)
	if err != nil {
		return r.handlePostgresError("create image", err)
	}
	return nil
}

const imageColumns = `id, title, file, width, height, tags, created_at`

func scanImage(row pgx.Row) (*starsight.Image, error) {
	var img starsight.Image
	err := row.Scan(&img.ID, &img.Title, &img.File, &img.Width, &img.Height, &img.Tags, &img.CreatedAt)
	return &img, err
}

func (r *Repository) GetImage(ctx context.Context, id int64) (*starsight.Image, error) {
	img, err := scanImage(r.db.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", id, starsight.ErrImageNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get image", err)
	}
	return img, nil
}

func assetWhere(f starsight.AssetFilter) *queryBuilder {
	b := &queryBuilder{}
	if f.Title != "" {
		b.add("title = " + b.arg(f.Title))
	}
	if len(f.Tags) > 0 {
		b.add("tags @> " + b.arg(f.Tags))
	}
	return b
}

func (r *Repository) ListImages(ctx context.Context, filter starsight.AssetFilter) ([]*starsight.Image, int, error) {
	b := assetWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM images`+b.whereSQL(), b.args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count images", err)
	}
	query := `SELECT ` + imageColumns + ` FROM images` + b.whereSQL() + ` ORDER BY id` + b.page(filter.Limit, filter.Offset)
	images, err := collect(ctx, r.db, query, b.args, func(row pgx.Rows) (*starsight.Image, error) {
		return scanImage(row)
	})
	if err != nil {
		return nil, 0, r.handlePostgresError("list images", err)
	}
	return images, total, nil
}

func (r *Repository) CreateDocument(ctx context.Context, doc *starsight.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO documents (title, file, tags, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		doc.Title, doc.File, tagsOrEmpty(doc.Tags), doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return r.handlePostgresError("create document", err)
	}
	return nil
}

const documentColumns = `id, title, file, tags, created_at`

func scanDocument(row pgx.Row) (*starsight.Document, error) {
	var doc starsight.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.File, &doc.Tags, &doc.CreatedAt)
	return &doc, err
}

func (r *Repository) GetDocument(ctx context.Context, id int64) (*starsight.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, starsight.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, r.handlePostgresError("get document", err)
	}
	return doc, nil
}

func (r *Repository) ListDocuments(ctx context.Context, filter starsight.AssetFilter) ([]*starsight.Document, int, error) {
	b := assetWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM documents`+b.whereSQL(), b.args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count documents", err)
	}
	query := `SELECT ` + documentColumns + ` FROM documents` + b.whereSQL() + ` ORDER BY id` + b.page(filter.Limit, filter.Offset)
	docs, err := collect(ctx, r.db, query, b.args, func(row pgx.Rows) (*starsight.Document, error) {
		return scanDocument(row)
	})
	if err != nil {
		return nil, 0, r.handlePostgresError("list documents", err)
	}
	return docs, total, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

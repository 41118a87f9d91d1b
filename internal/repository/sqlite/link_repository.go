package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

const createLinksTable = `
CREATE TABLE IF NOT EXISTS links (
	link_id TEXT PRIMARY KEY,
	original_link TEXT NOT NULL,
	unrestricted_url TEXT NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	generated_at DATETIME NOT NULL,
	source TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_links_generated_at ON links(generated_at);
`

type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) repository.LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLinksTable); err != nil {
		return fmt.Errorf("create links table: %w", err)
	}
	return nil
}

func (r *LinkRepository) Get(ctx context.Context, linkID string) (*domain.ResolvedLink, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT link_id, original_link, unrestricted_url, filename, size, generated_at, source
FROM links
WHERE link_id = ?`, linkID)
	return scanLink(row)
}

func (r *LinkRepository) Put(ctx context.Context, link *domain.ResolvedLink) error {
	if link == nil || link.LinkID == "" {
		return fmt.Errorf("link id is required")
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO links (link_id, original_link, unrestricted_url, filename, size, generated_at, source)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(link_id) DO UPDATE SET
	original_link = excluded.original_link,
	unrestricted_url = excluded.unrestricted_url,
	filename = excluded.filename,
	size = excluded.size,
	generated_at = excluded.generated_at,
	source = excluded.source`,
		link.LinkID,
		link.OriginalLink,
		link.UnrestrictedURL,
		link.Filename,
		link.Size,
		link.GeneratedAt.UTC(),
		string(link.Source),
	); err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	return nil
}

func (r *LinkRepository) UpdateURL(ctx context.Context, linkID, url string, generatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE links SET unrestricted_url = ?, generated_at = ?
WHERE link_id = ?`, url, generatedAt.UTC(), linkID)
	if err != nil {
		return fmt.Errorf("update link url: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update link url rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) List(ctx context.Context) ([]domain.ResolvedLink, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT link_id, original_link, unrestricted_url, filename, size, generated_at, source
FROM links
ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []domain.ResolvedLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func scanLink(row interface {
	Scan(dest ...any) error
}) (*domain.ResolvedLink, error) {
	var (
		link   domain.ResolvedLink
		source string
	)
	if err := row.Scan(
		&link.LinkID,
		&link.OriginalLink,
		&link.UnrestrictedURL,
		&link.Filename,
		&link.Size,
		&link.GeneratedAt,
		&source,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrLinkNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	link.Source = domain.LinkSource(source)
	link.GeneratedAt = link.GeneratedAt.UTC()
	return &link, nil
}

var _ repository.LinkRepository = (*LinkRepository)(nil)

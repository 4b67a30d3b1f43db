package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
)

var ErrNotFound = errors.New("no stored scrape")

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate creates the tables when they do not exist yet.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveResult stores one scrape and its reviews in a single transaction and
// returns the scrape id.
func (r *Repo) SaveResult(ctx context.Context, res *scraper.ScrapeResult) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	out, err := tx.ExecContext(ctx, insertScrapeSQL,
		res.URL, res.Company, res.TotalReviews, res.Pages, res.ScrapedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert scrape: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(res.Reviews); start += insertBatch {
		end := min(start+insertBatch, len(res.Reviews))
		if err := insertReviews(ctx, tx, id, res.Reviews[start:end]); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

func insertReviews(ctx context.Context, tx *sql.Tx, scrapeID int64, rs []scraper.Review) error {
	var b strings.Builder
	b.WriteString(insertReviewsPrefix)
	args := make([]any, 0, len(rs)*reviewColumns)
	for i, rv := range rs {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(reviewPlaceholders)
		images, _ := json.Marshal(rv.ReviewImages)
		args = append(args,
			scrapeID,
			rv.ReviewID,
			rv.ReviewerName,
			valStr(rv.ReviewerImage),
			rv.Rating,
			valStr(rv.Title),
			valStr(rv.Content),
			valStr(rv.ReviewDate),
			valStr(rv.ReviewDateFormatted),
			valStr(rv.DateOfExperience),
			string(images),
			rv.IsVerified,
			valStr(rv.CompanyReply),
			valStr(rv.ReviewerLocation),
			valStr(rv.ReviewerTotalReviews),
			rv.HelpfulVotes,
			rv.ScrapedAt.UTC(),
		)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	return nil
}

// LatestResult loads the most recent stored scrape of url, reviews in
// listing order.
func (r *Repo) LatestResult(ctx context.Context, url string) (*scraper.ScrapeResult, error) {
	var (
		id  int64
		res scraper.ScrapeResult
	)
	err := r.db.QueryRowContext(ctx, latestScrapeSQL, url).
		Scan(&id, &res.URL, &res.Company, &res.TotalReviews, &res.Pages, &res.ScrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, reviewsOfScrapeSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res.Reviews = []scraper.Review{}
	for rows.Next() {
		var rv scraper.Review
		var image, title, content, date, formatted, experience, reply, location, total sql.NullString
		var images []byte
		var scrapedAt time.Time
		if err := rows.Scan(&rv.ReviewID, &rv.ReviewerName, &image, &rv.Rating, &title, &content, &date,
			&formatted, &experience, &images, &rv.IsVerified, &reply, &location, &total,
			&rv.HelpfulVotes, &scrapedAt); err != nil {
			return nil, err
		}
		rv.ReviewerImage = image.String
		rv.Title = title.String
		rv.Content = content.String
		rv.ReviewDate = date.String
		rv.ReviewDateFormatted = formatted.String
		rv.DateOfExperience = experience.String
		rv.CompanyReply = reply.String
		rv.ReviewerLocation = location.String
		rv.ReviewerTotalReviews = total.String
		rv.ScrapedAt = scrapedAt
		rv.ReviewImages = []string{}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &rv.ReviewImages); err != nil {
				return nil, fmt.Errorf("review %v images: %w", rv.ReviewID, err)
			}
		}
		res.Reviews = append(res.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(res.Reviews, func(i, j int) bool {
		return reviewSeq(res.Reviews[i].ReviewID) < reviewSeq(res.Reviews[j].ReviewID)
	})
	return &res, nil
}

// reviewSeq is the position encoded in a "review-<n>" id.
func reviewSeq(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "review-"))
	return n
}

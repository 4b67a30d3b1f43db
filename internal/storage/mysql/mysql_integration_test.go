//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/go-cmp/cmp"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
	mysqlrepo "github.com/rishabh-registerkaro/review-scrapper/internal/storage/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviews")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepo_MySQL_SaveAndLoad(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// idempotent
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	const url = "https://www.trustpilot.com/review/example.com"
	if _, err := repo.LatestResult(ctx, url); !errors.Is(err, mysqlrepo.ErrNotFound) {
		t.Fatalf("LatestResult on empty db: %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := &scraper.ScrapeResult{
		Company:      "Example Ltd",
		URL:          url,
		ScrapedAt:    at,
		TotalReviews: 1234,
		Pages:        1,
	}
	// more than one insert batch, ids out of lexical order
	for i := 0; i < 512; i++ {
		result.Reviews = append(result.Reviews, scraper.Review{
			ReviewerName:         fmt.Sprintf("Reviewer %d", i),
			Rating:               i%5 + 1,
			Title:                "Title",
			ReviewImages:         []string{},
			ReviewID:             scraper.ReviewID(i/20+1, i%20),
			ReviewerTotalReviews: "1 review",
			ScrapedAt:            at,
		})
	}
	result.Reviews[0].ReviewImages = []string{"https://cdn.example.com/1.jpg"}
	result.Reviews[0].CompanyReply = "Thanks!"
	result.Reviews[0].IsVerified = true

	if _, err := repo.SaveResult(ctx, result); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	got, err := repo.LatestResult(ctx, url)
	if err != nil {
		t.Fatalf("LatestResult: %v", err)
	}
	if diff := cmp.Diff(result, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

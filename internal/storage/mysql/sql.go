package mysql

// schema is applied statement by statement by Migrate.
var schema = []string{`
CREATE TABLE IF NOT EXISTS scrapes (
  id            BIGINT AUTO_INCREMENT PRIMARY KEY,
  url           VARCHAR(512) NOT NULL,
  company       VARCHAR(255) NOT NULL,
  total_reviews INT NOT NULL,
  pages         INT NOT NULL,
  scraped_at    DATETIME(3) NOT NULL,
  KEY idx_scrapes_url (url(191), scraped_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
CREATE TABLE IF NOT EXISTS reviews (
  scrape_id              BIGINT NOT NULL,
  review_id              VARCHAR(32) NOT NULL,
  reviewer_name          VARCHAR(255) NOT NULL,
  reviewer_image         TEXT,
  rating                 TINYINT NOT NULL,
  title                  TEXT,
  content                MEDIUMTEXT,
  review_date            VARCHAR(32),
  review_date_formatted  VARCHAR(64),
  date_of_experience     VARCHAR(64),
  review_images          JSON,
  is_verified            BOOLEAN NOT NULL,
  company_reply          MEDIUMTEXT,
  reviewer_location      VARCHAR(64),
  reviewer_total_reviews VARCHAR(64),
  helpful_votes          INT NOT NULL,
  scraped_at             DATETIME(3) NOT NULL,
  PRIMARY KEY (scrape_id, review_id),
  CONSTRAINT fk_reviews_scrape FOREIGN KEY (scrape_id) REFERENCES scrapes (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

const insertScrapeSQL = `
INSERT INTO scrapes
  (url, company, total_reviews, pages, scraped_at)
VALUES
  (?, ?, ?, ?, ?)
`

const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (scrape_id, review_id, reviewer_name, reviewer_image, rating, title, content, review_date,\n" +
	"   review_date_formatted, date_of_experience, review_images, is_verified, company_reply,\n" +
	"   reviewer_location, reviewer_total_reviews, helpful_votes, scraped_at)\nVALUES "

const reviewPlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const reviewColumns = 17

// insertBatch keeps a statement well below MySQL's 65535 placeholder limit.
const insertBatch = 500

const latestScrapeSQL = `
SELECT id, url, company, total_reviews, pages, scraped_at
FROM scrapes
WHERE url = ?
ORDER BY scraped_at DESC, id DESC
LIMIT 1
`

const reviewsOfScrapeSQL = `
SELECT review_id, reviewer_name, reviewer_image, rating, title, content, review_date,
       review_date_formatted, date_of_experience, review_images, is_verified, company_reply,
       reviewer_location, reviewer_total_reviews, helpful_votes, scraped_at
FROM reviews
WHERE scrape_id = ?
`

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "HTTP_ADDR", "HOST", "PORT", "METRICS_ADDR", "DEFAULT_TIMEOUT", "MAX_PAGES",
		"PAGE_DELAY_MS", "MAX_CONCURRENT_PAGES", "HEADLESS", "RENDER", "CHROME_PATH", "COOKIE_FILE",
		"RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_MAX_REQUESTS", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"CACHE_TTL_SECONDS", "MYSQL_DSN",
	} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())

	shouldBe := Config{
		AppEnv:             "production",
		HTTPAddr:           ":3000",
		Timeout:            30 * time.Second,
		MaxPages:           5,
		PageDelay:          time.Second,
		MaxConcurrentPages: 2,
		Headless:           true,
		RateLimitWindow:    15 * time.Minute,
		RateLimitMax:       1000,
		CacheTTL:           15 * time.Minute,
	}
	if diff := cmp.Diff(shouldBe, Load()); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_PAGES", "0")
	t.Setenv("DEFAULT_TIMEOUT", "45000")
	t.Setenv("HEADLESS", "")
	t.Setenv("RENDER", "true")
	t.Setenv("REDIS_DB", "two")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COOKIE_FILE=cookies.json\nMAX_CONCURRENT_PAGES=4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a variable that is set, even to ""
	unsetenv(t, "COOKIE_FILE")
	unsetenv(t, "MAX_CONCURRENT_PAGES")
	chdir(t, dir)

	c := Load()
	type values struct {
		HTTPAddr           string
		MaxPages           int
		Timeout            time.Duration
		Headless           bool
		Render             bool
		RedisDB            int
		CookieFile         string
		MaxConcurrentPages int
	}
	got := values{c.HTTPAddr, c.MaxPages, c.Timeout, c.Headless, c.Render, c.RedisDB, c.CookieFile, c.MaxConcurrentPages}
	shouldBe := values{"127.0.0.1:8080", 5, 45 * time.Second, false, true, 0, "cookies.json", 4}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func TestIsProduction(t *testing.T) {
	got := []bool{IsProduction("production"), IsProduction("PROD"), IsProduction("dev"), IsProduction("")}
	if diff := cmp.Diff([]bool{true, true, false, false}, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// ValidateDir lints every .sql file in dir, or the embedded set when dir is
// empty, and reports all problems at once.
func ValidateDir(dir string) error {
	fsys, err := source(dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	var problems []error
	versions := make(map[string]string, len(files))
	for _, name := range files {
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			problems = append(problems, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if first, dup := versions[match[1]]; dup {
			problems = append(problems, fmt.Errorf("duplicate migration version %s in %q and %q", match[1], first, name))
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			problems = append(problems, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		problems = append(problems, checkMarkers(name, string(body))...)
	}
	return multierr.Combine(problems...)
}

func checkMarkers(name, body string) []error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	var problems []error
	if up < 0 {
		problems = append(problems, fmt.Errorf("migration %q missing %q", name, upMarker))
	}
	if down < 0 {
		problems = append(problems, fmt.Errorf("migration %q missing %q", name, downMarker))
	}
	if up >= 0 && down >= 0 && down < up {
		problems = append(problems, fmt.Errorf("migration %q has its down section before the up section", name))
	}
	return problems
}

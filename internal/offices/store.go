package offices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
)

// Store persists the office list found by discovery.
type Store interface {
	Load(ctx context.Context) ([]booking.Office, error)
	Save(ctx context.Context, offices []booking.Office) error
}

// FileStore keeps offices as an indented JSON array in the portal's own
// field names. A missing or empty file is an empty list.
type FileStore struct {
	Path string
}

func (s FileStore) Load(ctx context.Context) ([]booking.Office, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read offices: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}
	var out []booking.Office
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse offices %s: %w", s.Path, err)
	}
	return out, nil
}

func (s FileStore) Save(ctx context.Context, offices []booking.Office) error {
	b, err := json.MarshalIndent(offices, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, b, 0o644); err != nil {
		return fmt.Errorf("write offices: %w", err)
	}
	return nil
}

// Index maps lower-cased short names to offices; later duplicates win.
func Index(all []booking.Office) map[string]booking.Office {
	m := make(map[string]booking.Office, len(all))
	for _, o := range all {
		m[o.Key()] = o
	}
	return m
}

// Resolve looks names up case-insensitively, keeping the order of names.
// Unknown names are returned so the caller can warn about them. When
// nothing resolves the error wraps ErrNoOffices and lists what is known.
func Resolve(all []booking.Office, names []string) ([]booking.Office, []string, error) {
	idx := Index(all)
	var found []booking.Office
	var unknown []string
	for _, n := range names {
		if o, ok := idx[strings.ToLower(strings.TrimSpace(n))]; ok {
			found = append(found, o)
			continue
		}
		unknown = append(unknown, n)
	}
	if len(found) > 0 {
		return found, unknown, nil
	}

	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%w: offices_to_query is empty (known: %s)", internaltypes.ErrNoOffices, known(all))
	}
	return nil, unknown, fmt.Errorf("%w: none of %s matched (known: %s)", internaltypes.ErrNoOffices, strings.Join(names, ", "), known(all))
}

func known(all []booking.Office) string {
	if len(all) == 0 {
		return "none, run offices discover"
	}
	names := make([]string, 0, len(all))
	for _, o := range all {
		names = append(names, o.ShortName)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

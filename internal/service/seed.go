package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gwtrade/tradepost/internal/domain"
)

// LoadSeedShops reads one shop payload per *.json file in dir. Seed
// shops go through the normal upsert path, so malformed ones are
// skipped there, not here.
func LoadSeedShops(dir string) ([]*domain.Shop, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read seed dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	shops := make([]*domain.Shop, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read seed file %s: %w", name, err)
		}
		var shop domain.Shop
		if err := json.Unmarshal(data, &shop); err != nil {
			return nil, fmt.Errorf("parse seed file %s: %w", name, err)
		}
		shops = append(shops, &shop)
	}
	return shops, nil
}

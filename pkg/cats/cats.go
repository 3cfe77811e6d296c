package cats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smith3v/meowfacts/pkg/db"
)

var (
	ErrUnknownCategory = errors.New("unknown cat category")
	ErrUnknownRarity   = errors.New("unknown cat rarity")
)

var (
	Categories = []string{"Players", "Collectors", "Spinner"}
	Rarities   = []string{"common", "rare", "epic", "legendary"}
)

type Image struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Rarity string `json:"rarity"`
}

// NormalizeCategory matches a category case-insensitively and returns its
// canonical spelling.
func NormalizeCategory(category string) (string, error) {
	return match(Categories, category, ErrUnknownCategory)
}

func NormalizeRarity(rarity string) (string, error) {
	return match(Rarities, rarity, ErrUnknownRarity)
}

func match(known []string, value string, notFound error) (string, error) {
	value = strings.TrimSpace(value)
	for _, k := range known {
		if strings.EqualFold(k, value) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", notFound, value)
}

func ByCategory(ctx context.Context, category string) ([]Image, error) {
	canonical, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}
	var rows []db.CatImage
	if err := db.DB.WithContext(ctx).Where("category = ?", canonical).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load cat images: %w", err)
	}
	out := make([]Image, len(rows))
	for i, row := range rows {
		out[i] = Image{ID: row.ID, Name: row.Name, Image: row.ImageURL, Rarity: row.Rarity}
	}
	return out, nil
}

func Add(ctx context.Context, category, name, imageURL, rarity string) (db.CatImage, error) {
	canonical, err := NormalizeCategory(category)
	if err != nil {
		return db.CatImage{}, err
	}
	r, err := NormalizeRarity(rarity)
	if err != nil {
		return db.CatImage{}, err
	}
	row := db.CatImage{
		Category: canonical,
		Name:     strings.TrimSpace(name),
		ImageURL: strings.TrimSpace(imageURL),
		Rarity:   r,
	}
	if row.Name == "" || row.ImageURL == "" {
		return db.CatImage{}, errors.New("cat image needs a name and an image url")
	}
	if err := db.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return db.CatImage{}, fmt.Errorf("create cat image: %w", err)
	}
	return row, nil
}

package transform

import (
	"context"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// CatalogTransformer maps raw catalog records into the songs and artists dimensions.
// Every record yields exactly one Song and one Artist; nothing is filtered or deduplicated.
type CatalogTransformer struct {
	partitions int
}

// NewCatalogTransformer creates a transformer using the given parallel width.
func NewCatalogTransformer(partitions int) *CatalogTransformer {
	return &CatalogTransformer{partitions: partitions}
}

// CatalogResult holds both dimensions derived from one catalog read.
type CatalogResult struct {
	Songs   []core.Song
	Artists []core.Artist
}

// Transform projects every record into a Song row and an Artist row.
func (t *CatalogTransformer) Transform(ctx context.Context, records []core.CatalogRecord) (*CatalogResult, error) {
	songs, err := mapPartitions(ctx, records, t.partitions, func(r core.CatalogRecord) (core.Song, bool) {
		return SongFromRecord(r), true
	})
	if err != nil {
		return nil, err
	}
	artists, err := mapPartitions(ctx, records, t.partitions, func(r core.CatalogRecord) (core.Artist, bool) {
		return ArtistFromRecord(r), true
	})
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Songs: songs, Artists: artists}, nil
}

// SongFromRecord projects the song columns; year and duration pass through unmodified.
func SongFromRecord(r core.CatalogRecord) core.Song {
	return core.Song{
		SongID:   r.SongID,
		Title:    r.Title,
		ArtistID: r.ArtistID,
		Year:     r.Year,
		Duration: r.Duration,
	}
}

// ArtistFromRecord projects and renames the artist_* columns.
func ArtistFromRecord(r core.CatalogRecord) core.Artist {
	return core.Artist{
		ArtistID:  r.ArtistID,
		Name:      r.ArtistName,
		Location:  r.ArtistLocation,
		Latitude:  r.ArtistLatitude,
		Longitude: r.ArtistLongitude,
	}
}

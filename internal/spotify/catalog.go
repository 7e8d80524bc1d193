package spotify

import (
	"context"
	"fmt"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
)

// albumDetail mirrors the album endpoint response. The embedded first tracks
// page is ignored; AlbumTracks walks the listing endpoint instead so the
// pagination path is uniform.
type albumDetail struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Artists     []mcache.Artist `json:"artists"`
}

type tracksPage struct {
	Items []mcache.Track `json:"items"`
	Next  string         `json:"next"`
}

type albumsPage struct {
	Items []mcache.Album `json:"items"`
	Next  string         `json:"next"`
}

// Album returns the album detail without its track listing.
func (c *Client) Album(ctx context.Context, albumID string) (mcache.Album, error) {
	var detail albumDetail
	requestURL := fmt.Sprintf("%s/albums/%s", c.cfg.BaseURL, albumID)
	if err := c.getJSON(ctx, "album", requestURL, &detail); err != nil {
		return mcache.Album{}, fmt.Errorf("fetch album %s: %w", albumID, err)
	}
	return mcache.Album{
		ID:          detail.ID,
		Name:        detail.Name,
		AlbumType:   detail.AlbumType,
		ReleaseDate: detail.ReleaseDate,
		TotalTracks: detail.TotalTracks,
		Artists:     detail.Artists,
	}, nil
}

// AlbumTracks walks the track listing until the API reports no further page.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]mcache.Track, error) {
	var tracks []mcache.Track
	requestURL := fmt.Sprintf("%s/albums/%s/tracks?limit=%d", c.cfg.BaseURL, albumID, pageLimit)
	for requestURL != "" {
		var page tracksPage
		if err := c.getJSON(ctx, "album-tracks", requestURL, &page); err != nil {
			return nil, fmt.Errorf("fetch tracks for album %s: %w", albumID, err)
		}
		tracks = append(tracks, page.Items...)
		requestURL = page.Next
	}
	return tracks, nil
}

// ArtistAlbums enumerates the artist's albums, singles and compilations. On
// a mid-pagination failure the pages collected so far are returned alongside
// the error so discovery can still submit them.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) ([]mcache.Album, error) {
	var albums []mcache.Album
	requestURL := fmt.Sprintf(
		"%s/artists/%s/albums?include_groups=album,single,compilation&limit=%d",
		c.cfg.BaseURL, artistID, pageLimit,
	)
	for requestURL != "" {
		var page albumsPage
		if err := c.getJSON(ctx, "artist-albums", requestURL, &page); err != nil {
			return albums, fmt.Errorf("fetch albums for artist %s: %w", artistID, err)
		}
		albums = append(albums, page.Items...)
		requestURL = page.Next
	}
	return albums, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"blindtest/logger"
	"blindtest/model"
)

type deezerArtist struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverMedium string `json:"cover_medium"`
}

type deezerTrack struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	TitleShort string       `json:"title_short"`
	Preview    string       `json:"preview"`
	Readable   *bool        `json:"readable"`
	Artist     deezerArtist `json:"artist"`
	Album      *deezerAlbum `json:"album"`
}

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerPlaylist struct {
	Title       string       `json:"title"`
	Cover       string       `json:"cover"`
	CoverMedium string       `json:"cover_medium"`
	Error       *deezerError `json:"error"`
	Tracks      struct {
		Data []deezerTrack `json:"data"`
	} `json:"tracks"`
}

// catalogPath maps an identifier to an API path. Bare identifiers are
// playlists; "album/302127" style identifiers are passed through.
func catalogPath(playlistID string) string {
	id := strings.Trim(playlistID, "/")
	if strings.Contains(id, "/") {
		return id
	}
	return "playlist/" + url.PathEscape(id)
}

// FetchCatalog fetches a playlist and flattens its tracks. Tracks flagged as
// not readable or without a preview are dropped since nobody could hear them.
func (c *Client) FetchCatalog(ctx context.Context, playlistID string) (*model.Catalog, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, catalogPath(playlistID))
	logger.Info("[FetchCatalog] requesting playlist", logger.String("playlist_id", playlistID), logger.String("url", endpoint))

	req, err := c.createRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("[FetchCatalog] request failed", logger.String("playlist_id", playlistID), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, playlistID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("[FetchCatalog] unexpected status", logger.String("playlist_id", playlistID), logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var payload deezerPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Error("[FetchCatalog] decode failed", logger.String("playlist_id", playlistID), logger.ErrorField(err))
		return nil, fmt.Errorf("decode playlist %s: %w", playlistID, err)
	}

	// The API reports most failures in-band with a 200.
	if payload.Error != nil {
		if payload.Error.Code == 800 || payload.Error.Type == "DataException" {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, payload.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s (code %d)", ErrCatalogUnavailable, payload.Error.Message, payload.Error.Code)
	}

	catalog := &model.Catalog{
		ID:     playlistID,
		Title:  payload.Title,
		Tracks: make([]model.Track, 0, len(payload.Tracks.Data)),
	}
	fallbackCover := payload.CoverMedium
	if fallbackCover == "" {
		fallbackCover = payload.Cover
	}

	for _, t := range payload.Tracks.Data {
		if t.Readable != nil && !*t.Readable {
			continue
		}
		if t.Preview == "" {
			continue
		}
		track := model.Track{
			ID:         t.ID,
			ArtistName: t.Artist.Name,
			Title:      t.Title,
			TitleShort: t.TitleShort,
			AlbumTitle: payload.Title,
			CoverURL:   fallbackCover,
			PreviewURL: t.Preview,
		}
		if t.Album != nil {
			track.AlbumTitle = t.Album.Title
			if t.Album.CoverMedium != "" {
				track.CoverURL = t.Album.CoverMedium
			} else if t.Album.Cover != "" {
				track.CoverURL = t.Album.Cover
			}
		}
		catalog.Tracks = append(catalog.Tracks, track)
	}

	logger.Info("[FetchCatalog] playlist fetched",
		logger.String("playlist_id", playlistID),
		logger.String("title", catalog.Title),
		logger.Int("tracks", len(catalog.Tracks)))
	return catalog, nil
}

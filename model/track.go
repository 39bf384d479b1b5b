package model

import "regexp"

// fingerprintPattern matches the 32 hex digit token the catalog embeds in
// preview URLs (e.g. ".../c-deda7fa9316d9e9e880d2c6207e92260-8.mp3").
var fingerprintPattern = regexp.MustCompile(`[a-f0-9]{32}`)

// Track is one playable entry of a catalog playlist.
type Track struct {
	ID          int64  `json:"id"`
	ArtistName  string `json:"artistName"`
	Title       string `json:"title"`
	TitleShort  string `json:"titleShort"`
	AlbumTitle  string `json:"albumTitle"`
	CoverURL    string `json:"coverUrl"`
	PreviewURL  string `json:"previewUrl"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Catalog is the result of a playlist fetch.
type Catalog struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Tracks []Track `json:"tracks"`
}

// DeriveFingerprint extracts the preview token from a preview URL. It returns
// "" when the URL carries none; the last token wins when there are several.
func DeriveFingerprint(previewURL string) string {
	matches := fingerprintPattern.FindAllString(previewURL, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// EnsureFingerprint derives the fingerprint on first use and caches it on the track.
func (t *Track) EnsureFingerprint() string {
	if t.Fingerprint == "" {
		t.Fingerprint = DeriveFingerprint(t.PreviewURL)
	}
	return t.Fingerprint
}

// AnswerTitle is the title players have to guess. The short title drops
// catalog decorations such as "(Remastered 2011)" and is preferred when set.
func (t *Track) AnswerTitle() string {
	if t.TitleShort != "" {
		return t.TitleShort
	}
	return t.Title
}

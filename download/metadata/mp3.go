package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// Cover images larger than this are not embedded.
const maxCoverBytes = 10 << 20

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func (e *Embedder) embedMP3(ctx context.Context, filePath string, song *Song) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		// Unreadable existing tag; start over with an empty one.
		tag, err = id3v2.Open(filePath, id3v2.Options{Parse: false})
		if err != nil {
			return &MetadataError{
				Path:     filePath,
				Message:  "Failed to open MP3 file",
				Original: err,
			}
		}
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(song.Title)
	tag.SetArtist(song.Artist)
	if song.Album != "" {
		tag.SetAlbum(song.Album)
	}

	setText := func(description, value string) {
		id := tag.CommonID(description)
		tag.DeleteFrames(id)
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}

	if song.AlbumArtist != "" {
		setText("Band/Orchestra/Accompaniment", song.AlbumArtist)
	}
	if song.TrackNumber > 0 {
		track := strconv.Itoa(song.TrackNumber)
		if song.TracksCount > 0 {
			track = fmt.Sprintf("%d/%d", song.TrackNumber, song.TracksCount)
		}
		setText("Track number/Position in set", track)
	}
	if song.DiscNumber > 0 {
		setText("Part of a set", strconv.Itoa(song.DiscNumber))
	}
	if song.Date != "" {
		setText("Recording time", song.Date)
	}
	// TYER as well, for players that only read ID3v2.3 frames.
	if year := song.Year(); year > 0 {
		tag.DeleteFrames("TYER")
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, strconv.Itoa(year))
	}

	if song.CoverURL != "" {
		if err := e.attachCover(ctx, tag, song.CoverURL); err != nil {
			e.logger.Warnf("cover_art_download_failed file=%s cover_url=%s error=%v", filePath, song.CoverURL, err)
		}
	}

	if err := tag.Save(); err != nil {
		return &MetadataError{
			Path:     filePath,
			Message:  "Failed to save MP3 metadata",
			Original: err,
		}
	}
	return nil
}

func (e *Embedder) attachCover(ctx context.Context, tag *id3v2.Tag, coverURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download cover art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download cover art: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read cover art: %w", err)
	}
	if len(data) > maxCoverBytes {
		return fmt.Errorf("cover art exceeds %d bytes", maxCoverBytes)
	}

	mimeType := "image/jpeg"
	if bytes.HasPrefix(data, pngSignature) {
		mimeType = "image/png"
	}

	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     data,
	})
	return nil
}

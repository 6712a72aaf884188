package storage

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// Cover variant names - persisted trong books.covers và dùng làm filename stem
const (
	VariantOriginal  = "original"
	VariantThumbnail = "thumbnail"
)

const (
	thumbnailMaxWidth  = 150
	thumbnailMaxHeight = 200
	originalQuality    = 100
	thumbnailQuality   = 85
)

// CoverVariant là một rendition đã encode sẵn của cover image
type CoverVariant struct {
	Name string // original | thumbnail
	Data []byte // JPEG bytes
}

// Filename trả về tên file chuẩn của variant trong cover namespace
func (v CoverVariant) Filename() string {
	return v.Name + ".jpg"
}

// CoverProcessor derive các stored variants từ raw cover bytes
type CoverProcessor struct{}

func NewCoverProcessor() *CoverProcessor {
	return &CoverProcessor{}
}

// Derive decode cover một lần duy nhất rồi render mọi variant:
//   - original: full resolution, re-encode JPEG quality 100
//   - thumbnail: fit trong box 150x200, JPEG quality 85
//
// Input không decode được là non-fatal: log warning, trả về nil.
func (p *CoverProcessor) Derive(data []byte) []CoverVariant {
	if len(data) == 0 {
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Msg("Cover image could not be decoded, skipping variants")
		return nil
	}

	variants := make([]CoverVariant, 0, 2)

	original, err := encodeJPEG(img, originalQuality)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode original cover variant")
		return nil
	}
	variants = append(variants, CoverVariant{Name: VariantOriginal, Data: original})

	resized := imaging.Fit(img, thumbnailMaxWidth, thumbnailMaxHeight, imaging.Lanczos)
	thumbnail, err := encodeJPEG(resized, thumbnailQuality)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode thumbnail cover variant")
		return variants
	}
	variants = append(variants, CoverVariant{Name: VariantThumbnail, Data: thumbnail})

	return variants
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package storage

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/tablostudio/guestflow/internal/models"
)

// Conversion names generated for every gallery photo.
const (
	ConversionThumb   = "thumb"
	ConversionPreview = "preview"
)

// URLBuilder derives public URLs of media files and their conversions:
// originals live at {base}/{id}/{file_name}, conversions at
// {base}/{id}/conversions/{stem}-{conversion}.jpg.
type URLBuilder struct {
	base string
}

func NewURLBuilder(base string) *URLBuilder {
	return &URLBuilder{base: strings.TrimRight(base, "/")}
}

func (b *URLBuilder) Original(asset *models.MediaAsset) string {
	return b.base + "/" + strconv.FormatUint(uint64(asset.ID), 10) + "/" + url.PathEscape(asset.FileName)
}

func (b *URLBuilder) Conversion(asset *models.MediaAsset, conversion string) string {
	stem := strings.TrimSuffix(asset.FileName, path.Ext(asset.FileName))
	return b.base + "/" + strconv.FormatUint(uint64(asset.ID), 10) + "/conversions/" + url.PathEscape(stem+"-"+conversion+".jpg")
}

func (b *URLBuilder) Thumb(asset *models.MediaAsset) string {
	return b.Conversion(asset, ConversionThumb)
}

func (b *URLBuilder) Preview(asset *models.MediaAsset) string {
	return b.Conversion(asset, ConversionPreview)
}

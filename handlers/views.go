package handlers

import (
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/services"
)

// UploadsRoute is where locally stored images are served from
const UploadsRoute = "/uploads/"

// KomaView adds browser usable image URLs to a koma
type KomaView struct {
	models.Koma
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type detailResponse struct {
	Comic          models.Comic           `json:"comic"`
	Komas          []KomaView             `json:"komas"`
	KomaCount      int                    `json:"koma_count"`
	PublicComments []models.PublicComment `json:"public_comments"`
}

type adminDetailResponse struct {
	Comic models.Comic `json:"comic"`
	Komas []KomaView   `json:"komas"`
}

func assetURL(ref string) string {
	if models.IsRemoteImage(ref) {
		return ref
	}
	return UploadsRoute + ref
}

func komaViews(komas []models.Koma) []KomaView {
	views := make([]KomaView, 0, len(komas))
	for _, k := range komas {
		v := KomaView{Koma: k, ImageURL: assetURL(k.ImageFilename)}
		if k.ThumbnailFilename != nil {
			v.ThumbnailURL = assetURL(*k.ThumbnailFilename)
		}
		views = append(views, v)
	}
	return views
}

func newDetailResponse(view *services.DetailView) detailResponse {
	comments := view.PublicComments
	if comments == nil {
		comments = []models.PublicComment{}
	}
	return detailResponse{
		Comic:          view.Comic,
		Komas:          komaViews(view.Komas),
		KomaCount:      view.KomaCount,
		PublicComments: comments,
	}
}

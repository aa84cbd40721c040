package services

import (
	"context"

	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/storage"
)

// PhotoRef describes a selected photo. Only ID is set when the media record
// no longer exists.
type PhotoRef struct {
	ID         uint    `json:"id"`
	Filename   *string `json:"filename"`
	URL        *string `json:"url"`
	ThumbURL   *string `json:"thumb_url"`
	PreviewURL *string `json:"preview_url"`
}

// IsPlaceholder reports whether the media record behind the id was missing.
func (r *PhotoRef) IsPlaceholder() bool {
	return r.Filename == nil
}

type SelectionView struct {
	Claimed        []PhotoRef             `json:"claimed"`
	Retouch        []PhotoRef             `json:"retouch"`
	Tablo          *PhotoRef              `json:"tablo"`
	WorkflowStatus *models.WorkflowStatus `json:"workflow_status"`
	CurrentStep    *models.WorkflowStep   `json:"current_step"`
}

type SelectionService struct {
	linker *Linker
	media  MediaLookup
	urls   *storage.URLBuilder
}

func NewSelectionService(linker *Linker, media MediaLookup, urls *storage.URLBuilder) *SelectionService {
	return &SelectionService{linker: linker, media: media, urls: urls}
}

// GetPersonSelections lists the photos a person selected in each workflow
// step. A person without a verified session or progress record yields an
// empty view, not an error.
func (s *SelectionService) GetPersonSelections(ctx context.Context, projectID, galleryID, personID uint) (*SelectionView, error) {
	link, err := s.linker.LinkPerson(ctx, projectID, galleryID, personID)
	if err != nil {
		return nil, err
	}

	view := &SelectionView{Claimed: []PhotoRef{}, Retouch: []PhotoRef{}}
	p := link.Progress
	if p == nil {
		return view, nil
	}

	step, status := p.CurrentStep, p.WorkflowStatus
	view.CurrentStep = &step
	view.WorkflowStatus = &status

	claimed := p.ClaimedIDs()
	retouch := p.EffectiveRetouchIDs()
	tablo := p.EffectiveTabloID()

	ids := UniqueMediaIDs(claimed, retouch, tablo)
	byID, err := LoadMediaIndex(ctx, s.media, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range claimed {
		view.Claimed = append(view.Claimed, s.photoRef(id, byID[id]))
	}
	for _, id := range retouch {
		view.Retouch = append(view.Retouch, s.photoRef(id, byID[id]))
	}
	if tablo != nil {
		ref := s.photoRef(*tablo, byID[*tablo])
		view.Tablo = &ref
	}
	return view, nil
}

func (s *SelectionService) photoRef(id uint, asset *models.MediaAsset) PhotoRef {
	ref := PhotoRef{ID: id}
	if asset == nil {
		return ref
	}
	filename := asset.FileName
	url := s.urls.Original(asset)
	thumb := s.urls.Thumb(asset)
	preview := s.urls.Preview(asset)
	ref.Filename = &filename
	ref.URL = &url
	ref.ThumbURL = &thumb
	ref.PreviewURL = &preview
	return ref
}

// UniqueMediaIDs merges selections into one id list without duplicates,
// keeping first-seen order.
func UniqueMediaIDs(claimed, retouch []uint, tablo *uint) []uint {
	seen := make(map[uint]struct{}, len(claimed)+len(retouch)+1)
	ids := make([]uint, 0, len(claimed)+len(retouch)+1)
	add := func(id uint) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range claimed {
		add(id)
	}
	for _, id := range retouch {
		add(id)
	}
	if tablo != nil {
		add(*tablo)
	}
	return ids
}

// LoadMediaIndex loads media with a single lookup and keys it by id.
func LoadMediaIndex(ctx context.Context, media MediaLookup, ids []uint) (map[uint]*models.MediaAsset, error) {
	index := make(map[uint]*models.MediaAsset, len(ids))
	if len(ids) == 0 {
		return index, nil
	}
	assets, err := media.GetMediaByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		index[assets[i].ID] = &assets[i]
	}
	return index, nil
}

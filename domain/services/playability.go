package services

import "catalog-cache/domain/core/entities"

// AgeRestrictedRating is the catalog's content-rating sentinel for age-gated videos
const AgeRestrictedRating = "ytAgeRestricted"

const (
	ReasonNotFound      = "Video not found"
	ReasonNotEmbeddable = "Video cannot be embedded"
	ReasonAgeRestricted = "Age-restricted content"
)

// Playability is the safety and embeddability verdict for a video
type Playability struct {
	Embeddable    bool   `json:"embeddable"`
	AgeRestricted bool   `json:"ageRestricted"`
	Reason        string `json:"reason,omitempty"`
}

// Playable reports whether nothing blocks playback
func (p Playability) Playable() bool {
	return p.Embeddable && !p.AgeRestricted
}

// ClassifyPlayability derives the verdict from a detail record.
// A missing embeddable flag is treated as embeddable so absent data does not over-block.
func ClassifyPlayability(detail *entities.EntityDetail) Playability {
	if detail == nil {
		return Playability{Embeddable: false, AgeRestricted: false, Reason: ReasonNotFound}
	}

	embeddable := true
	if detail.Status.Embeddable != nil {
		embeddable = *detail.Status.Embeddable
	}
	ageRestricted := detail.ContentDetails.ContentRating.YtRating == AgeRestrictedRating

	p := Playability{Embeddable: embeddable, AgeRestricted: ageRestricted}
	switch {
	case !embeddable:
		p.Reason = ReasonNotEmbeddable
	case ageRestricted:
		p.Reason = ReasonAgeRestricted
	}
	return p
}

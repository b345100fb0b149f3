package youtube

import (
	"catalog-cache/domain/core/entities"

	ytapi "google.golang.org/api/youtube/v3"
)

// Mappings from the generated Data API types onto catalog entities. Each
// resource carries its own snippet type, so each gets its own mapper.

func thumbnail(t *ytapi.Thumbnail) *entities.Thumbnail {
	if t == nil {
		return nil
	}
	return &entities.Thumbnail{URL: t.Url, Width: int(t.Width), Height: int(t.Height)}
}

func thumbnails(t *ytapi.ThumbnailDetails) entities.Thumbnails {
	if t == nil {
		return entities.Thumbnails{}
	}
	return entities.Thumbnails{
		Default: thumbnail(t.Default),
		Medium:  thumbnail(t.Medium),
		High:    thumbnail(t.High),
	}
}

func searchSnippet(s *ytapi.SearchResultSnippet) entities.Snippet {
	if s == nil {
		return entities.Snippet{}
	}
	return entities.Snippet{
		Title:        s.Title,
		Description:  s.Description,
		ChannelID:    s.ChannelId,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  s.PublishedAt,
		Thumbnails:   thumbnails(s.Thumbnails),
	}
}

func playlistSnippet(s *ytapi.PlaylistItemSnippet) entities.Snippet {
	if s == nil {
		return entities.Snippet{}
	}
	return entities.Snippet{
		Title:        s.Title,
		Description:  s.Description,
		ChannelID:    s.ChannelId,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  s.PublishedAt,
		Thumbnails:   thumbnails(s.Thumbnails),
	}
}

func playlistVideoID(item *ytapi.PlaylistItem) string {
	if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
		return item.ContentDetails.VideoId
	}
	if item.Snippet != nil && item.Snippet.ResourceId != nil {
		return item.Snippet.ResourceId.VideoId
	}
	return ""
}

func channelDetail(c *ytapi.Channel) entities.EntityDetail {
	detail := entities.EntityDetail{ID: c.Id}
	if s := c.Snippet; s != nil {
		detail.Snippet = entities.Snippet{
			Title:       s.Title,
			Description: s.Description,
			ChannelID:   c.Id,
			PublishedAt: s.PublishedAt,
			CustomURL:   s.CustomUrl,
			Thumbnails:  thumbnails(s.Thumbnails),
		}
	}
	if st := c.Statistics; st != nil {
		detail.Statistics = entities.Statistics{
			ViewCount:  count(st.ViewCount),
			VideoCount: count(st.VideoCount),
		}
		if !st.HiddenSubscriberCount {
			detail.Statistics.SubscriberCount = count(st.SubscriberCount)
		}
	}
	if cd := c.ContentDetails; cd != nil && cd.RelatedPlaylists != nil {
		detail.ContentDetails.UploadsPlaylist = cd.RelatedPlaylists.Uploads
	}
	return detail
}

func videoDetail(v *ytapi.Video) entities.EntityDetail {
	detail := entities.EntityDetail{ID: v.Id}
	if s := v.Snippet; s != nil {
		detail.Snippet = entities.Snippet{
			Title:        s.Title,
			Description:  s.Description,
			ChannelID:    s.ChannelId,
			ChannelTitle: s.ChannelTitle,
			PublishedAt:  s.PublishedAt,
			Thumbnails:   thumbnails(s.Thumbnails),
		}
	}
	if st := v.Statistics; st != nil {
		detail.Statistics.ViewCount = count(st.ViewCount)
	}
	if cd := v.ContentDetails; cd != nil {
		detail.ContentDetails.Duration = cd.Duration
		if cd.ContentRating != nil {
			detail.ContentDetails.ContentRating.YtRating = cd.ContentRating.YtRating
		}
	}
	// Absent status part leaves Embeddable nil
	if st := v.Status; st != nil {
		embeddable := st.Embeddable
		detail.Status = entities.Status{Embeddable: &embeddable, PrivacyStatus: st.PrivacyStatus}
	}
	return detail
}

func count(n uint64) *int64 {
	v := int64(n)
	return &v
}

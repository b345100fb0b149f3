package services

import "catalog-cache/domain/core/entities"

// DetailIndex maps an entity id to its detail record
type DetailIndex map[string]*entities.EntityDetail

// IndexDetails builds a DetailIndex from a batch lookup result
func IndexDetails(details []entities.EntityDetail) DetailIndex {
	index := make(DetailIndex, len(details))
	for i := range details {
		index[details[i].ID] = &details[i]
	}
	return index
}

// EnrichVideos joins video search stubs with their detail records and classifies them
func EnrichVideos(stubs []entities.SearchStub, details DetailIndex) []entities.Video {
	videos := make([]entities.Video, 0, len(stubs))
	for _, stub := range stubs {
		videos = append(videos, buildVideo(stub.ID, stub.Snippet, details[stub.ID]))
	}
	return videos
}

// EnrichCollection joins collection items with their detail records and classifies them
func EnrichCollection(items []entities.CollectionItem, details DetailIndex) []entities.Video {
	videos := make([]entities.Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, buildVideo(item.VideoID, item.Snippet, details[item.VideoID]))
	}
	return videos
}

// EnrichChannels joins channel search stubs with their detail records.
// A channel without a detail record keeps nil counters.
func EnrichChannels(stubs []entities.SearchStub, details DetailIndex) []entities.Channel {
	channels := make([]entities.Channel, 0, len(stubs))
	for _, stub := range stubs {
		detail := details[stub.ID]
		ch := entities.Channel{
			ID:          stub.ID,
			Title:       stub.Snippet.Title,
			Description: stub.Snippet.Description,
			Thumbnail:   pickThumbnail(stub.Snippet, detail),
		}
		if detail != nil {
			ch.Title = firstNonEmpty(detail.Snippet.Title, ch.Title)
			ch.Description = firstNonEmpty(detail.Snippet.Description, ch.Description)
			ch.CustomURL = detail.Snippet.CustomURL
			ch.SubscriberCount = detail.Statistics.SubscriberCount
			ch.VideoCount = detail.Statistics.VideoCount
		}
		channels = append(channels, ch)
	}
	return channels
}

func buildVideo(id string, snippet entities.Snippet, detail *entities.EntityDetail) entities.Video {
	playability := ClassifyPlayability(detail)
	v := entities.Video{
		ID:            id,
		Title:         snippet.Title,
		Description:   snippet.Description,
		ChannelID:     snippet.ChannelID,
		ChannelTitle:  snippet.ChannelTitle,
		PublishedAt:   snippet.PublishedAt,
		Thumbnail:     pickThumbnail(snippet, detail),
		Embeddable:    playability.Embeddable,
		AgeRestricted: playability.AgeRestricted,
		Reason:        playability.Reason,
	}
	if detail != nil {
		v.Title = firstNonEmpty(detail.Snippet.Title, v.Title)
		v.Description = firstNonEmpty(detail.Snippet.Description, v.Description)
		v.ChannelID = firstNonEmpty(detail.Snippet.ChannelID, v.ChannelID)
		v.ChannelTitle = firstNonEmpty(detail.Snippet.ChannelTitle, v.ChannelTitle)
		v.PublishedAt = firstNonEmpty(detail.Snippet.PublishedAt, v.PublishedAt)
		v.Duration = detail.ContentDetails.Duration
		v.DurationSeconds = ParseDuration(detail.ContentDetails.Duration)
		v.ViewCount = detail.Statistics.ViewCount
	}
	return v
}

// pickThumbnail prefers the detail record's chain and falls back to the stub's
func pickThumbnail(stub entities.Snippet, detail *entities.EntityDetail) string {
	if detail != nil {
		if url := detail.Snippet.Thumbnails.Best(); url != "" {
			return url
		}
	}
	return stub.Thumbnails.Best()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

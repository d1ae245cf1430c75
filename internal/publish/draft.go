package publish

import "github.com/google/uuid"

const videoMetadataSchema = "https://json-schemas.lens.dev/posts/video/3.0.0.json"

// VideoAttachment points at the uploaded media artifact.
type VideoAttachment struct {
	Item   string `json:"item"`
	Type   string `json:"type"`
	AltTag string `json:"altTag,omitempty"`
}

// DraftBody is the lens-side payload of a PublicationDraft.
type DraftBody struct {
	ID               string          `json:"id"`
	MainContentFocus string          `json:"mainContentFocus"`
	Title            string          `json:"title,omitempty"`
	Content          string          `json:"content,omitempty"`
	Video            VideoAttachment `json:"video"`
	Tags             []string        `json:"tags,omitempty"`
	Locale           string          `json:"locale"`
}

// PublicationDraft is the metadata document uploaded ahead of posting.
// Exactly one draft is built per encoded artifact.
type PublicationDraft struct {
	Schema string    `json:"$schema"`
	Lens   DraftBody `json:"lens"`
}

// buildDraft assembles the metadata document for one run's encoded media.
func buildDraft(in Input, mediaURI string) *PublicationDraft {
	return &PublicationDraft{
		Schema: videoMetadataSchema,
		Lens: DraftBody{
			ID:               uuid.NewString(),
			MainContentFocus: "VIDEO",
			Title:            in.Title,
			Content:          in.Description,
			Video: VideoAttachment{
				Item:   mediaURI,
				Type:   "video/mp4",
				AltTag: in.Title,
			},
			Tags:   in.Tags,
			Locale: "en",
		},
	}
}

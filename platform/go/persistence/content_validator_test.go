package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentValidator(t *testing.T) {
	t.Parallel()

	v := NewContentValidator()

	tests := []struct {
		name        string
		contentType string
		payload     string
		wantErr     bool
	}{
		{name: "rich text", contentType: ContentTypeRichText, payload: `{"html":"<p>hi</p>"}`},
		{name: "rich text without html", contentType: ContentTypeRichText, payload: `{}`, wantErr: true},
		{name: "gallery", contentType: ContentTypePhotoGallery, payload: `{"photo_ids":["3f1c5a52-7c2f-4a6e-9d43-0f7b2f1a9c11"],"display_mode":"carousel"}`},
		{name: "gallery bad mode", contentType: ContentTypePhotoGallery, payload: `{"photo_ids":[],"display_mode":"spiral"}`, wantErr: true},
		{name: "references", contentType: ContentTypeReferences, payload: `{"references":[{"type":"event","id":"3f1c5a52-7c2f-4a6e-9d43-0f7b2f1a9c11"}]}`},
		{name: "reference with bad id", contentType: ContentTypeReferences, payload: `{"references":[{"type":"event","id":"nope"}]}`, wantErr: true},
		{name: "reference with unknown type", contentType: ContentTypeReferences, payload: `{"references":[{"type":"vendor","id":"3f1c5a52-7c2f-4a6e-9d43-0f7b2f1a9c11"}]}`, wantErr: true},
		{name: "unknown content type", contentType: "video", payload: `{}`, wantErr: true},
		{name: "empty payload", contentType: ContentTypeRichText, payload: ``, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tt.contentType, []byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

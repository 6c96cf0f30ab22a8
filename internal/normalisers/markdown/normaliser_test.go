package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const sampleDoc = "# Getting Started\n\n" +
	"Install the **CLI** with `go install`.\n\n" +
	"- Read the [guide](/docs/guide) first\n" +
	"- Download the [manual](https://acme.example.com/manual.pdf)\n\n" +
	"![Architecture](img/arch.png)\n\n" +
	"> Follow us on [YouTube](https://youtube.com/@acme).\n\n" +
	"Visit https://status.example.com for uptime.\n"

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/markdown")
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_TitleAndText(t *testing.T) {
	page, err := New().Normalise(context.Background(), &domain.RawPage{
		URL:     "https://acme.example.com/start/",
		Content: []byte(sampleDoc),
	})
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", page.Title)
	assert.Contains(t, page.Text, "Install the CLI with go install.")
	assert.Contains(t, page.Text, "Read the guide first")
	assert.NotContains(t, page.Text, "](")
	assert.NotContains(t, page.Text, "**")
	assert.NotContains(t, page.Text, "# ")
	assert.Equal(t, sampleDoc[:len(sampleDoc)-1], page.Markdown)
}

func TestNormalise_LinksAndMedia(t *testing.T) {
	page, err := New().Normalise(context.Background(), &domain.RawPage{
		URL:     "https://acme.example.com/start/",
		Content: []byte(sampleDoc),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://acme.example.com/docs/guide",
		"https://acme.example.com/manual.pdf",
		"https://youtube.com/@acme",
		"https://status.example.com",
	}, page.Links)

	require.Len(t, page.Media, 3)
	assert.Equal(t, domain.Media{
		URL: "https://acme.example.com/start/img/arch.png", Type: domain.MediaImage,
		MetaInfo: "Architecture", PageURL: "https://acme.example.com/start/",
	}, page.Media[0])
	assert.Equal(t, domain.MediaPDF, page.Media[1].Type)
	assert.Equal(t, "manual", page.Media[1].MetaInfo)
	assert.Equal(t, domain.MediaSocial, page.Media[2].Type)
	assert.Equal(t, "youtube.com", page.Media[2].MetaInfo)
}

func TestNormalise_TitleFromFilename(t *testing.T) {
	page, err := New().Normalise(context.Background(), &domain.RawPage{
		Filename: "release-notes.md",
		Content:  []byte("No heading here."),
	})
	require.NoError(t, err)

	assert.Equal(t, "release notes", page.Title)
	assert.Equal(t, "No heading here.", page.Text)
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

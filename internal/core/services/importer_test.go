package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/normalisers"
)

func TestFileImporter_Markdown(t *testing.T) {
	env := newTestEnv(t)
	importer := NewFileImporter(env.documents, normalisers.Default())

	doc, err := importer.Import(context.Background(), domain.RawFile{
		Filename: "validators.md",
		Content:  []byte("# Running a Validator\n\nYou need **32 tokens** to start."),
	}, domain.NewDocument{Category: domain.CategoryTraining})

	require.NoError(t, err)
	assert.Equal(t, "Running a Validator", doc.Title)
	assert.Equal(t, domain.CategoryTraining, doc.Category)
	assert.Equal(t, domain.StatusUploaded, doc.Status)
	assert.Contains(t, doc.Content, "You need 32 tokens to start.")
}

func TestFileImporter_FrontMatterDescription(t *testing.T) {
	env := newTestEnv(t)
	importer := NewFileImporter(env.documents, normalisers.Default())

	doc, err := importer.Import(context.Background(), domain.RawFile{
		Filename: "rotation.md",
		Content:  []byte("---\ntitle: On-call rotation\ndescription: Who is paged and when\n---\nWeekly, starting Monday.\n"),
	}, domain.NewDocument{})

	require.NoError(t, err)
	assert.Equal(t, "On-call rotation", doc.Title)
	assert.Equal(t, "Who is paged and when", doc.Description)
	assert.Equal(t, "Weekly, starting Monday.", doc.Content)
}

func TestFileImporter_ExplicitTitleWins(t *testing.T) {
	env := newTestEnv(t)
	importer := NewFileImporter(env.documents, normalisers.Default())

	doc, err := importer.Import(context.Background(), domain.RawFile{
		Filename: "page.html",
		MIMEType: "text/html",
		Content:  []byte("<html><head><title>Ignored</title></head><body><p>Body</p></body></html>"),
	}, domain.NewDocument{Title: "Community Page"})

	require.NoError(t, err)
	assert.Equal(t, "Community Page", doc.Title)
	assert.Equal(t, domain.CategoryKnowledge, doc.Category)
	assert.Equal(t, "Body", doc.Content)
}

func TestFileImporter_Unsupported(t *testing.T) {
	env := newTestEnv(t)
	importer := NewFileImporter(env.documents, normalisers.Default())

	_, err := importer.Import(context.Background(), domain.RawFile{Filename: "logo.png"}, domain.NewDocument{})

	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	docs, err := env.documents.List(context.Background(), domain.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFileImporter_Supports(t *testing.T) {
	importer := NewFileImporter(nil, normalisers.Default())

	assert.True(t, importer.Supports("faq.txt"))
	assert.False(t, importer.Supports("archive.zip"))
}

package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the community knowledge base"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer      string             `json:"answer"`
	Sources     []domain.SourceRef `json:"sources"`
	Confidence    float64            `json:"confidence"`
	NoKnowledge   bool               `json:"no_knowledge,omitempty"`
	LowConfidence bool               `json:"low_confidence,omitempty"`
}

// FindMembersInput is the input schema for the find_members tool.
type FindMembersInput struct {
	Skills        string `json:"skills" jsonschema:"comma or space separated skills, e.g. rust, solana"`
	AvailableOnly bool   `json:"available_only,omitempty" jsonschema:"only return members open to being contacted"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of members to return"`
}

// FindMembersOutput is the output schema for the find_members tool.
type FindMembersOutput struct {
	Members []domain.SkillMatch `json:"members"`
	Count   int                 `json:"count"`
	// KnownSkills is filled when nothing matched.
	KnownSkills []string `json:"known_skills,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Category string `json:"category,omitempty" jsonschema:"filter by category: knowledge, training or reference"`
	Status   string `json:"status,omitempty" jsonschema:"filter by status: uploaded, indexing, indexed or failed"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// DocumentInfo is the document summary returned to MCP clients.
type DocumentInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Status   string `json:"status"`
	URI      string `json:"uri"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed community documents, citing sources",
	}, s.handleAsk)

	if s.ports.Skills != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "find_members",
			Description: "Find community members with the given skills",
		}, s.handleFindMembers)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List uploaded documents and their indexing status",
		}, s.handleListDocuments)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, input.Question)
	if errors.Is(err, domain.ErrNoKnowledge) {
		return nil, AskOutput{Answer: domain.NoKnowledgeAnswer, Sources: []domain.SourceRef{}, NoKnowledge: true}, nil
	}
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:        answer.Text,
		Sources:       answer.Sources,
		Confidence:    answer.Confidence,
		LowConfidence: answer.LowConfidence,
	}, nil
}

func (s *Server) handleFindMembers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindMembersInput,
) (*mcp.CallToolResult, FindMembersOutput, error) {
	matches, err := s.ports.Skills.Find(ctx, input.Skills, domain.FindOptions{
		AvailableOnly: input.AvailableOnly,
		Limit:         input.Limit,
	})
	if err != nil {
		return nil, FindMembersOutput{}, err
	}

	output := FindMembersOutput{Members: matches, Count: len(matches)}
	if len(matches) == 0 {
		known, err := s.ports.Skills.Skills(ctx)
		if err != nil {
			return nil, FindMembersOutput{}, fmt.Errorf("listing skills: %w", err)
		}
		output.KnownSkills = known
	}
	return nil, output, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	filter := domain.DocumentFilter{
		Category: domain.Category(input.Category),
		Status:   domain.DocumentStatus(input.Status),
	}
	docs, err := s.ports.Document.List(ctx, filter)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Documents: make([]DocumentInfo, len(docs)), Count: len(docs)}
	for i := range docs {
		output.Documents[i] = documentInfo(&docs[i])
	}
	return nil, output, nil
}

func documentInfo(doc *domain.Document) DocumentInfo {
	return DocumentInfo{
		ID:       doc.ID,
		Title:    doc.Title,
		Category: doc.Category.String(),
		Status:   doc.Status.String(),
		URI:      documentURI(doc.ID),
	}
}

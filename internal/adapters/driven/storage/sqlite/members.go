package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// MemberStore is the members table. It is a registry for the skill
// matcher and can be filled from a members.json export.
type MemberStore struct {
	store *Store
}

var (
	_ driven.MemberRegistry = (*MemberStore)(nil)
	_ driven.MemberWriter   = (*MemberStore)(nil)
)

// SaveMembers inserts or replaces members in one transaction.
func (m *MemberStore) SaveMembers(ctx context.Context, members []domain.Member) error {
	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO members (id, name, skills, projects, availability, twitter_handle, telegram_handle)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			skills = excluded.skills,
			projects = excluded.projects,
			availability = excluded.availability,
			twitter_handle = excluded.twitter_handle,
			telegram_handle = excluded.telegram_handle
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, mem := range members {
		skills, err := json.Marshal(nonNil(mem.Skills))
		if err != nil {
			return fmt.Errorf("marshalling skills: %w", err)
		}
		projects, err := json.Marshal(nonNil(mem.Projects))
		if err != nil {
			return fmt.Errorf("marshalling projects: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, mem.ID, mem.Name, string(skills), string(projects),
			mem.Available, mem.TwitterHandle, mem.TelegramHandle); err != nil {
			return fmt.Errorf("saving member %s: %w", mem.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListMembers returns every member, ordered by ID.
func (m *MemberStore) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT id, name, skills, projects, availability, twitter_handle, telegram_handle
		FROM members ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member //nolint:prealloc // size unknown from query
	for rows.Next() {
		mem, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, *mem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

// GetMember retrieves a member by ID.
func (m *MemberStore) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	row := m.store.db.QueryRowContext(ctx, `
		SELECT id, name, skills, projects, availability, twitter_handle, telegram_handle
		FROM members WHERE id = ?
	`, id)
	mem, err := scanMember(row)
	if err != nil {
		return nil, notFound(err, "member", id)
	}
	return mem, nil
}

func scanMember(row scanner) (*domain.Member, error) {
	var mem domain.Member
	var skills, projects string
	if err := row.Scan(&mem.ID, &mem.Name, &skills, &projects, &mem.Available,
		&mem.TwitterHandle, &mem.TelegramHandle); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &mem.Skills); err != nil {
		return nil, fmt.Errorf("unmarshalling skills: %w", err)
	}
	if err := json.Unmarshal([]byte(projects), &mem.Projects); err != nil {
		return nil, fmt.Errorf("unmarshalling projects: %w", err)
	}
	if len(mem.Projects) == 0 {
		mem.Projects = nil
	}
	return &mem, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

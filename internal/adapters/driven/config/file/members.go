package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// Ensure MemberFile implements the interface.
var _ driven.MemberRegistry = (*MemberFile)(nil)

// MemberFile reads members from a members.json file. The file is re-read
// when its modification time changes, so edits show up without a restart.
type MemberFile struct {
	path string

	mu      sync.Mutex
	modTime int64
	members []domain.Member
}

// NewMemberFile creates a registry backed by path.
func NewMemberFile(path string) *MemberFile {
	return &MemberFile{path: path}
}

// memberRecord accepts numeric or string ids and a missing availability flag.
type memberRecord struct {
	ID             json.RawMessage `json:"id"`
	Name           string          `json:"name"`
	Skills         []string        `json:"skills"`
	Projects       []string        `json:"projects"`
	Availability   *bool           `json:"availability"`
	TwitterHandle  string          `json:"twitter_handle"`
	TelegramHandle string          `json:"telegram_id"`
}

// ParseMembers decodes a members.json document. Records without an id get
// their 1-based position as id; availability defaults to true.
func ParseMembers(data []byte) ([]domain.Member, error) {
	var records []memberRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: members file: %v", domain.ErrInvalidInput, err)
	}

	out := make([]domain.Member, 0, len(records))
	for i, r := range records {
		id := decodeID(r.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		available := true
		if r.Availability != nil {
			available = *r.Availability
		}
		out = append(out, domain.Member{
			ID:             id,
			Name:           r.Name,
			Skills:         r.Skills,
			Projects:       r.Projects,
			Available:      available,
			TwitterHandle:  r.TwitterHandle,
			TelegramHandle: r.TelegramHandle,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ListMembers returns every member, ordered by ID. A missing file is an
// empty registry.
func (f *MemberFile) ListMembers(_ context.Context) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.refresh(); err != nil {
		return nil, err
	}
	out := make([]domain.Member, len(f.members))
	copy(out, f.members)
	return out, nil
}

// GetMember retrieves a member by ID.
func (f *MemberFile) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	members, err := f.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			return &members[i], nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
}

// refresh reloads the file if it changed (caller must hold lock).
func (f *MemberFile) refresh() error {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		f.members, f.modTime = nil, 0
		return nil
	}
	if err != nil {
		return err
	}
	if info.ModTime().UnixNano() == f.modTime && f.members != nil {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	members, err := ParseMembers(data)
	if err != nil {
		return err
	}
	f.members, f.modTime = members, info.ModTime().UnixNano()
	return nil
}

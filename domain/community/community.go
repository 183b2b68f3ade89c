// Package community models community and moderation objects from spec.md
// §4.8.
package community

import "time"

// Privacy controls who may view and who may post/vote/share into a
// community.
type Privacy string

const (
	PrivacyOpenPublic       Privacy = "open_public"
	PrivacyExclusivePublic  Privacy = "exclusive_public"
	PrivacyOpenPrivate      Privacy = "open_private"
	PrivacyExclusivePrivate Privacy = "exclusive_private"
)

// CanView reports whether an arbitrary (non-member) account may view posts.
func (p Privacy) CanView() bool {
	return p == PrivacyOpenPublic || p == PrivacyExclusivePublic
}

// RequiresMembershipToPost reports whether posting/voting/sharing requires
// membership.
func (p Privacy) RequiresMembershipToPost() bool {
	return p != PrivacyOpenPublic
}

// Community is the top-level community record.
type Community struct {
	Name      string
	Founder   string
	Privacy   Privacy
	PublicKey string
	PinnedPost string
	CreatedAt time.Time
}

// Member is the per-community membership record holding role sets and
// moderator weights.
type Member struct {
	CommunityName  string
	Members        map[string]struct{}
	Moderators     map[string]float64 // moderator -> tag weight
	Administrators map[string]struct{}
	Subscribers    map[string]struct{}
	Blacklisted    map[string]struct{}
}

// NewMember returns an empty Member record for community name.
func NewMember(name string) *Member {
	return &Member{
		CommunityName:  name,
		Members:        map[string]struct{}{},
		Moderators:     map[string]float64{},
		Administrators: map[string]struct{}{},
		Subscribers:    map[string]struct{}{},
		Blacklisted:    map[string]struct{}{},
	}
}

// IsMember reports membership.
func (m *Member) IsMember(account string) bool {
	_, ok := m.Members[account]
	return ok
}

// IsModerator reports moderator status.
func (m *Member) IsModerator(account string) bool {
	_, ok := m.Moderators[account]
	return ok
}

// IsAdministrator reports administrator status.
func (m *Member) IsAdministrator(account string) bool {
	_, ok := m.Administrators[account]
	return ok
}

// IsBlacklisted reports blacklist status.
func (m *Member) IsBlacklisted(account string) bool {
	_, ok := m.Blacklisted[account]
	return ok
}

// JoinRequest is a pending request to join a public community.
type JoinRequest struct {
	CommunityName string
	Account       string
	Created       time.Time
	Expiration    time.Time
}

// Invite is a pending invitation to join any community, issued by a member
// with invite authority.
type Invite struct {
	CommunityName string
	Inviter       string
	Invitee       string
	Created       time.Time
	Expiration    time.Time
}

// ModerationTag classifies a post; administrators add/remove moderators,
// founders add/remove administrators.
type ModerationTag struct {
	CommunityName string
	Post          string
	Moderator     string
	Tag           string
	Weight        float64
	CreatedAt     time.Time
}

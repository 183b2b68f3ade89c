package operation

import "github.com/r3e-network/ledgerchain/domain/community"

// CommunityCreate registers a new community.
type CommunityCreate struct {
	Founder string
	Name    string
	Privacy community.Privacy
	PublicKey string
}

func (o CommunityCreate) Discriminator() string      { return "community.create" }
func (o CommunityCreate) Signatory() string          { return o.Founder }
func (o CommunityCreate) SignedFor() string          { return o.Founder }
func (o CommunityCreate) RequiredClass() AuthorityClass { return ClassActive }

// CommunityJoinRequest requests membership in a public community.
type CommunityJoinRequest struct {
	Account string
	Community string
}

func (o CommunityJoinRequest) Discriminator() string      { return "community.join_request" }
func (o CommunityJoinRequest) Signatory() string          { return o.Account }
func (o CommunityJoinRequest) SignedFor() string          { return o.Account }
func (o CommunityJoinRequest) RequiredClass() AuthorityClass { return ClassPosting }

// CommunityJoinInvite invites an account to a community.
type CommunityJoinInvite struct {
	Inviter   string
	Invitee   string
	Community string
}

func (o CommunityJoinInvite) Discriminator() string      { return "community.join_invite" }
func (o CommunityJoinInvite) Signatory() string          { return o.Inviter }
func (o CommunityJoinInvite) SignedFor() string          { return o.Inviter }
func (o CommunityJoinInvite) RequiredClass() AuthorityClass { return ClassPosting }

// CommunityJoinAccept accepts a pending join request or invite.
type CommunityJoinAccept struct {
	Account   string
	Community string
	FromInvite bool
}

func (o CommunityJoinAccept) Discriminator() string      { return "community.join_accept" }
func (o CommunityJoinAccept) Signatory() string          { return o.Account }
func (o CommunityJoinAccept) SignedFor() string          { return o.Account }
func (o CommunityJoinAccept) RequiredClass() AuthorityClass { return ClassPosting }

// CommunityAddMod adds or removes a moderator; requires administrator role.
type CommunityAddMod struct {
	Admin     string
	Community string
	Moderator string
	Remove    bool
}

func (o CommunityAddMod) Discriminator() string      { return "community.add_mod" }
func (o CommunityAddMod) Signatory() string          { return o.Admin }
func (o CommunityAddMod) SignedFor() string          { return o.Community }
func (o CommunityAddMod) RequiredClass() AuthorityClass { return ClassActive }

// CommunityAddAdmin adds or removes an administrator; requires founder.
type CommunityAddAdmin struct {
	Founder   string
	Community string
	Admin     string
	Remove    bool
}

func (o CommunityAddAdmin) Discriminator() string      { return "community.add_admin" }
func (o CommunityAddAdmin) Signatory() string          { return o.Founder }
func (o CommunityAddAdmin) SignedFor() string          { return o.Community }
func (o CommunityAddAdmin) RequiredClass() AuthorityClass { return ClassActive }

// CommunityVoteMod tags a post with a moderator's weighted classification.
type CommunityVoteMod struct {
	Moderator string
	Community string
	Post      string
	Tag       string
}

func (o CommunityVoteMod) Discriminator() string      { return "community.vote_mod" }
func (o CommunityVoteMod) Signatory() string          { return o.Moderator }
func (o CommunityVoteMod) SignedFor() string          { return o.Community }
func (o CommunityVoteMod) RequiredClass() AuthorityClass { return ClassPosting }

// CommunityBlacklist adds or removes an account from a community's
// blacklist; requires moderator or administrator role.
type CommunityBlacklist struct {
	Moderator string
	Community string
	Target    string
	Remove    bool
}

func (o CommunityBlacklist) Discriminator() string      { return "community.blacklist" }
func (o CommunityBlacklist) Signatory() string          { return o.Moderator }
func (o CommunityBlacklist) SignedFor() string          { return o.Community }
func (o CommunityBlacklist) RequiredClass() AuthorityClass { return ClassActive }

// CommunityTransferOwnership re-assigns a community's founder.
type CommunityTransferOwnership struct {
	Founder   string
	Community string
	NewFounder string
}

func (o CommunityTransferOwnership) Discriminator() string      { return "community.transfer_ownership" }
func (o CommunityTransferOwnership) Signatory() string          { return o.Founder }
func (o CommunityTransferOwnership) SignedFor() string          { return o.Community }
func (o CommunityTransferOwnership) RequiredClass() AuthorityClass { return ClassOwner }

package serverlog

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// MemberSnapshot is what the log needs to know about a member after it is gone
type MemberSnapshot struct {
	JoinedAt time.Time
	Nick     string
	Roles    []string
}

// Cache keeps copies of roles and members as they were before the latest gateway event.
// The session state is updated before handlers run, so it cannot answer "what was it before".
type Cache struct {
	mu      sync.RWMutex
	roles   map[string]map[string]discordgo.Role
	members map[string]map[string]MemberSnapshot
}

func NewCache() *Cache {
	return &Cache{
		roles:   make(map[string]map[string]discordgo.Role),
		members: make(map[string]map[string]MemberSnapshot),
	}
}

// LoadGuild replaces everything cached for the guild
func (c *Cache) LoadGuild(guild *discordgo.Guild) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roles := make(map[string]discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roles[role.ID] = *role
	}
	c.roles[guild.ID] = roles

	members := make(map[string]MemberSnapshot, len(guild.Members))
	for _, member := range guild.Members {
		if member.User == nil {
			continue
		}
		members[member.User.ID] = snapshotOf(member)
	}
	c.members[guild.ID] = members
}

// PutRole stores role and returns the previous copy, if any
func (c *Cache) PutRole(guildID string, role *discordgo.Role) (discordgo.Role, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roles, ok := c.roles[guildID]
	if !ok {
		roles = make(map[string]discordgo.Role)
		c.roles[guildID] = roles
	}
	before, found := roles[role.ID]
	roles[role.ID] = *role
	return before, found
}

// RemoveRole forgets a role and returns its last known copy
func (c *Cache) RemoveRole(guildID, roleID string) (discordgo.Role, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	role, ok := c.roles[guildID][roleID]
	if ok {
		delete(c.roles[guildID], roleID)
	}
	return role, ok
}

// Role returns the cached copy of a role
func (c *Cache) Role(guildID, roleID string) (discordgo.Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	role, ok := c.roles[guildID][roleID]
	return role, ok
}

// PutMember stores member and returns the previous snapshot, if any
func (c *Cache) PutMember(guildID string, member *discordgo.Member) (MemberSnapshot, bool) {
	if member.User == nil {
		return MemberSnapshot{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.members[guildID]
	if !ok {
		members = make(map[string]MemberSnapshot)
		c.members[guildID] = members
	}
	before, found := members[member.User.ID]
	next := snapshotOf(member)
	// Member updates do not always carry joined_at
	if next.JoinedAt.IsZero() {
		next.JoinedAt = before.JoinedAt
	}
	members[member.User.ID] = next
	return before, found
}

// PutMembers stores a chunk of members
func (c *Cache) PutMembers(guildID string, members []*discordgo.Member) {
	for _, member := range members {
		c.PutMember(guildID, member)
	}
}

// RemoveMember forgets a member and returns its last snapshot
func (c *Cache) RemoveMember(guildID, userID string) (MemberSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, ok := c.members[guildID][userID]
	if ok {
		delete(c.members[guildID], userID)
	}
	return snapshot, ok
}

func snapshotOf(member *discordgo.Member) MemberSnapshot {
	roles := make([]string, len(member.Roles))
	copy(roles, member.Roles)
	return MemberSnapshot{
		JoinedAt: member.JoinedAt,
		Nick:     member.Nick,
		Roles:    roles,
	}
}

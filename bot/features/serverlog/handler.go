package serverlog

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	f.post(s, f.guildCreateEntry(e))
}

func (f *Feature) guildCreateEntry(e *discordgo.GuildCreate) *Entry {
	if e.ID != f.guildID {
		return nil
	}
	f.cache.LoadGuild(e.Guild)
	log.WithFields(log.Fields{
		"guildID": e.ID,
		"roles":   len(e.Roles),
		"members": len(e.Members),
	}).Debug("Loaded guild into server log cache")

	if !f.unavailable.CompareAndSwap(true, false) {
		return nil
	}
	return GuildAvailabilityEntry(true, e.Guild, f.now())
}

func (f *Feature) onGuildDelete(s *discordgo.Session, e *discordgo.GuildDelete) {
	f.post(s, f.guildDeleteEntry(e))
}

// guildDeleteEntry only reports outages. A delete without the unavailable flag means the bot was removed.
func (f *Feature) guildDeleteEntry(e *discordgo.GuildDelete) *Entry {
	if e.ID != f.guildID || !e.Unavailable {
		return nil
	}
	f.unavailable.Store(true)

	guild := e.Guild
	if e.BeforeDelete != nil {
		guild = e.BeforeDelete
	}
	return GuildAvailabilityEntry(false, guild, f.now())
}

func (f *Feature) onGuildMembersChunk(s *discordgo.Session, e *discordgo.GuildMembersChunk) {
	if e.GuildID != f.guildID {
		return
	}
	f.cache.PutMembers(e.GuildID, e.Members)
}

func (f *Feature) onMessageUpdate(s *discordgo.Session, e *discordgo.MessageUpdate) {
	f.post(s, f.messageUpdateEntry(e))
}

func (f *Feature) messageUpdateEntry(e *discordgo.MessageUpdate) *Entry {
	if e.GuildID != f.guildID {
		return nil
	}
	return MessageEditEntry(e.BeforeUpdate, e.Message, f.now())
}

func (f *Feature) onMessageDelete(s *discordgo.Session, e *discordgo.MessageDelete) {
	f.post(s, f.messageDeleteEntry(s.State, e))
}

func (f *Feature) messageDeleteEntry(state *discordgo.State, e *discordgo.MessageDelete) *Entry {
	if e.GuildID != f.guildID {
		return nil
	}
	if e.BeforeDelete != nil {
		return MessageDeleteEntry(e.BeforeDelete, f.now())
	}
	return UncachedMessageDeleteEntry(e.ChannelID, e.ID, f.guild(state), f.now())
}

func (f *Feature) onMessageDeleteBulk(s *discordgo.Session, e *discordgo.MessageDeleteBulk) {
	if e.GuildID != f.guildID {
		return
	}
	f.post(s, BulkDeleteEntry(e.ChannelID, len(e.Messages), f.guild(s.State), f.now()))
}

func (f *Feature) onChannelCreate(s *discordgo.Session, e *discordgo.ChannelCreate) {
	if e.GuildID != f.guildID {
		return
	}
	f.post(s, ChannelEntry(true, e.Channel, f.guild(s.State), f.now()))
}

func (f *Feature) onChannelDelete(s *discordgo.Session, e *discordgo.ChannelDelete) {
	if e.GuildID != f.guildID {
		return
	}
	f.post(s, ChannelEntry(false, e.Channel, f.guild(s.State), f.now()))
}

func (f *Feature) onGuildRoleCreate(s *discordgo.Session, e *discordgo.GuildRoleCreate) {
	f.post(s, f.roleCreateEntry(s.State, e))
}

func (f *Feature) roleCreateEntry(state *discordgo.State, e *discordgo.GuildRoleCreate) *Entry {
	if e.GuildID != f.guildID || e.Role == nil {
		return nil
	}
	f.cache.PutRole(e.GuildID, e.Role)
	return RoleCreateEntry(*e.Role, f.guild(state), f.now())
}

func (f *Feature) onGuildRoleUpdate(s *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	f.post(s, f.roleUpdateEntry(s.State, e))
}

func (f *Feature) roleUpdateEntry(state *discordgo.State, e *discordgo.GuildRoleUpdate) *Entry {
	if e.GuildID != f.guildID || e.Role == nil {
		return nil
	}
	before, ok := f.cache.PutRole(e.GuildID, e.Role)
	if !ok {
		log.WithField("roleID", e.Role.ID).Debug("Role update for uncached role, nothing to compare")
		return nil
	}
	return RoleUpdateEntry(before, *e.Role, f.guild(state), f.now())
}

func (f *Feature) onGuildRoleDelete(s *discordgo.Session, e *discordgo.GuildRoleDelete) {
	f.post(s, f.roleDeleteEntry(s.State, e))
}

func (f *Feature) roleDeleteEntry(state *discordgo.State, e *discordgo.GuildRoleDelete) *Entry {
	if e.GuildID != f.guildID {
		return nil
	}
	var role *discordgo.Role
	if cached, ok := f.cache.RemoveRole(e.GuildID, e.RoleID); ok {
		role = &cached
	}
	return RoleDeleteEntry(e.RoleID, role, f.guild(state), f.now())
}

func (f *Feature) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	f.post(s, f.memberAddEntry(e))
}

func (f *Feature) memberAddEntry(e *discordgo.GuildMemberAdd) *Entry {
	if e.GuildID != f.guildID || e.User == nil {
		return nil
	}
	f.cache.PutMember(e.GuildID, e.Member)
	return MemberJoinEntry(e.User, f.now())
}

func (f *Feature) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	f.post(s, f.memberRemoveEntry(e))
}

func (f *Feature) memberRemoveEntry(e *discordgo.GuildMemberRemove) *Entry {
	if e.GuildID != f.guildID || e.User == nil {
		return nil
	}
	snapshot, known := f.cache.RemoveMember(e.GuildID, e.User.ID)
	return MemberRemoveEntry(e.User, e.GuildID, snapshot, known, f.now())
}

func (f *Feature) onGuildMemberUpdate(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	f.post(s, f.memberUpdateEntry(e))
}

// memberUpdateEntry prefers the state's copy of the member and falls back to the snapshot cache
func (f *Feature) memberUpdateEntry(e *discordgo.GuildMemberUpdate) *Entry {
	if e.GuildID != f.guildID || e.User == nil {
		return nil
	}
	before, known := f.cache.PutMember(e.GuildID, e.Member)
	if e.BeforeUpdate != nil {
		before, known = snapshotOf(e.BeforeUpdate), true
	}
	if !known {
		return nil
	}
	return MemberUpdateEntry(before, e.Member, f.now())
}

func (f *Feature) onGuildBanAdd(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	if e.GuildID != f.guildID || e.User == nil {
		return
	}
	f.post(s, BanEntry(true, e.User, f.now()))
}

func (f *Feature) onGuildBanRemove(s *discordgo.Session, e *discordgo.GuildBanRemove) {
	if e.GuildID != f.guildID || e.User == nil {
		return
	}
	f.post(s, BanEntry(false, e.User, f.now()))
}

func (f *Feature) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	f.post(s, f.voiceEntry(s.State, e))
}

func (f *Feature) voiceEntry(state *discordgo.State, e *discordgo.VoiceStateUpdate) *Entry {
	if e.VoiceState == nil || e.GuildID != f.guildID {
		return nil
	}
	return VoiceEntry(f.voiceUser(state, e.VoiceState), e.BeforeUpdate, e.VoiceState, f.now())
}

func (f *Feature) voiceUser(state *discordgo.State, vs *discordgo.VoiceState) *discordgo.User {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User
	}
	if state != nil {
		if member, err := state.Member(vs.GuildID, vs.UserID); err == nil && member.User != nil {
			return member.User
		}
	}
	return &discordgo.User{ID: vs.UserID}
}

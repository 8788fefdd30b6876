package domain

import "encoding/json"

// CompanionMetaVersion is the current schema version of the companion
// metadata blob stored on synthetic participants.
const CompanionMetaVersion = 2

// CompanionMeta is the versioned structured shape of companion display
// metadata. It is serialized into Participant.CompanionMeta; the Version
// field lets readers handle rows written under older shapes.
type CompanionMeta struct {
	Version     int    `json:"version"`
	AvatarURL   string `json:"avatar_url"`
	Palette     string `json:"palette"`
	Personality string `json:"personality"`
}

// CompanionProfile is one entry of the fixed seat-filler roster.
type CompanionProfile struct {
	Slug        string
	DisplayName string
	Meta        CompanionMeta
}

// CompanionRoster is the fixed set of display identities the seat filler
// draws from. Draws within one session never repeat a profile.
var CompanionRoster = []CompanionProfile{
	{Slug: "miso", DisplayName: "Miso", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/miso.png", Palette: "amber", Personality: "steady"}},
	{Slug: "pixel", DisplayName: "Pixel", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/pixel.png", Palette: "teal", Personality: "curious"}},
	{Slug: "clover", DisplayName: "Clover", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/clover.png", Palette: "green", Personality: "calm"}},
	{Slug: "nimbus", DisplayName: "Nimbus", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/nimbus.png", Palette: "slate", Personality: "dreamy"}},
	{Slug: "ember", DisplayName: "Ember", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/ember.png", Palette: "red", Personality: "driven"}},
	{Slug: "willow", DisplayName: "Willow", Meta: CompanionMeta{Version: CompanionMetaVersion, AvatarURL: "/avatars/willow.png", Palette: "violet", Personality: "gentle"}},
}

// MarshalMeta renders the profile's metadata for the JSON column.
func (p CompanionProfile) MarshalMeta() ([]byte, error) {
	return json.Marshal(p.Meta)
}

package models

import (
	"encoding/json"

	"github.com/udovin/gosql"
)

// HackathonConfig contains configuration of hackathon.
type HackathonConfig struct {
	// BeginTime contains time when hackathon starts.
	BeginTime NInt64 `json:"begin_time,omitempty"`
	// EndTime contains time when hackathon ends.
	EndTime NInt64 `json:"end_time,omitempty"`
	// RegistrationBeginTime contains time when registration opens.
	RegistrationBeginTime NInt64 `json:"registration_begin_time,omitempty"`
	// RegistrationEndTime contains time when registration closes.
	RegistrationEndTime NInt64 `json:"registration_end_time,omitempty"`
	// MaxTeamSize contains maximal amount of members in one team.
	MaxTeamSize int `json:"max_team_size,omitempty"`
	// JudgingOpen marks that judges can submit scores.
	JudgingOpen bool `json:"judging_open,omitempty"`
	// GalleryOpen marks that submitted projects are visible to everyone.
	GalleryOpen bool `json:"gallery_open,omitempty"`
}

// Hackathon represents a hackathon.
type Hackathon struct {
	baseObject
	Title   string `db:"title"`
	Config  JSON   `db:"config"`
	OwnerID NInt64 `db:"owner_id"`
}

// Clone creates copy of hackathon.
func (o Hackathon) Clone() Hackathon {
	o.Config = o.Config.Clone()
	return o
}

// GetConfig returns parsed hackathon config.
func (o Hackathon) GetConfig() (HackathonConfig, error) {
	var config HackathonConfig
	if len(o.Config) == 0 {
		return config, nil
	}
	err := json.Unmarshal(o.Config, &config)
	return config, err
}

// SetConfig updates hackathon config.
func (o *Hackathon) SetConfig(config HackathonConfig) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return err
	}
	o.Config = raw
	return nil
}

// HackathonEvent represents a hackathon event.
type HackathonEvent struct {
	baseEvent
	Hackathon
}

// Object returns event hackathon.
func (e HackathonEvent) Object() Hackathon {
	return e.Hackathon
}

// SetObject sets event hackathon.
func (e *HackathonEvent) SetObject(o Hackathon) {
	e.Hackathon = o
}

// HackathonStore represents store for hackathons.
type HackathonStore struct {
	cachedStore[Hackathon, HackathonEvent, *Hackathon, *HackathonEvent]
}

// NewHackathonStore creates a new instance of HackathonStore.
func NewHackathonStore(
	db *gosql.DB, table, eventTable string,
) *HackathonStore {
	impl := &HackathonStore{}
	impl.cachedStore = makeCachedStore[Hackathon, HackathonEvent](
		db, table, eventTable, impl,
	)
	return impl
}

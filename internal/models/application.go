package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// ApplicationStatus represents status of application.
type ApplicationStatus int

const (
	// DraftApplication means that application is not submitted yet.
	DraftApplication ApplicationStatus = 0
	// SubmittedApplication means that application awaits review.
	SubmittedApplication ApplicationStatus = 1
	// AcceptedApplication means that applicant can participate.
	AcceptedApplication ApplicationStatus = 2
	// RejectedApplication means that applicant cannot participate.
	RejectedApplication ApplicationStatus = 3
	// WaitlistedApplication means that applicant is on the waiting list.
	WaitlistedApplication ApplicationStatus = 4
)

// String returns string representation.
func (t ApplicationStatus) String() string {
	switch t {
	case DraftApplication:
		return "draft"
	case SubmittedApplication:
		return "submitted"
	case AcceptedApplication:
		return "accepted"
	case RejectedApplication:
		return "rejected"
	case WaitlistedApplication:
		return "waitlisted"
	default:
		return fmt.Sprintf("ApplicationStatus(%d)", t)
	}
}

func (t ApplicationStatus) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ApplicationStatus) UnmarshalText(data []byte) error {
	switch s := string(data); s {
	case "draft":
		*t = DraftApplication
	case "submitted":
		*t = SubmittedApplication
	case "accepted":
		*t = AcceptedApplication
	case "rejected":
		*t = RejectedApplication
	case "waitlisted":
		*t = WaitlistedApplication
	default:
		return fmt.Errorf("unsupported status: %q", s)
	}
	return nil
}

// ApplicationAnswers contains applicant answers.
type ApplicationAnswers struct {
	Bio        string `json:"bio,omitempty"`
	Motivation string `json:"motivation,omitempty"`
	Experience string `json:"experience,omitempty"`
}

// Application represents an application for hackathon.
type Application struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// AccountID contains ID of applicant account.
	AccountID int64 `db:"account_id"`
	// Status contains status of application.
	Status ApplicationStatus `db:"status"`
	// Answers contains applicant answers.
	Answers JSON `db:"answers"`
	// CreateTime contains time when application was created.
	CreateTime int64 `db:"create_time"`
	// SubmitTime contains time when application was submitted.
	SubmitTime NInt64 `db:"submit_time"`
}

// Clone creates copy of application.
func (o Application) Clone() Application {
	o.Answers = o.Answers.Clone()
	return o
}

// GetAnswers returns parsed applicant answers.
func (o Application) GetAnswers() (ApplicationAnswers, error) {
	var answers ApplicationAnswers
	if len(o.Answers) == 0 {
		return answers, nil
	}
	err := json.Unmarshal(o.Answers, &answers)
	return answers, err
}

// SetAnswers updates applicant answers.
func (o *Application) SetAnswers(answers ApplicationAnswers) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	o.Answers = raw
	return nil
}

// ApplicationEvent represents an application event.
type ApplicationEvent struct {
	baseEvent
	Application
}

// Object returns event application.
func (e ApplicationEvent) Object() Application {
	return e.Application
}

// SetObject sets event application.
func (e *ApplicationEvent) SetObject(o Application) {
	e.Application = o
}

// ApplicationStore represents store for applications.
type ApplicationStore struct {
	cachedStore[Application, ApplicationEvent, *Application, *ApplicationEvent]
	byHackathon        *btreeIndex[int64, Application, *Application]
	byHackathonAccount *btreeIndex[pair[int64, int64], Application, *Application]
}

// FindByHackathon returns applications by hackathon ID.
func (s *ApplicationStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Application], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// GetByHackathonAccount returns application by hackathon and account.
//
// If account has no application for hackathon then sql.ErrNoRows
// will be returned.
func (s *ApplicationStore) GetByHackathonAccount(
	ctx context.Context, hackathonID int64, accountID int64,
) (Application, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return btreeIndexGet(
		s.byHackathonAccount, s.objects.Iter(), makePair(hackathonID, accountID),
	)
}

// NewApplicationStore creates a new instance of ApplicationStore.
func NewApplicationStore(
	db *gosql.DB, table, eventTable string,
) *ApplicationStore {
	impl := &ApplicationStore{
		byHackathon: newBTreeIndex(func(o Application) (int64, bool) { return o.HackathonID, true }, lessInt64),
		byHackathonAccount: newBTreeIndex(func(o Application) (pair[int64, int64], bool) {
			return makePair(o.HackathonID, o.AccountID), true
		}, lessPairInt64),
	}
	impl.cachedStore = makeCachedStore[Application, ApplicationEvent](
		db, table, eventTable, impl, impl.byHackathon, impl.byHackathonAccount,
	)
	return impl
}

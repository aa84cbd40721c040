package services

import (
	"context"

	"github.com/tablostudio/guestflow/internal/models"
)

// PersonStatus classifies a roster person by workflow progress.
type PersonStatus string

const (
	PersonNotStarted PersonStatus = "not_started"
	PersonInProgress PersonStatus = "in_progress"
	PersonFinalized  PersonStatus = "finalized"
)

// PersonLink joins a roster person with its authoritative verified session and
// the workflow progress of that session's user. Session and Progress are nil
// when the person has not opened the gallery or not started the workflow.
type PersonLink struct {
	Person   models.RosterPerson
	Session  *models.GuestSession
	Progress *models.WorkflowProgress
}

// Status derives the person's workflow status; a missing progress record
// means the person has not started.
func (l *PersonLink) Status() PersonStatus {
	switch {
	case l.Progress == nil:
		return PersonNotStarted
	case l.Progress.IsFinalized():
		return PersonFinalized
	default:
		return PersonInProgress
	}
}

// Linker resolves roster person -> verified session -> workflow progress.
//
// The three reads are not wrapped in a transaction. Guests keep working while
// a report runs, so a result is a best-effort snapshot and may mix states
// from slightly different moments.
type Linker struct {
	roster   RosterLookup
	sessions SessionLookup
	progress ProgressLookup
}

func NewLinker(roster RosterLookup, sessions SessionLookup, progress ProgressLookup) *Linker {
	return &Linker{roster: roster, sessions: sessions, progress: progress}
}

// Link returns one entry per roster person of the project, in roster (name)
// order, using three bulk reads regardless of roster size.
func (l *Linker) Link(ctx context.Context, projectID, galleryID uint) ([]PersonLink, error) {
	persons, err := l.roster.ListPersons(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sessions, err := l.sessions.ListVerifiedSessions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sessionByPerson := indexSessions(sessions)

	progress, err := l.progress.ListProgress(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	progressByUser := make(map[uint]*models.WorkflowProgress, len(progress))
	for i := range progress {
		progressByUser[progress[i].UserID] = &progress[i]
	}

	links := make([]PersonLink, 0, len(persons))
	for _, person := range persons {
		link := PersonLink{Person: person}
		if session := sessionByPerson[person.ID]; session != nil {
			link.Session = session
			if session.UserID != nil {
				link.Progress = progressByUser[*session.UserID]
			}
		}
		links = append(links, link)
	}
	return links, nil
}

// LinkPerson resolves a single person the same way Link does. It returns
// ErrPersonNotFound when the person is not on the project roster.
func (l *Linker) LinkPerson(ctx context.Context, projectID, galleryID, personID uint) (*PersonLink, error) {
	person, err := l.roster.GetPerson(ctx, projectID, personID)
	if err != nil {
		return nil, err
	}
	link := &PersonLink{Person: *person}

	sessions, err := l.sessions.ListVerifiedSessionsOfPerson(ctx, projectID, personID)
	if err != nil {
		return nil, err
	}
	link.Session = indexSessions(sessions)[personID]
	if link.Session == nil || link.Session.UserID == nil {
		return link, nil
	}

	link.Progress, err = l.progress.FindProgress(ctx, galleryID, *link.Session.UserID)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// indexSessions keys verified sessions by roster person, keeping the preferred
// session when a person has several.
func indexSessions(sessions []models.GuestSession) map[uint]*models.GuestSession {
	index := make(map[uint]*models.GuestSession, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		if !s.IsVerified() {
			continue
		}
		personID := *s.PersonID
		index[personID] = models.PreferSession(index[personID], s)
	}
	return index
}

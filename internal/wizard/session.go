package wizard

import (
	"github.com/alkime/captions/pkg/collections"
	"github.com/google/uuid"
)

// Session is everything the wizard knows about the photo being captioned.
type Session struct {
	ID                 string
	Transcription      string
	Caption            string
	MissingInformation []string
	FollowUpQuestions  []string
	AdditionalDetails  string
}

func newSession() Session {
	return Session{ID: uuid.NewString()}
}

func (s Session) clone() Session {
	s.MissingInformation = collections.Clone(s.MissingInformation)
	s.FollowUpQuestions = collections.Clone(s.FollowUpQuestions)

	return s
}

package domain

// Queue represents the learning phase a card is in.
type Queue string

const (
	QueueNew        Queue = "NEW"
	QueueLearning   Queue = "LEARNING"
	QueueReview     Queue = "REVIEW"
	QueueRelearning Queue = "RELEARNING"
)

func (q Queue) String() string { return string(q) }

func (q Queue) IsValid() bool {
	switch q {
	case QueueNew, QueueLearning, QueueReview, QueueRelearning:
		return true
	}
	return false
}

// IsLearning reports whether the queue is a sub-day learning phase.
func (q Queue) IsLearning() bool {
	return q == QueueLearning || q == QueueRelearning
}

// Rating is the learner's self-assessment, wire values 0..3.
type Rating int

const (
	RatingAgain Rating = 0
	RatingHard  Rating = 1
	RatingGood  Rating = 2
	RatingEasy  Rating = 3
)

func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "AGAIN"
	case RatingHard:
		return "HARD"
	case RatingGood:
		return "GOOD"
	case RatingEasy:
		return "EASY"
	}
	return "UNKNOWN"
}

// CardType identifies which side of a note a card prompts with.
// Every note has exactly one card of each type.
type CardType string

const (
	CardTypeFormPrompt  CardType = "FORM_PROMPT"
	CardTypeGlossPrompt CardType = "GLOSS_PROMPT"
	CardTypeAudioPrompt CardType = "AUDIO_PROMPT"
)

func (t CardType) String() string { return string(t) }

func (t CardType) IsValid() bool {
	switch t {
	case CardTypeFormPrompt, CardTypeGlossPrompt, CardTypeAudioPrompt:
		return true
	}
	return false
}

// AllCardTypes returns the three card types in creation order.
func AllCardTypes() []CardType {
	return []CardType{CardTypeFormPrompt, CardTypeGlossPrompt, CardTypeAudioPrompt}
}

// RelationshipStatus is the lifecycle state of a tutor-student relationship.
type RelationshipStatus string

const (
	RelationshipStatusPending RelationshipStatus = "PENDING"
	RelationshipStatusActive  RelationshipStatus = "ACTIVE"
	RelationshipStatusRemoved RelationshipStatus = "REMOVED"
)

func (s RelationshipStatus) String() string { return string(s) }

func (s RelationshipStatus) IsValid() bool {
	switch s {
	case RelationshipStatusPending, RelationshipStatusActive, RelationshipStatusRemoved:
		return true
	}
	return false
}

// RelationshipRole is the role the requester declared for themselves.
type RelationshipRole string

const (
	RoleTutor   RelationshipRole = "TUTOR"
	RoleStudent RelationshipRole = "STUDENT"
)

func (r RelationshipRole) String() string { return string(r) }

func (r RelationshipRole) IsValid() bool {
	return r == RoleTutor || r == RoleStudent
}

// Opposite returns the complementary role.
func (r RelationshipRole) Opposite() RelationshipRole {
	if r == RoleTutor {
		return RoleStudent
	}
	return RoleTutor
}

// InvitationStatus is the lifecycle state of a pre-registration invitation.
type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "PENDING"
	InvitationStatusAccepted  InvitationStatus = "ACCEPTED"
	InvitationStatusCancelled InvitationStatus = "CANCELLED"
	InvitationStatusExpired   InvitationStatus = "EXPIRED"
)

func (s InvitationStatus) String() string { return string(s) }

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationStatusPending, InvitationStatusAccepted,
		InvitationStatusCancelled, InvitationStatusExpired:
		return true
	}
	return false
}

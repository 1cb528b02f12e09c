package artifacts

import (
	"fmt"
	"strings"
)

// Kind identifies one of the seven debate artifact kinds.
type Kind string

// Entity kinds.
const (
	KindTopic    Kind = "topic"
	KindClaim    Kind = "claim"
	KindRebuttal Kind = "rebuttal"
	KindEvidence Kind = "evidence"
	KindQuestion Kind = "question"
	KindSource   Kind = "source"
	KindTag      Kind = "tag"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Kinds returns every kind in import dependency order: kinds that are only
// referenced come first, then claims, then the kinds that reference claims.
func Kinds() []Kind {
	return []Kind{
		KindTopic,
		KindSource,
		KindTag,
		KindClaim,
		KindRebuttal,
		KindEvidence,
		KindQuestion,
	}
}

// ParseKind parses a kind name, accepting the plural forms used in snapshots.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "topic", "topics":
		return KindTopic, nil
	case "claim", "claims":
		return KindClaim, nil
	case "rebuttal", "rebuttals":
		return KindRebuttal, nil
	case "evidence", "evidences":
		return KindEvidence, nil
	case "question", "questions":
		return KindQuestion, nil
	case "source", "sources":
		return KindSource, nil
	case "tag", "tags":
		return KindTag, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// New returns an empty entity of the given kind.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindTopic:
		return &Topic{}, nil
	case KindClaim:
		return &Claim{}, nil
	case KindRebuttal:
		return &Rebuttal{}, nil
	case KindEvidence:
		return &Evidence{}, nil
	case KindQuestion:
		return &Question{}, nil
	case KindSource:
		return &Source{}, nil
	case KindTag:
		return &Tag{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

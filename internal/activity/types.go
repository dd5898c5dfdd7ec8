package activity

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindOriginal Kind = "original"
	KindReply    Kind = "reply"
	KindRepost   Kind = "repost"
	KindQuote    Kind = "quote"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindOriginal, KindReply, KindRepost, KindQuote:
		return true
	}
	return false
}

// Engagement holds named counters (likes, shares, ...). Informational only.
type Engagement map[string]int64

// Record is one observed action by an actor. (ID, Actor) is unique in the store.
type Record struct {
	ID         string     `json:"id"`
	Actor      string     `json:"actor"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Kind       Kind       `json:"kind"`
	InReplyTo  string     `json:"inReplyTo,omitempty"`
	Engagement Engagement `json:"engagement,omitempty"`
	ObservedAt time.Time  `json:"observedAt"`
}

func (r Record) IsOriginal() bool {
	return r.Kind == KindOriginal
}

// Validate checks the fields the store and the analyzer rely on.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if r.Actor == "" {
		return fmt.Errorf("record %s: actor is required", r.ID)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("record %s: timestamp is required", r.ID)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("record %s: unknown kind %q", r.ID, r.Kind)
	}
	if r.InReplyTo != "" && r.Kind != KindReply {
		return fmt.Errorf("record %s: inReplyTo set on %s record", r.ID, r.Kind)
	}
	return nil
}

// Session summarizes one collection or ingestion run.
type Session struct {
	ID              string     `json:"sessionId"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	AccountsChecked []string   `json:"accountsChecked"`
	RecordsFound    int        `json:"recordsFound"`
	Errors          []string   `json:"errors"`
}

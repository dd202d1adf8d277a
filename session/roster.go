package session

import "encoding/json"

// Roster is an insertion-ordered map of participants keyed by id.
// Overwriting an existing id keeps its original position.
type Roster struct {
	order []string
	byID  map[string]*Participant
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Participant)}
}

// Get returns the participant with the given id.
func (r *Roster) Get(participantID string) (*Participant, bool) {
	p, ok := r.byID[participantID]
	return p, ok
}

// Put inserts p, or replaces the participant with the same id in place.
func (r *Roster) Put(p Participant) {
	if _, ok := r.byID[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = &p
}

// Owner returns the participant flagged as owner, if any.
func (r *Roster) Owner() (*Participant, bool) {
	for _, pid := range r.order {
		if p := r.byID[pid]; p.IsOwner {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of participants.
func (r *Roster) Len() int { return len(r.order) }

// All returns the participants in insertion order.
func (r *Roster) All() []*Participant {
	out := make([]*Participant, 0, len(r.order))
	for _, pid := range r.order {
		out = append(out, r.byID[pid])
	}
	return out
}

// Clone returns a deep copy of the roster.
func (r *Roster) Clone() *Roster {
	c := &Roster{
		order: append([]string(nil), r.order...),
		byID:  make(map[string]*Participant, len(r.byID)),
	}
	for k, p := range r.byID {
		cp := *p
		c.byID[k] = &cp
	}
	return c
}

// MarshalJSON encodes the roster as an ordered array.
func (r *Roster) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.All())
}

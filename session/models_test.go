package session_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/xraph/debate/id"
	"github.com/xraph/debate/session"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSession() *session.Session {
	s := session.New(id.NewSessionID(), "owner", t0, session.DefaultExpiry(t0))
	s.Participants.Put(session.Participant{ID: "owner", IsOwner: true, IsActive: true})
	s.Participants.Put(session.Participant{ID: "alice", IsActive: true})
	s.Questions = append(s.Questions,
		session.Question{ID: "q1", Prompt: "Cats or dogs?", Options: []string{"cats", "dogs"}},
		session.Question{ID: "q2", Prompt: "Tea or coffee?", Options: []string{"tea", "coffee"}},
	)
	s.QuestionOrder = append(s.QuestionOrder, "q1", "q2")
	return s
}

func TestNew(t *testing.T) {
	s := session.New(id.NewSessionID(), "owner", t0, session.DefaultExpiry(t0))
	if s.Status != session.StatusLive {
		t.Errorf("Status = %q, want live", s.Status)
	}
	want := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if !s.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, want)
	}
	if s.Participants.Len() != 0 || len(s.Questions) != 0 {
		t.Error("new session should be empty")
	}
}

func TestIsExpired(t *testing.T) {
	s := newSession()
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at creation", t0, false},
		{"one second before expiry", s.ExpiresAt.Add(-time.Second), false},
		{"at expiry", s.ExpiresAt, true},
		{"after expiry", s.ExpiresAt.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsExpired(tt.now); got != tt.want {
				t.Errorf("IsExpired = %v, want %v", got, tt.want)
			}
		})
	}
	if s.Status != session.StatusLive {
		t.Error("IsExpired must not change the stored status")
	}
}

func TestResponseVectorAndCompletion(t *testing.T) {
	s := newSession()

	if got := s.ResponseVector("alice"); !reflect.DeepEqual(got, []string{"", ""}) {
		t.Errorf("empty vector = %q", got)
	}
	if s.HasCompleted("alice") {
		t.Error("alice has not answered anything")
	}

	s.Responses = append(s.Responses, session.Response{ParticipantID: "alice", QuestionID: "q2", OptionChosen: "tea"})
	if got := s.ResponseVector("alice"); !reflect.DeepEqual(got, []string{"", "tea"}) {
		t.Errorf("partial vector = %q", got)
	}
	if !s.HasResponded("alice", "q2") || s.HasResponded("alice", "q1") {
		t.Error("HasResponded is wrong")
	}

	s.Responses = append(s.Responses, session.Response{ParticipantID: "alice", QuestionID: "q1", OptionChosen: "dogs"})
	if got := s.ResponseVector("alice"); !reflect.DeepEqual(got, []string{"dogs", "tea"}) {
		t.Errorf("full vector = %q", got)
	}
	if !s.HasCompleted("alice") {
		t.Error("alice answered every question")
	}
	if s.HasCompleted("owner") {
		t.Error("owner answered nothing")
	}
}

func TestHasCompletedRequiresQuestions(t *testing.T) {
	s := session.New(id.NewSessionID(), "owner", t0, session.DefaultExpiry(t0))
	if s.HasCompleted("owner") {
		t.Error("a session without questions cannot be completed")
	}
}

func TestSignature(t *testing.T) {
	s := newSession()
	if got := s.Signature(); got != "2:0:2" {
		t.Errorf("Signature = %q, want 2:0:2", got)
	}
	s.Responses = append(s.Responses, session.Response{ParticipantID: "alice", QuestionID: "q1", OptionChosen: "cats"})
	if got := s.Signature(); got != "2:1:2" {
		t.Errorf("Signature = %q, want 2:1:2", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newSession()
	c := s.Clone()

	c.Questions[0].Options[0] = "lions"
	c.Participants.Put(session.Participant{ID: "bob"})
	p, _ := c.Participants.Get("alice")
	p.IsActive = false

	if s.Questions[0].Options[0] != "cats" {
		t.Error("clone shares question options")
	}
	if s.Participants.Len() != 2 {
		t.Error("clone shares roster order")
	}
	if orig, _ := s.Participants.Get("alice"); !orig.IsActive {
		t.Error("clone shares participant records")
	}
}

func TestRosterKeepsInsertionOrder(t *testing.T) {
	r := session.NewRoster()
	for _, pid := range []string{"zed", "amy", "kim"} {
		r.Put(session.Participant{ID: pid})
	}
	r.Put(session.Participant{ID: "amy", Name: "Amy"})

	var got []string
	for _, p := range r.All() {
		got = append(got, p.ID)
	}
	if !reflect.DeepEqual(got, []string{"zed", "amy", "kim"}) {
		t.Errorf("order = %q", got)
	}
	if p, _ := r.Get("amy"); p.Name != "Amy" {
		t.Error("overwrite did not replace the record")
	}
	if _, ok := r.Owner(); ok {
		t.Error("roster has no owner")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []session.Participant
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 3 || decoded[0].ID != "zed" {
		t.Errorf("roster json = %s", data)
	}
}

func TestViewFor(t *testing.T) {
	s := newSession()
	s.Responses = append(s.Responses,
		session.Response{ParticipantID: "alice", QuestionID: "q1", OptionChosen: "cats"},
		session.Response{ParticipantID: "alice", QuestionID: "q2", OptionChosen: "coffee"},
	)

	v := s.ViewFor("alice")
	if v.SessionID != s.ID.String() {
		t.Errorf("SessionID = %q", v.SessionID)
	}
	if !reflect.DeepEqual(v.Answers, []string{"cats", "coffee"}) || !v.Completed {
		t.Errorf("answers = %q completed = %v", v.Answers, v.Completed)
	}
	if len(v.Participants) != 2 || v.Participants[1].Answered != 2 || !v.Participants[1].Completed {
		t.Errorf("participants = %+v", v.Participants)
	}
	if !v.Participants[0].IsOwner {
		t.Error("owner flag missing from view")
	}
}

func TestNilRosterMarshalsEmpty(t *testing.T) {
	var r *session.Roster
	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("nil roster = %s, want []", data)
	}
}

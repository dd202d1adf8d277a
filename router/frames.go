package router

import (
	"encoding/json"
	"time"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxDecodeErrorsPerConn = 3

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Inbound commands.
const (
	CmdSessionCreate  = "session:create"
	CmdSessionJoin    = "session:join"
	CmdQuestionAdd    = "question:add"
	CmdQuestionUnlock = "question:unlock"
	CmdResponseSubmit = "response:submit"
	CmdMatchesGet     = "matches:get"
	CmdCreditsBalance = "credits:balance"
	CmdCreditsHistory = "credits:history"
	CmdPing           = "ping"
)

// Outbound events.
const (
	EvtSessionCreated        = "session:created"
	EvtSessionJoined         = "session:joined"
	EvtQuizState             = "quiz:state"
	EvtQuestionAdded         = "question:added"
	EvtQuestionLimitReached  = "question:limit-reached"
	EvtQuestionLimitUnlocked = "question:limit-unlocked"
	EvtParticipantJoined     = "participant:joined"
	EvtParticipantLeft       = "participant:left"
	EvtResponseRecorded      = "response:recorded"
	EvtMatchesResult         = "matches:result"
	EvtCreditsBalance        = "credits:balance"
	EvtCreditsHistory        = "credits:history"
	EvtCreditsInsufficient   = "credits:insufficient"
	EvtNotification          = "notification"
	EvtPong                  = "pong"
	EvtError                 = "error"
)

// Error codes carried by EvtError.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeSessionExpired  = "SESSION_EXPIRED"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeForbidden       = "FORBIDDEN"
	CodeNotJoined       = "NOT_JOINED"
	CodeUnsupported     = "UNSUPPORTED"
	CodeInternal        = "INTERNAL"
)

// Frame is the envelope of every message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type createPayload struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
}

type joinPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
}

type questionPayload struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	TimerSeconds  int      `json:"timerSeconds"`
	OwnerResponse string   `json:"ownerResponse"`
}

type responsePayload struct {
	QuestionID   string `json:"questionId"`
	OptionChosen string `json:"optionChosen"`
}

type matchesPayload struct {
	Tier string `json:"tier"`
}

type historyPayload struct {
	Limit int `json:"limit"`
}

type sessionEnvelope struct {
	SessionID     string        `json:"sessionId"`
	ParticipantID string        `json:"participantId"`
	State         *session.View `json:"state"`
}

type stateEnvelope struct {
	State *session.View `json:"state"`
}

type participantEnvelope struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name,omitempty"`
}

type questionEnvelope struct {
	Question session.Question  `json:"question"`
	Response *session.Response `json:"response,omitempty"`
}

type limitReachedEnvelope struct {
	Current     int           `json:"current"`
	Max         int           `json:"max"`
	UpgradeCost types.Credits `json:"upgradeCost"`
}

type limitUnlockedEnvelope struct {
	NewLimit int           `json:"newLimit"`
	Charged  bool          `json:"charged"`
	Balance  types.Credits `json:"balance"`
}

type responseEnvelope struct {
	Response *session.Response `json:"response"`
}

type matchesEnvelope struct {
	Tier    match.Tier    `json:"tier"`
	Matches []match.Match `json:"matches"`
	Cost    types.Credits `json:"cost"`
}

type balanceEnvelope struct {
	ParticipantID string        `json:"participantId"`
	Balance       types.Credits `json:"balance"`
}

type historyEnvelope struct {
	ParticipantID string          `json:"participantId"`
	Entries       []*credit.Entry `json:"entries"`
}

type insufficientEnvelope struct {
	Feature  string        `json:"feature"`
	Required types.Credits `json:"required"`
	Current  types.Credits `json:"current"`
}

type notificationEnvelope struct {
	Message string `json:"message"`
}

type pongEnvelope struct {
	ServerTime string `json:"serverTime"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func pong(now time.Time) pongEnvelope {
	return pongEnvelope{ServerTime: now.UTC().Format(time.RFC3339)}
}

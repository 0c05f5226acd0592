package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest saves a single draft answer. Submission itself is REST
// only, so a dropped socket can never half-finish an exam.
type AutosaveRequest struct {
	Action         Action `json:"action"`
	QuestionNumber int    `json:"question_number"`
	Answer         string `json:"answer"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventSaved Event = "saved"
	EventPong  Event = "pong"
)

type SavedResponse struct {
	Event          Event `json:"event"`
	QuestionNumber int   `json:"question_number"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

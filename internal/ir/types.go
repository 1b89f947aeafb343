package ir

// Utterance is the record of one resolved phrase as written to the history log.
type Utterance struct {
	ID         string   `json:"id"`               // uuid v7
	Phrase     string   `json:"phrase"`           // words as recognized
	Action     string   `json:"action,omitempty"` // action identifier, empty for bare targets
	Target     IRObject `json:"target"`           // lowered target tree
	TargetHash string   `json:"target_hash"`      // TargetHash(Target)
	Seq        int64    `json:"seq"`              // logical clock
	IRVersion  string   `json:"ir_version"`
}

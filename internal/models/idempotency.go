package models

import "time"

// IdempotencyKey stores the recorded reply of one scoped, caller-keyed
// mutating request so a retry can replay it bit-identically.
type IdempotencyKey struct {
	Scope        string    `db:"scope" json:"scope"`
	Key          string    `db:"key" json:"key"`
	RequestHash  string    `db:"request_hash" json:"request_hash"`
	ResponseCode int       `db:"response_code" json:"response_code"`
	ResponseBody []byte    `db:"response_body" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

package models

import (
	"github.com/google/uuid"
)

// --- Task Payload Structs ---

// TranscriptionTaskPayload describes a recorded-session job: the uploaded
// audio has already been stored under Bucket/Key and a history item with
// status QUEUED exists. The worker transcribes the audio, optionally
// summarizes the transcript, and completes or fails the item.
type TranscriptionTaskPayload struct {
	ItemId    uuid.UUID
	UserId    uuid.UUID
	Bucket    string
	Key       string
	Filename  string
	Summarize bool
}

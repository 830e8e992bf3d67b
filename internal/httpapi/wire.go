package httpapi

import (
	"time"

	"agency-platform/internal/inquiry"
)

// inquiryPayload is the wire shape for a single inquiry. The admin UI expects
// both "id" and "_id" carrying the same value, plus the computed ageInDays.
type inquiryPayload struct {
	inquiry.Inquiry

	LegacyID  string `json:"_id"`
	AgeInDays int    `json:"ageInDays"`
}

func toPayload(inq inquiry.Inquiry, now time.Time) inquiryPayload {
	if inq.Tags == nil {
		inq.Tags = []string{}
	}
	if inq.Notes == nil {
		inq.Notes = []inquiry.Note{}
	}
	return inquiryPayload{
		Inquiry:   inq,
		LegacyID:  inq.ID,
		AgeInDays: inq.AgeInDays(now),
	}
}

func toPayloads(items []inquiry.Inquiry, now time.Time) []inquiryPayload {
	out := make([]inquiryPayload, len(items))
	for i, inq := range items {
		out[i] = toPayload(inq, now)
	}
	return out
}

package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// RealtimeClient announces repair lifecycle changes so dashboards refresh
// without polling. Database writes already trigger Supabase Realtime on the
// repairs table; this client exists for explicit events on project and user
// channels.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The repairs table is in the realtime publication, so row changes
	// already fan out to subscribers. Explicit publishing would use the
	// Realtime REST API; nothing in the dashboard needs it yet.
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID int64, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%d", projectID)
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID int64, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%d", userID)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func RepairCreatedPayload(repairID, projectID int64, repairIndex int) map[string]interface{} {
	return map[string]interface{}{
		"repair_id":    repairID,
		"project_id":   projectID,
		"repair_index": repairIndex,
		"status":       "pending",
	}
}

func PhaseSubmittedPayload(repairID int64, slot string, progressIndex int, state string) map[string]interface{} {
	payload := map[string]interface{}{
		"repair_id": repairID,
		"slot":      slot,
		"state":     state,
	}
	if slot == "progress" {
		payload["progress_index"] = progressIndex
	}
	return payload
}

func ReviewDecisionPayload(repairID int64, status string, reviewerID int64) map[string]interface{} {
	return map[string]interface{}{
		"repair_id":   repairID,
		"status":      status,
		"reviewer_id": reviewerID,
	}
}

func PhotoUploadedPayload(repairID int64, secureURL string) map[string]interface{} {
	return map[string]interface{}{
		"repair_id":  repairID,
		"secure_url": secureURL,
	}
}

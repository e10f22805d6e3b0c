package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Group is a WhatsApp group the session participates in.
type Group struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	OwnerID      string             `json:"ownerId,omitempty"`
	CreatedAt    *time.Time         `json:"createdAt,omitempty"`
	Participants []GroupParticipant `json:"participants,omitempty"`
}

type GroupParticipant struct {
	ID           string `json:"id"`
	IsAdmin      bool   `json:"isAdmin,omitempty"`
	IsSuperAdmin bool   `json:"isSuperAdmin,omitempty"`
}

type CreateGroupRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

func (c *Client) ListGroups(ctx context.Context, sessionID string) ([]Group, error) {
	var groups []Group
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroupsCount uses the dedicated count endpoint where available and falls
// back to counting a full listing on gateways that never grew it.
func (c *Client) GetGroupsCount(ctx context.Context, sessionID string) (int, error) {
	var data struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/groups/count", nil, &data)
	if err == nil {
		return data.Count, nil
	}
	if !IsNotFound(err) {
		return 0, err
	}
	groups, err := c.ListGroups(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(groups), nil
}

func (c *Client) CreateGroup(ctx context.Context, sessionID string, req CreateGroupRequest) (*Group, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "group name cannot be empty"}
	}
	if len(compactStrings(req.Participants)) == 0 {
		return nil, &ValidationError{Field: "participants", Message: "at least one participant is required"}
	}
	req.Participants = compactStrings(req.Participants)
	var group Group
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/groups", req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) GetGroup(ctx context.Context, sessionID, groupID string) (*Group, error) {
	var group Group
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/groups/"+groupID, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) LeaveGroup(ctx context.Context, sessionID, groupID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/groups/"+groupID+"/leave", nil, nil)
}

func (c *Client) SetGroupName(ctx context.Context, sessionID, groupID, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "group name cannot be empty"}
	}
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/groups/"+groupID+"/name", body, nil)
}

func (c *Client) SetGroupDescription(ctx context.Context, sessionID, groupID, description string) error {
	body := map[string]string{"description": description}
	return c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/groups/"+groupID+"/description", body, nil)
}

func (c *Client) AddGroupParticipants(ctx context.Context, sessionID, groupID string, participants []string) error {
	return c.groupParticipantsOp(ctx, sessionID, groupID, "add", participants)
}

func (c *Client) RemoveGroupParticipants(ctx context.Context, sessionID, groupID string, participants []string) error {
	return c.groupParticipantsOp(ctx, sessionID, groupID, "remove", participants)
}

func (c *Client) PromoteGroupParticipants(ctx context.Context, sessionID, groupID string, participants []string) error {
	return c.groupParticipantsOp(ctx, sessionID, groupID, "promote", participants)
}

func (c *Client) DemoteGroupParticipants(ctx context.Context, sessionID, groupID string, participants []string) error {
	return c.groupParticipantsOp(ctx, sessionID, groupID, "demote", participants)
}

func (c *Client) groupParticipantsOp(ctx context.Context, sessionID, groupID, op string, participants []string) error {
	participants = compactStrings(participants)
	if len(participants) == 0 {
		return &ValidationError{Field: "participants", Message: "at least one participant is required"}
	}
	body := map[string][]string{"participants": participants}
	path := "/sessions/" + sessionID + "/groups/" + groupID + "/participants/" + op
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) GetGroupInviteCode(ctx context.Context, sessionID, groupID string) (string, error) {
	var data struct {
		Code string `json:"code"`
	}
	path := "/sessions/" + sessionID + "/groups/" + groupID + "/invite-code"
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return "", err
	}
	return data.Code, nil
}

// RevokeGroupInviteCode invalidates the current invite link and returns the
// replacement code.
func (c *Client) RevokeGroupInviteCode(ctx context.Context, sessionID, groupID string) (string, error) {
	var data struct {
		Code string `json:"code"`
	}
	path := "/sessions/" + sessionID + "/groups/" + groupID + "/invite-code/revoke"
	if err := c.do(ctx, http.MethodPost, path, nil, &data); err != nil {
		return "", err
	}
	return data.Code, nil
}

func (c *Client) JoinGroup(ctx context.Context, sessionID, code string) (*Group, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &ValidationError{Field: "code", Message: "invite code is required"}
	}
	var group Group
	body := map[string]string{"code": code}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/groups/join", body, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

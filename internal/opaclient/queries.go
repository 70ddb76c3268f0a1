package opaclient

import (
	"context"
	"encoding/json"
)

const (
	endpointAllowed         = "v1/data/permit/root"
	endpointBulk            = "v1/data/permit/bulk"
	endpointUserPermissions = "v1/data/permit/user_permissions"
	endpointAuthorizedUsers = "v1/data/permit/authorized_users"
)

// QueryAllowed sends a single authorization check.
func (c *Client) QueryAllowed(ctx context.Context, query AllowedQuery) (AllowedResult, error) {
	var result AllowedResult
	err := c.Query(ctx, endpointAllowed, query, &result)
	return result, err
}

// QueryAllowedBulk sends a bulk authorization check; order and length of
// the result mirror the input.
func (c *Client) QueryAllowedBulk(ctx context.Context, queries []AllowedQuery) (BulkAuthorizationResult, error) {
	body := struct {
		Checks []AllowedQuery `json:"checks"`
	}{Checks: queries}

	var result BulkAuthorizationResult
	err := c.Query(ctx, endpointBulk, body, &result)
	return result, err
}

// QueryUserPermissions sends a user-permissions query and extracts the
// permission map, tolerating the policy engine's shape variance: the
// response may nest permissions under "result" or carry them at the top
// level; neither present yields an empty map, not an error.
func (c *Client) QueryUserPermissions(ctx context.Context, query UserPermissionsQuery) (map[string]UserPermissionsResult, error) {
	var raw json.RawMessage
	if err := c.Query(ctx, endpointUserPermissions, query, &raw); err != nil {
		return nil, err
	}
	return extractUserPermissions(raw)
}

func extractUserPermissions(raw json.RawMessage) (map[string]UserPermissionsResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		// Query already decodes the {"result": ...} envelope; a value
		// that isn't an object at all carries no permissions.
		return map[string]UserPermissionsResult{}, nil
	}

	if nested, ok := top["result"]; ok {
		var nestedObj map[string]json.RawMessage
		if err := json.Unmarshal(nested, &nestedObj); err == nil {
			if perms, ok := nestedObj["permissions"]; ok {
				return decodePermissions(perms)
			}
		}
	}

	if perms, ok := top["permissions"]; ok {
		return decodePermissions(perms)
	}

	return map[string]UserPermissionsResult{}, nil
}

func decodePermissions(raw json.RawMessage) (map[string]UserPermissionsResult, error) {
	var permissions map[string]UserPermissionsResult
	if err := json.Unmarshal(raw, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

// QueryAuthorizedUsers sends an authorized-users query and passes the
// policy engine's response through opaquely.
func (c *Client) QueryAuthorizedUsers(ctx context.Context, query AuthorizedUsersQuery) (AuthorizedUsersResult, error) {
	var result AuthorizedUsersResult
	err := c.Query(ctx, endpointAuthorizedUsers, query, &result)
	return result, err
}

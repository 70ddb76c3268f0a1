// Package opaclient talks to the OPA-compatible policy engine: it wraps
// payloads in the { input: ... } envelope, posts them to the configured
// base URL, unwraps { result: ... }, and exposes a cached query layer on
// top for the authorization/user-permissions endpoints.
package opaclient

import (
	"encoding/json"
	"fmt"

	"github.com/permitio/pdp-sidecar/internal/pdperrors"
)

// buildEnvelope serializes payload and wraps it as {"input": payload}. If
// debug is non-nil and the serialized payload is a JSON object, a
// "use_debugger" field is injected unless already present.
func buildEnvelope(payload interface{}, debug *bool) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdperrors.ErrBuildRequest, err)
	}

	if debug != nil {
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if _, present := obj["use_debugger"]; !present {
				obj["use_debugger"] = *debug
				raw, err = json.Marshal(obj)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", pdperrors.ErrBuildRequest, err)
				}
			}
		}
	}

	envelope := struct {
		Input json.RawMessage `json:"input"`
	}{Input: raw}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdperrors.ErrBuildRequest, err)
	}
	return data, nil
}

// decodeResult unmarshals a {"result": ...} envelope into dst.
func decodeResult(body []byte, dst interface{}) error {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pdperrors.ErrParseResponse
	}
	if err := json.Unmarshal(envelope.Result, dst); err != nil {
		return pdperrors.ErrParseResponse
	}
	return nil
}

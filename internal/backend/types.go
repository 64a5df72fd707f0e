package backend

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Request is the envelope sent on every call. Only one of Data, Email and
// GUID is set, depending on the command.
type Request struct {
	User    string `json:"user"`
	Command string `json:"command"`
	Data    any    `json:"data,omitempty"`
	Email   string `json:"email,omitempty"`
	GUID    string `json:"guid,omitempty"`
}

// Argument is the single value carried by the request, used by the path protocol.
func (r Request) Argument() string {
	switch {
	case r.Data != nil:
		return fmt.Sprint(r.Data)
	case r.Email != "":
		return r.Email
	default:
		return r.GUID
	}
}

// Response fields are all optional; an absent field renders nothing.
type Response struct {
	Message  string       `json:"message,omitempty"`
	Messages []string     `json:"messages,omitempty"`
	Params   *Params      `json:"params,omitempty"`
	Docs     []Attachment `json:"docs,omitempty"`
	Pics     []Attachment `json:"pics,omitempty"`
}

// Params is returned by the register command.
type Params struct {
	GUID string `json:"guid"`
	Code string `json:"code"`
}

// UnmarshalJSON accepts the code and guid as JSON strings or numbers.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw struct {
		GUID json.RawMessage `json:"guid"`
		Code json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	guid, err := scalarString(raw.GUID)
	if err != nil {
		return fmt.Errorf("params guid: %w", err)
	}
	code, err := scalarString(raw.Code)
	if err != nil {
		return fmt.Errorf("params code: %w", err)
	}
	p.GUID, p.Code = guid, code
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", raw)
	}
	return n.String(), nil
}

// Valid reports whether the params carry enough to continue registration.
func (p *Params) Valid() bool {
	return p != nil && p.GUID != "" && p.Code != ""
}

type Attachment struct {
	Name    string `json:"name"`
	Data    string `json:"data"`
	Caption string `json:"caption,omitempty"`
}

// Decode returns the attachment payload.
func (a Attachment) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %q: %w", a.Name, err)
	}
	return raw, nil
}

// Empty reports whether there is nothing to render.
func (r *Response) Empty() bool {
	return r == nil || (r.Message == "" && len(r.Messages) == 0 && len(r.Docs) == 0 && len(r.Pics) == 0)
}

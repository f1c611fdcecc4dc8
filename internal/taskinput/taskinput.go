// Package taskinput turns untrusted create and update payloads into
// canonical task fields.
package taskinput

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLen       = 255   // characters
	MaxDescriptionLen = 65535 // bytes
)

// Payload is a request body decoded into its top-level members.
type Payload map[string]json.RawMessage

var validate = validator.New()

// legacyStatus maps the numeric codes older clients send.
var legacyStatus = map[int64]domain.Status{
	1: domain.StatusPending,
	2: domain.StatusInProgress,
	3: domain.StatusCompleted,
}

// Decode parses body as a JSON object.
func Decode(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperr.Validation("request body must be a JSON object")
	}
	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "malformed JSON body", err)
	}
	return p, nil
}

// Normalize validates p. On create (partial false) title is required and
// status defaults to pending. On update (partial true) omitted fields stay
// nil and at least one field must be present.
func Normalize(p Payload, partial bool) (domain.TaskFields, error) {
	var f domain.TaskFields

	title, err := normalizeTitle(p["title"])
	if err != nil {
		return f, err
	}
	f.Title = title

	desc, err := normalizeDescription(p["description"])
	if err != nil {
		return f, err
	}
	f.Description = desc

	status, err := normalizeStatus(p["status"])
	if err != nil {
		return f, err
	}
	f.Status = status

	if partial {
		if f.Empty() {
			return f, apperr.Validation("no update data provided")
		}
		return f, nil
	}

	if f.Title == nil {
		return f, apperr.Validation("title is required")
	}
	if f.Status == nil {
		s := domain.StatusPending
		f.Status = &s
	}
	return f, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func decodeString(raw json.RawMessage, field string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", apperr.Validation("%s must be a string", field)
	}
	if strings.ContainsRune(s, 0) {
		return "", apperr.Validation("%s must not contain NUL characters", field)
	}
	return strings.TrimSpace(s), nil
}

func normalizeTitle(raw json.RawMessage) (*string, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	title, err := decodeString(raw, "title")
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperr.Validation("title must not be empty")
	}
	if err := validate.Var(title, "max=255"); err != nil {
		return nil, apperr.Validation("title must be at most %d characters", MaxTitleLen)
	}
	return &title, nil
}

func normalizeDescription(raw json.RawMessage) (*string, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	desc, err := decodeString(raw, "description")
	if err != nil {
		return nil, err
	}
	if desc == "" {
		return nil, nil
	}
	if len(desc) > MaxDescriptionLen {
		return nil, apperr.Validation("description must be at most %d bytes", MaxDescriptionLen)
	}
	return &desc, nil
}

func normalizeStatus(raw json.RawMessage) (*domain.Status, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	text := string(bytes.TrimSpace(raw))

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if st := domain.Status(s); st.Valid() {
				return &st, nil
			}
		}
		return nil, invalidStatus(text)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		if st, ok := legacyStatus[n]; ok {
			return &st, nil
		}
	}
	return nil, invalidStatus(text)
}

func invalidStatus(got string) error {
	accepted := make([]string, 0, len(domain.Statuses))
	for i, s := range domain.Statuses {
		accepted = append(accepted, string(s)+" ("+strconv.Itoa(i+1)+")")
	}
	return apperr.Validation("invalid status %s: accepted values are %s", got, strings.Join(accepted, ", "))
}

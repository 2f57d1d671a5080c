package content

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Client timestamps arrive as "YYYY-MM-DD HH-MM-SS". The pattern is what
// the contract requires; the value is stored verbatim, never parsed.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}-\d{2}-\d{2}$`)

// FieldError describes a single envelope validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the envelope against the webhook contract and returns
// every violation found. An empty result means the envelope is acceptable.
func Validate(env *Envelope) []FieldError {
	var errs []FieldError

	if env.UUID == "" {
		errs = append(errs, FieldError{"uuid", "is required"})
	}

	if env.Timestamp == "" {
		errs = append(errs, FieldError{"timestamp", "is required"})
	} else if !timestampPattern.MatchString(env.Timestamp) {
		errs = append(errs, FieldError{"timestamp", "must match format YYYY-MM-DD HH-MM-SS"})
	}

	if env.EventType == "" {
		errs = append(errs, FieldError{"eventType", "is required"})
	} else if !validEventTypes[env.EventType] {
		errs = append(errs, FieldError{"eventType", fmt.Sprintf("unknown event type '%s'", env.EventType)})
	}

	if env.AuthorID == "" {
		errs = append(errs, FieldError{"authorId", "is required"})
	}

	if len(env.Payload) == 0 || isJSONNull(env.Payload) {
		errs = append(errs, FieldError{"payload", "is required"})
	} else {
		var payload map[string]interface{}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			errs = append(errs, FieldError{"payload", "must be an object"})
		}
	}

	if err := validateStringList(env.Hashtags); err != nil {
		errs = append(errs, FieldError{"hashtags", "must be an array of strings"})
	}
	if err := validateStringList(env.Mentions); err != nil {
		errs = append(errs, FieldError{"mentions", "must be an array of strings"})
	}

	if len(env.ParentID) > 0 && !isJSONNull(env.ParentID) {
		var parentID string
		if err := json.Unmarshal(env.ParentID, &parentID); err != nil {
			errs = append(errs, FieldError{"parentId", "must be a string"})
		}
	}

	return errs
}

func validateStringList(raw json.RawMessage) error {
	if len(raw) == 0 || isJSONNull(raw) {
		return nil
	}
	var values []string
	return json.Unmarshal(raw, &values)
}

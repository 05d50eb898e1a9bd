package crm

import (
	"fmt"
	"strings"

	"enrichsync/internal/constants"
)

// Entity is the flattened attribute set the CRM sends for a user or account.
type Entity map[string]interface{}

type Segment struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type UserUpdateMessage struct {
	MessageID string    `json:"message_id,omitempty"`
	User      Entity    `json:"user"`
	Segments  []Segment `json:"segments"`
	Account   Entity    `json:"account,omitempty"`
}

type AccountUpdateMessage struct {
	MessageID       string    `json:"message_id,omitempty"`
	Account         Entity    `json:"account"`
	AccountSegments []Segment `json:"account_segments"`
}

type UserIdentity struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	AnonymousID string `json:"anonymous_id,omitempty"`
}

func (i UserIdentity) Empty() bool {
	return i.ID == "" && i.Email == "" && i.ExternalID == "" && i.AnonymousID == ""
}

type AccountIdentity struct {
	ID         string `json:"id,omitempty"`
	Domain     string `json:"domain,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// ReadAttribute resolves path on entity. A flat key wins over a dotted walk
// because CRM attribute names may themselves contain dots or slashes.
func ReadAttribute(entity Entity, path string) interface{} {
	if entity == nil || path == "" {
		return nil
	}
	if v, ok := entity[path]; ok {
		return v
	}

	var current interface{} = map[string]interface{}(entity)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			if e, isEntity := current.(Entity); isEntity {
				m = e
			} else {
				return nil
			}
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// SegmentIDs is the segment membership of the message subject.
func SegmentIDs(segments []Segment) []string {
	ids := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func UserIdentityOf(user Entity) UserIdentity {
	identity := UserIdentity{
		ID:         stringAttr(user, "id"),
		Email:      stringAttr(user, "email"),
		ExternalID: stringAttr(user, "external_id"),
	}
	if ids, ok := user["anonymous_ids"].([]interface{}); ok && len(ids) > 0 {
		identity.AnonymousID = fmt.Sprint(ids[0])
	}
	return identity
}

func AccountIdentityOf(account Entity) AccountIdentity {
	return AccountIdentity{
		ID:         stringAttr(account, "id"),
		Domain:     stringAttr(account, "domain"),
		ExternalID: stringAttr(account, "external_id"),
	}
}

func stringAttr(entity Entity, key string) string {
	v, ok := entity[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type AttributeWrite struct {
	Value     interface{} `json:"value"`
	Operation string      `json:"operation"`
}

// AttributeWriteSet maps attribute path to the write applied to it.
type AttributeWriteSet map[string]AttributeWrite

func (s AttributeWriteSet) Set(path string, value interface{}) {
	s[path] = AttributeWrite{Value: value, Operation: constants.AttributeOperationSet}
}

func (s AttributeWriteSet) SetIfNull(path string, value interface{}) {
	s[path] = AttributeWrite{Value: value, Operation: constants.AttributeOperationSetIfNull}
}

// Apply returns attrs after the write set, the way the CRM applies it.
func (s AttributeWriteSet) Apply(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs)+len(s))
	for k, v := range attrs {
		out[k] = v
	}
	for path, w := range s {
		if w.Operation == constants.AttributeOperationSetIfNull && out[path] != nil {
			continue
		}
		out[path] = w.Value
	}
	return out
}

// Connector health values pushed to the CRM.
const (
	StatusOK            = "ok"
	StatusSetupRequired = "setupRequired"
	StatusWarning       = "warning"
	StatusError         = "error"
)

type ConnectorStatus struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages"`
}

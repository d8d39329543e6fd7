package domain

import (
	"fmt"
	"strings"
	"time"
)

// now is the clock used for timestamps; tests swap it.
var now = func() time.Time { return time.Now().UTC() }

// ResourceType classifies a resource. ResourceAny is only meaningful for processors.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceUser     ResourceType = "user"
	ResourceProject  ResourceType = "project"
	ResourceSettings ResourceType = "settings"
	ResourceMedia    ResourceType = "media"
	ResourceAny      ResourceType = "any"
)

func (t ResourceType) String() string { return string(t) }

// ParseResourceType accepts the lowercase names, case-insensitively.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ResourceDocument, ResourceUser, ResourceProject, ResourceSettings, ResourceMedia, ResourceAny:
		return t, nil
	default:
		return "", &OpError{
			Op:   "domain.parse_resource_type",
			Kind: KindValidation,
			Err:  fmt.Errorf("unknown resource type %q", s),
		}
	}
}

// ResourceData is the user-editable part of a resource.
type ResourceData struct {
	Name        string            `json:"name" yaml:"name"`
	Type        ResourceType      `json:"resource_type" yaml:"resource_type"`
	Description *string           `json:"description,omitempty" yaml:"description,omitempty"`
	Data        map[string]string `json:"data" yaml:"data"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

func NewResourceData(name string, t ResourceType) ResourceData {
	return ResourceData{
		Name:     name,
		Type:     t,
		Data:     map[string]string{},
		Metadata: map[string]string{},
	}
}

func (d ResourceData) WithData(key, value string) ResourceData {
	d.Data = cloneStrings(d.Data)
	d.Data[key] = value
	return d
}

func (d ResourceData) WithMetadata(key, value string) ResourceData {
	d.Metadata = cloneStrings(d.Metadata)
	d.Metadata[key] = value
	return d
}

func (d ResourceData) WithDescription(desc string) ResourceData {
	d.Description = &desc
	return d
}

// Resource is a ResourceData with identity, ownership and timestamps.
type Resource struct {
	ID        string       `json:"id" yaml:"id"`
	Data      ResourceData `json:"data" yaml:"data"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" yaml:"updated_at"`
	OwnerID   *string      `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
}

// NewResource stamps CreatedAt and UpdatedAt with the same instant.
func NewResource(id string, data ResourceData) Resource {
	ts := now()
	return Resource{
		ID:        id,
		Data:      data,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func (r Resource) WithOwner(ownerID string) Resource {
	r.OwnerID = &ownerID
	return r
}

// Touch refreshes UpdatedAt.
func (r *Resource) Touch() {
	r.UpdatedAt = now()
}

func (r Resource) IsOwnedBy(userID string) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

// Clone returns a copy that shares no maps or pointers with r.
func (r Resource) Clone() Resource {
	out := r
	out.Data.Data = cloneStrings(r.Data.Data)
	out.Data.Metadata = cloneStrings(r.Data.Metadata)
	if r.Data.Description != nil {
		d := *r.Data.Description
		out.Data.Description = &d
	}
	if r.OwnerID != nil {
		o := *r.OwnerID
		out.OwnerID = &o
	}
	return out
}

// EntityID implements the repository key contract.
func (r Resource) EntityID() string { return r.ID }

func cloneStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// IndexName and IndexKind feed the secondary columns of SQL-backed stores.
func (r Resource) IndexName() string { return r.Data.Name }
func (r Resource) IndexKind() string { return string(r.Data.Type) }

package apptype

// Handle is a lightweight reference to a knowledge-base entity. Identity for
// deduplication purposes is the Identifier; Rank is assigned only after
// ranking and is zero before.
type Handle struct {
	Identifier  string `json:"identifier"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Rank        int    `json:"rank,omitempty"`
}

// RepositoryType distinguishes local (embedded) knowledge bases from remote
// endpoints. The candidate generator uses it to pick the minimum query length
// for prefix/substring searches.
type RepositoryType string

const (
	RepositoryTypeLocal  RepositoryType = "local"
	RepositoryTypeRemote RepositoryType = "remote"
)

// KnowledgeBase describes a named, project-scoped search target.
type KnowledgeBase struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Project  string         `json:"project"`
	Type     RepositoryType `json:"type"`
	Enabled  bool           `json:"enabled"`
	ReadOnly bool           `json:"readOnly"`
}

// ValueType filters the kind of entity sought.
type ValueType string

const (
	ValueTypeAnyObject ValueType = "any-object"
	ValueTypeConcept   ValueType = "concept"
	ValueTypeInstance  ValueType = "instance"
	ValueTypeProperty  ValueType = "property"
)

// Item is a knowledge-base entry as stored by the local backend. Kind is one
// of "concept", "instance" or "property".
type Item struct {
	Identifier  string `json:"identifier"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Kind        string `json:"kind"`
}

// Link is a directed hierarchy edge between two items. LinkType is
// "subclass-of" (concept -> concept) or "instance-of" (instance -> concept).
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	LinkType string `json:"linkType"`
}

// Item kinds and link types used by the local backend schema.
const (
	KindConcept  = "concept"
	KindInstance = "instance"
	KindProperty = "property"

	LinkSubclassOf = "subclass-of"
	LinkInstanceOf = "instance-of"
)

// Outcome classifies the result of a linking request so callers and tests can
// distinguish "nothing found" from "nothing configured" from "failed".
type Outcome string

const (
	// OutcomeOK means the request executed; the candidate list may be empty.
	OutcomeOK Outcome = "ok"
	// OutcomeNoRepository means the requested repository is missing or
	// disabled. This is a user-configuration state, not an error.
	OutcomeNoRepository Outcome = "no-repository"
	// OutcomeError means the request failed in an unexpected way.
	OutcomeError Outcome = "error"
)
